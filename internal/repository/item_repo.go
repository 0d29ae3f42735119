package repository

import (
	"stylit/internal/models"

	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetByIDs returns items in the order of ids (callers depend on positional
// rules like last-item currency).
func (r *ItemRepository) GetByIDs(ids []uint) ([]models.Item, error) {
	var items []models.Item
	if err := r.db.Where("id IN ? AND active = ?", ids, true).Find(&items).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

func (r *ItemRepository) ListActive(limit, offset int) ([]models.Item, error) {
	var list []models.Item
	err := r.db.Where("active = ?", true).Order("id ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
