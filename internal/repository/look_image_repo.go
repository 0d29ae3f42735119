package repository

import (
	"errors"

	"stylit/internal/models"

	"gorm.io/gorm"
)

type LookImageRepository struct {
	db *gorm.DB
}

func NewLookImageRepository(db *gorm.DB) *LookImageRepository {
	return &LookImageRepository{db: db}
}

// GetForViewer returns the cache entry for one (look, viewer) pair, or nil
// when no row has been written yet.
func (r *LookImageRepository) GetForViewer(lookID, userID uint) (*models.LookImage, error) {
	var li models.LookImage
	err := r.db.Where("look_id = ? AND user_id = ?", lookID, userID).First(&li).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// Upsert writes the cache entry keyed on (look_id, user_id).
func (r *LookImageRepository) Upsert(li *models.LookImage) error {
	existing, err := r.GetForViewer(li.LookID, li.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(li).Error
	}
	li.ID = existing.ID
	li.CreatedAt = existing.CreatedAt
	return r.db.Save(li).Error
}

// Reset clears status and error ahead of a retry attempt.
func (r *LookImageRepository) Reset(lookID, userID uint) error {
	return r.db.Model(&models.LookImage{}).
		Where("look_id = ? AND user_id = ?", lookID, userID).
		Updates(map[string]interface{}{"status": "", "error_message": ""}).Error
}
