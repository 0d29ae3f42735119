package repository

import (
	"time"

	"stylit/internal/domain"
	"stylit/internal/models"

	"gorm.io/gorm"
)

type LookRepository struct {
	db *gorm.DB
}

func NewLookRepository(db *gorm.DB) *LookRepository {
	return &LookRepository{db: db}
}

func (r *LookRepository) Create(l *models.Look) error {
	return r.db.Create(l).Error
}

func (r *LookRepository) GetByID(id uint) (*models.Look, error) {
	var l models.Look
	err := r.db.First(&l, id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LookRepository) GetByPublicID(publicID string) (*models.Look, error) {
	var l models.Look
	err := r.db.Where("public_id = ?", publicID).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LookRepository) Update(l *models.Look) error {
	return r.db.Save(l).Error
}

func (r *LookRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Look{}).Where("id = ?", id).Updates(fields).Error
}

// CountUserCreatedSince counts user-attributed looks created after the
// cutoff. The sliding-window rate limit is recomputed from this per request,
// not kept as a counter.
func (r *LookRepository) CountUserCreatedSince(userID uint, since time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.Look{}).
		Where("creator_user_id = ? AND created_at > ? AND creation_source IN ?", userID, since, domain.UserAttributedSources).
		Count(&n).Error
	return n, err
}

func (r *LookRepository) ListByCreator(userID uint, limit, offset int) ([]models.Look, error) {
	var list []models.Look
	err := r.db.Where("creator_user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
