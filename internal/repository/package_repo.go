package repository

import (
	"stylit/internal/models"

	"gorm.io/gorm"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) GetActive(id uint) (*models.CreditPackage, error) {
	var p models.CreditPackage
	err := r.db.Where("id = ? AND active = ?", id, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepository) ListActive() ([]models.CreditPackage, error) {
	var list []models.CreditPackage
	err := r.db.Where("active = ?", true).Order("price_cents ASC").Find(&list).Error
	return list, err
}
