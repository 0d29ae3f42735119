package repository

import (
	"stylit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(p *models.CreditPurchase) error {
	return r.db.Create(p).Error
}

func (r *PurchaseRepository) GetByID(id uint) (*models.CreditPurchase, error) {
	var p models.CreditPurchase
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) GetByMerchantTxID(mtid string) (*models.CreditPurchase, error) {
	var p models.CreditPurchase
	err := r.db.Where("merchant_tx_id = ?", mtid).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) Update(p *models.CreditPurchase) error {
	return r.db.Save(p).Error
}

// CompleteWithGrant writes the completed purchase and the credit grant in one
// transaction. Either both land or neither does, so a completed row can never
// exist without its credits; a rolled-back settlement stays pending and the
// next webhook delivery settles it.
func (r *PurchaseRepository) CompleteWithGrant(p *models.CreditPurchase, credits int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, p.UserID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", p.UserID).
			Update("purchased_credits", gorm.Expr("purchased_credits + ?", credits)).Error; err != nil {
			return err
		}
		return tx.Save(p).Error
	})
}
