package models

import (
	"time"

	"gorm.io/gorm"
)

// CreditPackage is a purchasable credit bundle (seeded at startup).
type CreditPackage struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:64;not null" json:"name"`
	Credits    int            `gorm:"not null" json:"credits"`
	PriceCents int64          `gorm:"not null" json:"price_cents"`
	Currency   string         `gorm:"size:3;default:'KES'" json:"currency"`
	Active     bool           `gorm:"default:true;index" json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CreditPackage) TableName() string { return "credit_packages" }
