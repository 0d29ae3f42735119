package models

import (
	"time"

	"gorm.io/gorm"
)

// CreditPurchase tracks one top-up from initiation through the M-Pesa
// webhook. MerchantTxID is the idempotency key shared with the provider;
// a purchase reaches a terminal state exactly once and completed is sticky.
type CreditPurchase struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	PackageID     uint       `gorm:"not null" json:"package_id"`
	CreditAmount  int        `gorm:"not null" json:"credit_amount"`
	PriceCents    int64      `gorm:"not null" json:"price_cents"`
	Currency      string     `gorm:"size:3;default:'KES'" json:"currency"`
	Phone         string     `gorm:"size:20" json:"phone"`
	MerchantTxID  string     `gorm:"size:64;uniqueIndex;not null" json:"merchant_tx_id"`
	ProviderTxID  string     `gorm:"size:128" json:"provider_tx_id,omitempty"`
	Status        string     `gorm:"size:20;not null;index" json:"status"`
	FailureReason string     `gorm:"size:255" json:"failure_reason,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (CreditPurchase) TableName() string { return "credit_purchases" }

func (p *CreditPurchase) OwnerID() uint { return p.UserID }
