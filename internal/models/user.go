package models

import (
	"time"

	"stylit/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:64;not null;default:''" json:"username"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	// PhotoURL is the primary reference photo composited into generated looks.
	PhotoURL string `gorm:"size:512" json:"photo_url"`

	// Credit ledger fields. Free ration resets lazily on access when the
	// window has elapsed, never by a background sweep.
	PurchasedCredits     int       `gorm:"not null;default:0" json:"purchased_credits"`
	FreeCreditsUsedWeek  int       `gorm:"not null;default:0" json:"free_credits_used_week"`
	WeeklyCreditsResetAt time.Time `json:"weekly_credits_reset_at"`

	FCMToken  string         `gorm:"size:512" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FreeRemaining applies the lazy-reset rule without mutating the row.
func (u *User) FreeRemaining(now time.Time) int {
	used := u.FreeCreditsUsedWeek
	if now.Sub(u.WeeklyCreditsResetAt) >= domain.FreeCreditWindow {
		used = 0
	}
	if used >= domain.FreeWeeklyCredits {
		return 0
	}
	return domain.FreeWeeklyCredits - used
}

// TotalCredits is free remaining plus purchased.
func (u *User) TotalCredits(now time.Time) int {
	return u.FreeRemaining(now) + u.PurchasedCredits
}
