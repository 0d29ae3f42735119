package models

import (
	"time"

	"gorm.io/gorm"
)

// LookImage is the rendered artifact cache entry for one (look, viewer) pair.
// Rendering composites the viewer's own reference photo, so each viewer gets
// their own row rather than a single shared artifact.
type LookImage struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	LookID       uint       `gorm:"not null;uniqueIndex:idx_look_user" json:"look_id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_look_user" json:"user_id"`
	StorageRef   string     `gorm:"size:512" json:"storage_ref"`
	Status       string     `gorm:"size:20;not null;index" json:"status"` // mirrors generation states
	Provider     string     `gorm:"size:50" json:"provider"`
	ErrorMessage string     `gorm:"size:512" json:"error_message,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"` // cache TTL
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (LookImage) TableName() string { return "look_images" }

func (li *LookImage) OwnerID() uint { return li.UserID }
