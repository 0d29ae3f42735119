package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Item is a catalog garment a look is composed from.
type Item struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Brand      string         `gorm:"size:128" json:"brand"`
	PriceCents int64          `gorm:"not null" json:"price_cents"`
	Currency   string         `gorm:"size:3;default:'KES'" json:"currency"`
	ImageURL   string         `gorm:"size:512" json:"image_url"`
	Tags       string         `gorm:"size:255" json:"tags"` // comma separated
	Active     bool           `gorm:"default:true;index" json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Item) TableName() string { return "items" }

// TagList splits the comma-separated tag column, dropping empties.
func (i *Item) TagList() []string {
	var out []string
	for _, t := range strings.Split(i.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
