package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Look is a generated outfit artifact and its asynchronous generation job.
// GenerationStatus is mutated only by the worker (and retry); CurationStatus
// only by the owning user.
type Look struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PublicID string `gorm:"uniqueIndex;size:36;not null" json:"public_id"`

	CreatorUserID  uint   `gorm:"not null;index" json:"creator_user_id"`
	ItemIDs        string `gorm:"type:text;not null" json:"-"` // JSON array of item ids
	TotalPriceCents int64 `gorm:"not null" json:"total_price_cents"`
	Currency       string `gorm:"size:3" json:"currency"`
	StyleTags      string `gorm:"size:255" json:"style_tags"`

	GenerationStatus string `gorm:"size:20;not null;index" json:"generation_status"`
	CurationStatus   string `gorm:"size:20;not null;index" json:"curation_status"`
	CreationSource   string `gorm:"size:30;not null;index" json:"creation_source"`
	OriginalLookID   *uint  `gorm:"index" json:"original_look_id,omitempty"` // lineage for recreated looks

	IsPublic          bool `gorm:"default:false" json:"is_public"`
	SharedWithFriends bool `gorm:"default:false" json:"shared_with_friends"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Creator User `gorm:"foreignKey:CreatorUserID" json:"-"`
}

func (Look) TableName() string { return "looks" }

func (l *Look) OwnerID() uint { return l.CreatorUserID }

// Items decodes the stored item id list.
func (l *Look) Items() []uint {
	var ids []uint
	_ = json.Unmarshal([]byte(l.ItemIDs), &ids)
	return ids
}

// EncodeItemIDs stores ids as the JSON text column.
func EncodeItemIDs(ids []uint) string {
	b, _ := json.Marshal(ids)
	return string(b)
}
