package models

import "time"

// Image rows are owned by the upload service; identifiers are assigned there.
// This service only stamps scan state, derives the unsafe flag, or deletes rows.
type Image struct {
	ID        int64      `gorm:"primaryKey;autoIncrement:false"`
	ScannedAt *time.Time `gorm:"type:timestamptz;index"`
	Unsafe    bool       `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Image) TableName() string {
	return "images"
}
