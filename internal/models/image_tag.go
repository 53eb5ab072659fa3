package models

import "time"

// ImageTag links an image to a tag. Automated rows are produced by the scan
// pipeline and rebuilt on every delivery; manual rows are never touched here.
type ImageTag struct {
	ImageID    int64   `gorm:"primaryKey;autoIncrement:false"`
	TagID      uint64  `gorm:"primaryKey;autoIncrement:false"`
	Confidence float64 `gorm:"not null"`
	Automated  bool    `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (ImageTag) TableName() string {
	return "image_tags"
}
