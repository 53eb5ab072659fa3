package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TagTypeLabel      = "Label"
	TagTypeModeration = "Moderation"
)

type Tag struct {
	ID     uint64         `gorm:"primaryKey;autoIncrement"`
	Name   string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	Type   string         `gorm:"type:varchar(20);not null;index"`
	Target datatypes.JSON `gorm:"type:jsonb;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Tag) TableName() string {
	return "tags"
}

// AllTargets is the target set assigned to tags created from classifier
// observations: applicable to every taggable entity kind.
func AllTargets() datatypes.JSON {
	return datatypes.JSON([]byte(`["image","post","model"]`))
}
