package db

import (
	"imagetagger/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Image{},
		&models.Tag{},
		&models.ImageTag{},
	)
}
