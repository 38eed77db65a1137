package database

import (
	"gorm.io/gorm"

	"github.com/liliane-giguere/north-pole-match/internal/models"
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Game{},
		&models.Participant{},
		&models.Match{},
		&models.Session{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}
