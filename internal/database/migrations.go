package database

import (
	"loglite/internal/database/models"

	"gorm.io/gorm"
)

// RunMigrations brings the schema up to date with the entity tables and
// indices spec.md §3/§7 requires: apps, app_sources, tail_offsets, events.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.App{},
		&models.Source{},
		&models.TailOffset{},
		&models.Event{},
		&models.RetentionAttempt{},
	)
}
