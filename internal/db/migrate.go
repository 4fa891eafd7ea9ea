package db

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avelar/vidvault/internal/models"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Video{},
		&models.Category{},
		&models.Favorite{},
		&models.AnalyticsEvent{},
		&models.User{},
		&models.Ban{},
		&models.Broadcast{},
		&models.Template{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedCategories upserts Category rows by name, ignoring existing ones.
func SeedCategories(db *gorm.DB, names []string) error {
	for _, name := range names {
		cat := models.Category{Name: name}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&cat)
		if result.Error != nil {
			return fmt.Errorf("db: seed category %q: %w", name, result.Error)
		}
	}
	return nil
}
