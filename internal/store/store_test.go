package store

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avelar/vidvault/internal/models"
)

// openTestStore opens an in-memory SQLite store with all tables migrated.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Video{},
		&models.Category{},
		&models.Favorite{},
		&models.AnalyticsEvent{},
		&models.User{},
		&models.Ban{},
		&models.Broadcast{},
		&models.Template{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return New(db, 5*time.Second)
}

// seedVideo inserts a visible video and returns it.
func seedVideo(t *testing.T, s *Store, title string, categoryID *uint) *models.Video {
	t.Helper()
	v, err := s.CreateVideo(context.Background(), CreateVideoOpts{
		MediaRef:   "ref-" + title,
		Title:      title,
		CategoryID: categoryID,
		UploadedBy: "uploader",
	})
	if err != nil {
		t.Fatalf("seed video %q: %v", title, err)
	}
	return v
}
