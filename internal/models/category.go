package models

import "time"

// Category groups videos under a unique display name. Videos with a
// nil CategoryID are uncategorized.
type Category struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt time.Time

	Videos []Video `gorm:"foreignKey:CategoryID"`
}
