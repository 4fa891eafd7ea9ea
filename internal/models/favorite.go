package models

import "time"

// Favorite marks a video as saved by a user. The composite primary key
// guarantees at most one row per (user, video) pair.
type Favorite struct {
	UserID    string `gorm:"primaryKey;size:64"`
	VideoID   uint   `gorm:"primaryKey"`
	CreatedAt time.Time

	Video Video `gorm:"foreignKey:VideoID"`
}
