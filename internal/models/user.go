package models

import "time"

// User is a registry row created on first contact and refreshed on
// every turn. Identity comes from the chat platform.
type User struct {
	ID        string `gorm:"primaryKey;size:64"`
	Username  string `gorm:"size:64"`
	FirstName string `gorm:"size:64"`
	FirstSeen time.Time
	LastSeen  time.Time `gorm:"index"`
}

// Ban blocks a user from all bot interaction until lifted.
type Ban struct {
	UserID    string `gorm:"primaryKey;size:64"`
	BannedBy  string `gorm:"size:64;not null"`
	Reason    string `gorm:"size:256"`
	CreatedAt time.Time
}
