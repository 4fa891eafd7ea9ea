package models

import "time"

// Broadcast statuses.
const (
	BroadcastPending   = "pending"
	BroadcastSent      = "sent"
	BroadcastFailed    = "failed"
	BroadcastCancelled = "cancelled"
)

// Broadcast is an admin announcement scheduled for delivery to all
// active users. Picked up by the broadcast scheduler once ScheduledAt
// has passed.
type Broadcast struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	AdminID     string `gorm:"size:64;not null"`
	Content     string `gorm:"type:text;not null"`
	MediaRef    string `gorm:"size:256"`
	ScheduledAt time.Time `gorm:"index"`
	Status      string    `gorm:"size:16;default:pending;index"`
	CreatedAt   time.Time
	SentAt      *time.Time
}

// Template is a named, reusable broadcast text.
type Template struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:64;not null;uniqueIndex"`
	Content   string `gorm:"type:text;not null"`
	CreatedBy string `gorm:"size:64"`
	CreatedAt time.Time
}
