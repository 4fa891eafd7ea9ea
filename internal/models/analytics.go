package models

import "time"

// Analytics event kinds.
const (
	EventView     = "view"
	EventDownload = "download"
	EventFavorite = "favorite"
	EventSearch   = "search"
)

// AnalyticsEvent is an append-only record of user activity. VideoID is
// nil for events that don't reference a video (e.g. searches).
//
// The composite (user, kind, created_at) index backs the download quota
// window scan, which runs on every download request.
type AnalyticsEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"size:64;not null;index:idx_user_kind_time,priority:1"`
	VideoID   *uint     `gorm:"index"`
	Kind      string    `gorm:"size:16;not null;index:idx_user_kind_time,priority:2"`
	CreatedAt time.Time `gorm:"index:idx_user_kind_time,priority:3"`
}
