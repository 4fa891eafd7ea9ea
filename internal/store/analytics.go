package store

import (
	"context"
	"time"

	"github.com/avelar/vidvault/internal/models"
)

// KindCount is a per-event-kind total.
type KindCount struct {
	Kind  string
	Count int64
}

// VideoViewCount pairs a video with its view total.
type VideoViewCount struct {
	VideoID uint
	Title   string
	Views   int64
}

// WindowCount summarizes a user's events of one kind inside a window.
type WindowCount struct {
	Count  int64
	Oldest time.Time // zero when Count == 0
}

// RecordEvent appends one analytics event. Events are never updated or
// deleted by normal flows.
func (s *Store) RecordEvent(ctx context.Context, userID string, videoID *uint, kind string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Create(&models.AnalyticsEvent{
		UserID:  userID,
		VideoID: videoID,
		Kind:    kind,
	}).Error
	return classify("record event", err)
}

// CountEventsSince counts a user's events of one kind at or after the
// cutoff, and reports the oldest matching timestamp. This is the quota
// window scan; it rides the (user, kind, created_at) index rather than
// scanning the table.
func (s *Store) CountEventsSince(ctx context.Context, userID, kind string, since time.Time) (WindowCount, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var row struct {
		Count  int64
		Oldest *time.Time
	}
	err := s.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("COUNT(*) as count, MIN(created_at) as oldest").
		Where("user_id = ? AND kind = ? AND created_at >= ?", userID, kind, since).
		Scan(&row).Error
	if err != nil {
		return WindowCount{}, classify("count events", err)
	}

	wc := WindowCount{Count: row.Count}
	if row.Oldest != nil {
		wc.Oldest = *row.Oldest
	}
	return wc, nil
}

// EventTotals returns overall counts per event kind.
func (s *Store) EventTotals(ctx context.Context) ([]KindCount, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var totals []KindCount
	err := s.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("kind, COUNT(*) as count").
		Group("kind").
		Order("kind ASC").
		Find(&totals).Error
	if err != nil {
		return nil, classify("event totals", err)
	}
	return totals, nil
}

// PopularVideos returns the most-viewed visible videos.
func (s *Store) PopularVideos(ctx context.Context, limit int) ([]VideoViewCount, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var rows []VideoViewCount
	err := s.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("videos.id as video_id, videos.title, COUNT(*) as views").
		Joins("JOIN videos ON videos.id = analytics_events.video_id AND videos.active = ?", true).
		Where("analytics_events.kind = ?", models.EventView).
		Group("videos.id, videos.title").
		Order("views DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, classify("popular videos", err)
	}
	return rows, nil
}

// VideoStats returns per-kind event counts for one video.
func (s *Store) VideoStats(ctx context.Context, videoID uint) ([]KindCount, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var totals []KindCount
	err := s.db.WithContext(ctx).Model(&models.AnalyticsEvent{}).
		Select("kind, COUNT(*) as count").
		Where("video_id = ?", videoID).
		Group("kind").
		Order("kind ASC").
		Find(&totals).Error
	if err != nil {
		return nil, classify("video stats", err)
	}
	return totals, nil
}
