package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/avelar/vidvault/internal/models"
)

// ScheduleBroadcast queues an announcement for delivery once
// scheduledAt has passed. An immediate broadcast uses time.Now().
func (s *Store) ScheduleBroadcast(ctx context.Context, adminID, content, mediaRef string, scheduledAt time.Time) (*models.Broadcast, error) {
	const op = "schedule broadcast"
	if strings.TrimSpace(content) == "" && mediaRef == "" {
		return nil, invalid(op, "content is empty")
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	bc := &models.Broadcast{
		AdminID:     adminID,
		Content:     content,
		MediaRef:    mediaRef,
		ScheduledAt: scheduledAt,
		Status:      models.BroadcastPending,
	}
	if err := s.db.WithContext(ctx).Create(bc).Error; err != nil {
		return nil, classify(op, err)
	}
	return bc, nil
}

// DueBroadcasts returns pending broadcasts whose scheduled time has
// passed, oldest first.
func (s *Store) DueBroadcasts(ctx context.Context, now time.Time) ([]models.Broadcast, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var due []models.Broadcast
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.BroadcastPending, now).
		Order("scheduled_at ASC").
		Find(&due).Error
	if err != nil {
		return nil, classify("due broadcasts", err)
	}
	return due, nil
}

// MarkBroadcast transitions a pending broadcast to sent, failed or
// cancelled. Only pending broadcasts can transition; anything else
// reports ErrNotFound.
func (s *Store) MarkBroadcast(ctx context.Context, id uint, status string) error {
	const op = "mark broadcast"
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	updates := map[string]interface{}{"status": status}
	if status == models.BroadcastSent {
		now := time.Now()
		updates["sent_at"] = &now
	}

	result := s.db.WithContext(ctx).Model(&models.Broadcast{}).
		Where("id = ? AND status = ?", id, models.BroadcastPending).
		Updates(updates)
	if result.Error != nil {
		return classify(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return classify(op, gorm.ErrRecordNotFound)
	}
	return nil
}

// ListBroadcasts returns broadcasts, optionally filtered by admin,
// newest first.
func (s *Store) ListBroadcasts(ctx context.Context, adminID string, limit int) ([]models.Broadcast, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	q := s.db.WithContext(ctx)
	if adminID != "" {
		q = q.Where("admin_id = ?", adminID)
	}

	var bcs []models.Broadcast
	err := q.Order("scheduled_at DESC").Limit(limit).Find(&bcs).Error
	if err != nil {
		return nil, classify("list broadcasts", err)
	}
	return bcs, nil
}
