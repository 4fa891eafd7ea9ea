package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/avelar/vidvault/internal/models"
)

// AddFavorite records a (user, video) favorite and its analytics event
// in one transaction. Returns ErrNotFound if the video is missing or
// hidden, ErrConflict if the pair already exists (callers treat that as
// an idempotent success).
func (s *Store) AddFavorite(ctx context.Context, userID string, videoID uint) error {
	const op = "add favorite"
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visible int64
		if err := tx.Model(&models.Video{}).
			Where("id = ? AND active = ?", videoID, true).Count(&visible).Error; err != nil {
			return err
		}
		if visible == 0 {
			return gorm.ErrRecordNotFound
		}

		var existing int64
		if err := tx.Model(&models.Favorite{}).
			Where("user_id = ? AND video_id = ?", userID, videoID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return gorm.ErrDuplicatedKey
		}

		if err := tx.Create(&models.Favorite{UserID: userID, VideoID: videoID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.AnalyticsEvent{
			UserID:  userID,
			VideoID: &videoID,
			Kind:    models.EventFavorite,
		}).Error
	})
	return classify(op, err)
}

// RemoveFavorite deletes a favorite pair. Removing a pair that doesn't
// exist is a no-op, not an error.
func (s *Store) RemoveFavorite(ctx context.Context, userID string, videoID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&models.Favorite{}).Error
	return classify("remove favorite", err)
}

// ListFavorites returns a user's favorites whose videos are still
// visible, newest favorite first.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var favs []models.Favorite
	err := s.db.WithContext(ctx).Preload("Video").
		Joins("JOIN videos ON videos.id = favorites.video_id AND videos.active = ?", true).
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&favs).Error
	if err != nil {
		return nil, classify("list favorites", err)
	}
	return favs, nil
}
