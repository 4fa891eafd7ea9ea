package store

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"gorm.io/gorm"

	"github.com/avelar/vidvault/internal/models"
)

// CreateVideoOpts holds parameters for adding a video to the library.
type CreateVideoOpts struct {
	MediaRef    string // opaque handle from the chat platform, required
	Title       string
	Description string
	CategoryID  *uint // nil = uncategorized
	UploadedBy  string
}

// VideoUpdate describes a metadata edit. Nil fields are left untouched.
// MediaRef is immutable and deliberately absent.
type VideoUpdate struct {
	Title         *string
	Description   *string
	CategoryID    *uint
	ClearCategory bool
}

// CreateVideo validates and inserts a new video in one transaction.
// Returns ErrValidation for an empty title/media ref or an unknown
// category.
func (s *Store) CreateVideo(ctx context.Context, opts CreateVideoOpts) (*models.Video, error) {
	const op = "create video"
	if strings.TrimSpace(opts.Title) == "" {
		return nil, invalid(op, "title is empty")
	}
	if opts.MediaRef == "" {
		return nil, invalid(op, "media ref is empty")
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	video := &models.Video{
		MediaRef:    opts.MediaRef,
		Title:       strings.TrimSpace(opts.Title),
		Description: opts.Description,
		CategoryID:  opts.CategoryID,
		UploadedBy:  opts.UploadedBy,
		Active:      true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.CategoryID != nil {
			var count int64
			if err := tx.Model(&models.Category{}).Where("id = ?", *opts.CategoryID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return invalid(op, "category does not exist")
			}
		}
		return tx.Create(video).Error
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, classify(op, err)
	}
	return video, nil
}

// GetVideo returns a visible video by ID. Soft-deleted videos report
// ErrNotFound.
func (s *Store) GetVideo(ctx context.Context, id uint) (*models.Video, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var video models.Video
	err := s.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND active = ?", id, true).First(&video).Error
	if err != nil {
		return nil, classify("get video", err)
	}
	return &video, nil
}

// UpdateVideoMetadata applies a metadata edit in one transaction.
// A new category is verified to exist before the write.
func (s *Store) UpdateVideoMetadata(ctx context.Context, id uint, upd VideoUpdate) error {
	const op = "update video"
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return invalid(op, "title is empty")
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var video models.Video
		if err := tx.Where("id = ? AND active = ?", id, true).First(&video).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if upd.Title != nil {
			updates["title"] = strings.TrimSpace(*upd.Title)
		}
		if upd.Description != nil {
			updates["description"] = *upd.Description
		}
		if upd.ClearCategory {
			updates["category_id"] = nil
		} else if upd.CategoryID != nil {
			var count int64
			if err := tx.Model(&models.Category{}).Where("id = ?", *upd.CategoryID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return invalid(op, "category does not exist")
			}
			updates["category_id"] = *upd.CategoryID
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Video{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return err
		}
		return classify(op, err)
	}
	return nil
}

// SoftDeleteVideo hides a video from all listings while preserving
// favorite and analytics history.
func (s *Store) SoftDeleteVideo(ctx context.Context, id uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result := s.db.WithContext(ctx).Model(&models.Video{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if result.Error != nil {
		return classify("delete video", result.Error)
	}
	if result.RowsAffected == 0 {
		return classify("delete video", gorm.ErrRecordNotFound)
	}
	return nil
}

// ListVideosByCategory returns visible videos in a category, newest
// first. A nil categoryID lists uncategorized videos.
func (s *Store) ListVideosByCategory(ctx context.Context, categoryID *uint) ([]models.Video, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	q := s.db.WithContext(ctx).Where("active = ?", true)
	if categoryID == nil {
		q = q.Where("category_id IS NULL")
	} else {
		q = q.Where("category_id = ?", *categoryID)
	}

	var videos []models.Video
	if err := q.Order("created_at DESC, id DESC").Find(&videos).Error; err != nil {
		return nil, classify("list videos by category", err)
	}
	return videos, nil
}

// RecentVideos returns the most recently uploaded visible videos.
func (s *Store) RecentVideos(ctx context.Context, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var videos []models.Video
	err := s.db.WithContext(ctx).Preload("Category").
		Where("active = ?", true).
		Order("created_at DESC, id DESC").Limit(limit).Find(&videos).Error
	if err != nil {
		return nil, classify("recent videos", err)
	}
	return videos, nil
}

// SearchVideos matches visible videos by title or description substring.
func (s *Store) SearchVideos(ctx context.Context, query string) ([]models.Video, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pattern := "%" + strings.TrimSpace(query) + "%"
	var videos []models.Video
	err := s.db.WithContext(ctx).
		Where("active = ? AND (title LIKE ? OR description LIKE ?)", true, pattern, pattern).
		Order("created_at DESC, id DESC").Find(&videos).Error
	if err != nil {
		return nil, classify("search videos", err)
	}
	return videos, nil
}

// RandomVideo picks a uniformly random visible video. Count-and-offset
// keeps the query portable across sqlite and mysql.
func (s *Store) RandomVideo(ctx context.Context) (*models.Video, error) {
	const op = "random video"
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Video{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return nil, classify(op, err)
	}
	if count == 0 {
		return nil, classify(op, gorm.ErrRecordNotFound)
	}

	var video models.Video
	err := s.db.WithContext(ctx).Where("active = ?", true).
		Offset(rand.Intn(int(count))).First(&video).Error
	if err != nil {
		return nil, classify(op, err)
	}
	return &video, nil
}

// CountVideos returns the number of visible videos.
func (s *Store) CountVideos(ctx context.Context) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Video{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return 0, classify("count videos", err)
	}
	return count, nil
}
