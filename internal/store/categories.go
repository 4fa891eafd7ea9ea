package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/avelar/vidvault/internal/models"
)

// CategoryCount pairs a category with its visible video count.
type CategoryCount struct {
	ID    uint
	Name  string
	Count int64
}

// CreateCategory inserts a category with a unique name. Returns
// ErrConflict if the name is taken.
func (s *Store) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	const op = "create category"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(op, "name is empty")
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cat := &models.Category{Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return gorm.ErrDuplicatedKey
		}
		return tx.Create(cat).Error
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return cat, nil
}

// GetCategoryByName resolves a category by its display name
// (case-insensitive).
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var cat models.Category
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&cat).Error
	if err != nil {
		return nil, classify("get category", err)
	}
	return &cat, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, classify("list categories", err)
	}
	return cats, nil
}

// CategoryCounts returns categories with their visible video counts.
func (s *Store) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var counts []CategoryCount
	err := s.db.WithContext(ctx).Model(&models.Category{}).
		Select("categories.id, categories.name, COUNT(videos.id) as count").
		Joins("LEFT JOIN videos ON videos.category_id = categories.id AND videos.active = ?", true).
		Group("categories.id, categories.name").
		Order("categories.name ASC").
		Find(&counts).Error
	if err != nil {
		return nil, classify("category counts", err)
	}
	return counts, nil
}

// DeleteCategory removes a category and re-homes its videos to
// uncategorized in a single transaction, so no video is ever left
// pointing at a missing category.
func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	const op = "delete category"
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Video{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return classify(op, err)
}
