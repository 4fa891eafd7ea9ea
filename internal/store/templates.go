package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avelar/vidvault/internal/models"
)

// SaveTemplate creates or replaces a named broadcast template.
func (s *Store) SaveTemplate(ctx context.Context, name, content, createdBy string) error {
	const op = "save template"
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(op, "name is empty")
	}
	if strings.TrimSpace(content) == "" {
		return invalid(op, "content is empty")
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tmpl := models.Template{Name: name, Content: content, CreatedBy: createdBy}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "created_by"}),
	}).Create(&tmpl).Error
	return classify(op, err)
}

// GetTemplate fetches a template by name.
func (s *Store) GetTemplate(ctx context.Context, name string) (*models.Template, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var tmpl models.Template
	err := s.db.WithContext(ctx).
		Where("name = ?", strings.TrimSpace(name)).First(&tmpl).Error
	if err != nil {
		return nil, classify("get template", err)
	}
	return &tmpl, nil
}

// ListTemplates returns all templates ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]models.Template, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var tmpls []models.Template
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tmpls).Error; err != nil {
		return nil, classify("list templates", err)
	}
	return tmpls, nil
}

// DeleteTemplate removes a template by name. Reports ErrNotFound when
// no template has that name.
func (s *Store) DeleteTemplate(ctx context.Context, name string) error {
	const op = "delete template"
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result := s.db.WithContext(ctx).
		Where("name = ?", strings.TrimSpace(name)).
		Delete(&models.Template{})
	if result.Error != nil {
		return classify(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return classify(op, gorm.ErrRecordNotFound)
	}
	return nil
}
