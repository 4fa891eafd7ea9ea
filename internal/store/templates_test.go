package store

import (
	"context"
	"errors"
	"testing"
)

func TestSaveTemplate_UpsertsByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveTemplate(ctx, "weekly", "See you Friday!", "admin"); err != nil {
		t.Fatalf("save template: %v", err)
	}
	if err := s.SaveTemplate(ctx, "weekly", "See you Saturday!", "admin2"); err != nil {
		t.Fatalf("re-save template: %v", err)
	}

	tmpl, err := s.GetTemplate(ctx, "weekly")
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if tmpl.Content != "See you Saturday!" {
		t.Errorf("content = %q, want the replacement", tmpl.Content)
	}
	if tmpl.CreatedBy != "admin2" {
		t.Errorf("created by = %q, want admin2", tmpl.CreatedBy)
	}

	tmpls, err := s.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(tmpls) != 1 {
		t.Errorf("expected 1 template after upsert, got %d", len(tmpls))
	}
}

func TestSaveTemplate_RejectsEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveTemplate(ctx, "  ", "body", "admin"); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name: err = %v, want ErrValidation", err)
	}
	if err := s.SaveTemplate(ctx, "name", "  ", "admin"); !errors.Is(err, ErrValidation) {
		t.Errorf("empty content: err = %v, want ErrValidation", err)
	}
}

func TestDeleteTemplate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveTemplate(ctx, "gone", "body", "admin"); err != nil {
		t.Fatalf("save template: %v", err)
	}
	if err := s.DeleteTemplate(ctx, "gone"); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	if _, err := s.GetTemplate(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTemplate(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}
