package store

import (
	"context"
	"errors"
	"testing"

	"github.com/avelar/vidvault/internal/models"
)

func TestAddFavorite_RecordsAnalytics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	v := seedVideo(t, s, "Keeper", nil)

	if err := s.AddFavorite(ctx, "u1", v.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	var count int64
	s.db.Model(&models.AnalyticsEvent{}).
		Where("user_id = ? AND kind = ?", "u1", models.EventFavorite).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 favorite event, got %d", count)
	}
}

func TestAddFavorite_DuplicatePair(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	v := seedVideo(t, s, "Keeper", nil)

	if err := s.AddFavorite(ctx, "u1", v.ID); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := s.AddFavorite(ctx, "u1", v.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The duplicate attempt must not record a second analytics event.
	var count int64
	s.db.Model(&models.AnalyticsEvent{}).
		Where("user_id = ? AND kind = ?", "u1", models.EventFavorite).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 favorite event after duplicate, got %d", count)
	}
}

func TestAddFavorite_HiddenVideo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	v := seedVideo(t, s, "Hidden", nil)
	if err := s.SoftDeleteVideo(ctx, v.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if err := s.AddFavorite(ctx, "u1", v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for hidden video, got %v", err)
	}
}

func TestRemoveFavorite_MissingPairIsNoOp(t *testing.T) {
	s := openTestStore(t)
	if err := s.RemoveFavorite(context.Background(), "u1", 42); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestListFavorites_SkipsHiddenVideos(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	kept := seedVideo(t, s, "Kept", nil)
	hidden := seedVideo(t, s, "Hidden later", nil)
	if err := s.AddFavorite(ctx, "u1", kept.ID); err != nil {
		t.Fatalf("add kept: %v", err)
	}
	if err := s.AddFavorite(ctx, "u1", hidden.ID); err != nil {
		t.Fatalf("add hidden: %v", err)
	}
	if err := s.SoftDeleteVideo(ctx, hidden.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	favs, err := s.ListFavorites(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(favs) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(favs))
	}
	if favs[0].VideoID != kept.ID {
		t.Errorf("expected video %d, got %d", kept.ID, favs[0].VideoID)
	}
	if favs[0].Video.Title != "Kept" {
		t.Errorf("expected preloaded video, got %+v", favs[0].Video)
	}
}
