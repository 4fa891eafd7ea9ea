package flow

import (
	"strings"
	"testing"
	"time"

	"github.com/avelar/vidvault/internal/models"
)

func TestFormatVideoTable(t *testing.T) {
	videos := []models.Video{
		{ID: 1, Title: "Short title", Category: &models.Category{Name: "Music"}},
		{ID: 2, Title: strings.Repeat("x", 40)},
	}

	out := formatVideoTable("Recent uploads", videos)

	if !strings.Contains(out, "**Recent uploads** (2)") {
		t.Errorf("expected heading with count, got:\n%s", out)
	}
	if !strings.Contains(out, "#1") || !strings.Contains(out, "Music") {
		t.Errorf("expected categorized row, got:\n%s", out)
	}
	// Uncategorized videos show a dash, long titles an ellipsis.
	if !strings.Contains(out, "...") {
		t.Errorf("expected truncated title, got:\n%s", out)
	}
	if !strings.Contains(out, "Use /get <id> to download.") {
		t.Errorf("expected footer, got:\n%s", out)
	}
}

func TestFormatFavorites_MissingVideo(t *testing.T) {
	favs := []models.Favorite{
		{VideoID: 1, Video: models.Video{ID: 1, Title: "Still here"}},
		{VideoID: 2},
	}

	out := formatFavorites(favs)
	if !strings.Contains(out, "#1 Still here") {
		t.Errorf("expected titled favorite, got:\n%s", out)
	}
	if !strings.Contains(out, "#2 (unavailable)") {
		t.Errorf("expected placeholder for missing video, got:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"much too long to fit", 10, "much to..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "1m"},
		{5 * time.Minute, "5m"},
		{time.Hour, "1h"},
		{90 * time.Minute, "1h30m"},
		{24 * time.Hour, "24h"},
	}
	for _, tt := range tests {
		if got := humanDuration(tt.in); got != tt.want {
			t.Errorf("humanDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
