package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/avelar/vidvault/internal/models"
	"github.com/avelar/vidvault/internal/session"
	"github.com/avelar/vidvault/internal/store"
)

// handleCommand dispatches a single-turn command. Commands that start a
// flow (upload, edit, broadcast) transition the session; the rest leave
// it untouched.
func (e *Engine) handleCommand(ctx context.Context, sess *session.Session, ev Event) []Action {
	switch ev.Command {
	case "start":
		return []Action{reply(ev.UserID, e.welcomeText(ev.UserID))}
	case "help":
		return []Action{reply(ev.UserID, e.helpText(ev.UserID))}
	case "upload":
		return e.startUpload(sess, ev)
	case "browse":
		return e.cmdBrowse(ctx, sess, ev)
	case "categories":
		return e.cmdCategories(ctx, sess, ev)
	case "recent":
		return e.cmdRecent(ctx, sess, ev)
	case "random":
		return e.cmdRandom(ctx, sess, ev)
	case "search", "find":
		return e.cmdSearch(ctx, sess, ev)
	case "get", "download":
		return e.cmdDownload(ctx, sess, ev)
	case "fav":
		return e.cmdFav(ctx, sess, ev)
	case "unfav":
		return e.cmdUnfav(ctx, sess, ev)
	case "favorites":
		return e.cmdFavorites(ctx, sess, ev)
	case "delete", "edit", "addcat", "rmcat", "stats", "analytics", "users",
		"ban", "unban", "banned", "template", "templates",
		"broadcast", "schedule", "broadcasts":
		return e.adminCommand(ctx, sess, ev)
	default:
		return []Action{reply(ev.UserID, fmt.Sprintf("Unknown command /%s. Send /help for the command list.", ev.Command))}
	}
}

// cmdBrowse lists categories with counts, or the videos in one category.
func (e *Engine) cmdBrowse(ctx context.Context, sess *session.Session, ev Event) []Action {
	if len(ev.Args) == 0 {
		counts, err := e.store.CategoryCounts(ctx)
		if err != nil {
			return []Action{e.storeFailure(sess, ev.UserID, "category counts", err)}
		}
		if len(counts) == 0 {
			return []Action{reply(ev.UserID, "No categories yet. Try /recent for the latest uploads.")}
		}
		return []Action{reply(ev.UserID, formatCategoryCounts(counts))}
	}

	name := strings.Join(ev.Args, " ")
	cat, err := e.store.GetCategoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Action{fail(ev.UserID, fmt.Sprintf("No category named %q. Send /browse to list categories.", name))}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "resolve category", err)}
	}

	videos, err := e.store.ListVideosByCategory(ctx, &cat.ID)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "list videos", err)}
	}
	if len(videos) == 0 {
		return []Action{reply(ev.UserID, fmt.Sprintf("No videos in %s yet.", cat.Name))}
	}
	return []Action{reply(ev.UserID, formatVideoTable(fmt.Sprintf("Videos in %s", cat.Name), videos))}
}

// cmdCategories lists category names.
func (e *Engine) cmdCategories(ctx context.Context, sess *session.Session, ev Event) []Action {
	cats, err := e.store.ListCategories(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "list categories", err)}
	}
	if len(cats) == 0 {
		return []Action{reply(ev.UserID, "No categories yet.")}
	}
	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s\n", c.Name)
	}
	return []Action{reply(ev.UserID, b.String())}
}

// cmdRecent shows the latest uploads.
func (e *Engine) cmdRecent(ctx context.Context, sess *session.Session, ev Event) []Action {
	videos, err := e.store.RecentVideos(ctx, 10)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "recent videos", err)}
	}
	if len(videos) == 0 {
		return []Action{reply(ev.UserID, "The library is empty. Be the first: /upload.")}
	}
	return []Action{reply(ev.UserID, formatVideoTable("Recent uploads", videos))}
}

// cmdRandom serves a random video and records a view.
func (e *Engine) cmdRandom(ctx context.Context, sess *session.Session, ev Event) []Action {
	video, err := e.store.RandomVideo(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Action{reply(ev.UserID, "The library is empty. Be the first: /upload.")}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "random video", err)}
	}

	e.recordEvent(ctx, ev.UserID, &video.ID, models.EventView)
	return []Action{media(ev.UserID, fmt.Sprintf("#%d %s", video.ID, video.Title), video.MediaRef)}
}

// cmdSearch matches titles and descriptions and records a search event.
func (e *Engine) cmdSearch(ctx context.Context, sess *session.Session, ev Event) []Action {
	query := strings.Join(ev.Args, " ")
	if strings.TrimSpace(query) == "" {
		return []Action{reply(ev.UserID, "Usage: /search <words>")}
	}

	e.recordEvent(ctx, ev.UserID, nil, models.EventSearch)

	videos, err := e.store.SearchVideos(ctx, query)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "search videos", err)}
	}
	if len(videos) == 0 {
		return []Action{reply(ev.UserID, fmt.Sprintf("No matches for %q.", query))}
	}
	return []Action{reply(ev.UserID, formatVideoTable(fmt.Sprintf("Matches for %q", query), videos))}
}

// cmdDownload serves a video by ID after a quota check, recording a
// download event. The check and the record are intentionally separate
// transactions (best-effort cap).
func (e *Engine) cmdDownload(ctx context.Context, sess *session.Session, ev Event) []Action {
	id, ok := parseVideoID(ev.Args)
	if !ok {
		return []Action{reply(ev.UserID, "Usage: /get <video id>")}
	}

	decision, err := e.policy.CheckDownloadQuota(ctx, ev.UserID)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "quota check", err)}
	}
	if !decision.Allowed {
		return []Action{fail(ev.UserID, fmt.Sprintf(
			"Download limit reached (%d of %d used). Try again in %s.",
			decision.Used, decision.Limit, humanDuration(decision.RetryAfter)))}
	}

	video, err := e.store.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Action{fail(ev.UserID, fmt.Sprintf("Video #%d was not found.", id))}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "get video", err)}
	}

	e.recordEvent(ctx, ev.UserID, &video.ID, models.EventDownload)
	return []Action{media(ev.UserID, fmt.Sprintf("#%d %s", video.ID, video.Title), video.MediaRef)}
}

// cmdFav adds a favorite; a duplicate pair reads as success to the user.
func (e *Engine) cmdFav(ctx context.Context, sess *session.Session, ev Event) []Action {
	id, ok := parseVideoID(ev.Args)
	if !ok {
		return []Action{reply(ev.UserID, "Usage: /fav <video id>")}
	}

	err := e.store.AddFavorite(ctx, ev.UserID, id)
	switch {
	case err == nil:
		return []Action{reply(ev.UserID, fmt.Sprintf("Added #%d to your favorites.", id))}
	case errors.Is(err, store.ErrConflict):
		return []Action{reply(ev.UserID, fmt.Sprintf("#%d is already in your favorites.", id))}
	case errors.Is(err, store.ErrNotFound):
		return []Action{fail(ev.UserID, fmt.Sprintf("Video #%d was not found.", id))}
	default:
		return []Action{e.storeFailure(sess, ev.UserID, "add favorite", err)}
	}
}

// cmdUnfav removes a favorite; removing a missing pair reads the same.
func (e *Engine) cmdUnfav(ctx context.Context, sess *session.Session, ev Event) []Action {
	id, ok := parseVideoID(ev.Args)
	if !ok {
		return []Action{reply(ev.UserID, "Usage: /unfav <video id>")}
	}
	if err := e.store.RemoveFavorite(ctx, ev.UserID, id); err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "remove favorite", err)}
	}
	return []Action{reply(ev.UserID, fmt.Sprintf("Removed #%d from your favorites.", id))}
}

// cmdFavorites lists the user's favorites.
func (e *Engine) cmdFavorites(ctx context.Context, sess *session.Session, ev Event) []Action {
	favs, err := e.store.ListFavorites(ctx, ev.UserID)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "list favorites", err)}
	}
	if len(favs) == 0 {
		return []Action{reply(ev.UserID, "You have no favorites yet. Use /fav <id> to add one.")}
	}
	return []Action{reply(ev.UserID, formatFavorites(favs))}
}

// recordEvent appends an analytics event. Failures are logged, never
// surfaced: analytics must not break user-facing flows.
func (e *Engine) recordEvent(ctx context.Context, userID string, videoID *uint, kind string) {
	if err := e.store.RecordEvent(ctx, userID, videoID, kind); err != nil {
		log.Printf("flow: record %s event for %s: %v", kind, userID, err)
	}
}

// parseVideoID extracts a positive numeric video ID from command args.
func parseVideoID(args []string) (uint, bool) {
	if len(args) == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(args[0], "#"), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (e *Engine) welcomeText(userID string) string {
	return "Welcome to the video library!\n" +
		"Upload videos, browse by category, and keep favorites.\n\n" + e.helpText(userID)
}

func (e *Engine) helpText(userID string) string {
	help := "Commands:\n" +
		"/upload - add a video (guided)\n" +
		"/browse [category] - browse the library\n" +
		"/recent - latest uploads\n" +
		"/random - a random video\n" +
		"/search <words> - find videos\n" +
		"/get <id> - download a video\n" +
		"/fav <id>, /unfav <id>, /favorites - manage favorites\n" +
		"/cancel - abort the current flow"
	if e.policy.IsAdmin(userID) {
		help += "\n\nAdmin:\n" +
			"/delete <id>, /edit <id> - manage videos\n" +
			"/addcat <name>, /rmcat <name> - manage categories\n" +
			"/ban <user> [reason], /unban <user>, /banned\n" +
			"/stats, /analytics, /users\n" +
			"/template save <name> <text>, /template rm <name>, /templates\n" +
			"/broadcast, /schedule <delay> <text>, /broadcasts"
	}
	return help
}
