package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/avelar/vidvault/internal/models"
	"github.com/avelar/vidvault/internal/store"
)

// formatVideoTable formats videos as an aligned table under a heading.
func formatVideoTable(heading string, videos []models.Video) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s** (%d)\n", heading, len(videos)))
	b.WriteString(fmt.Sprintf("%-6s %-30s %s\n", "ID", "TITLE", "CATEGORY"))
	for _, v := range videos {
		category := "-"
		if v.Category != nil {
			category = v.Category.Name
		}
		b.WriteString(fmt.Sprintf("%-6s %-30s %s\n",
			fmt.Sprintf("#%d", v.ID), truncate(v.Title, 30), category))
	}
	b.WriteString("\nUse /get <id> to download.")
	return b.String()
}

// formatCategoryCounts formats categories with their video counts.
func formatCategoryCounts(counts []store.CategoryCount) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Categories** (%d)\n", len(counts)))
	b.WriteString(fmt.Sprintf("%-20s %s\n", "NAME", "VIDEOS"))
	for _, c := range counts {
		b.WriteString(fmt.Sprintf("%-20s %d\n", truncate(c.Name, 20), c.Count))
	}
	b.WriteString("\nUse /browse <category> to list its videos.")
	return b.String()
}

// formatFavorites formats a user's favorites list.
func formatFavorites(favs []models.Favorite) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Your favorites** (%d)\n", len(favs)))
	for _, f := range favs {
		title := f.Video.Title
		if f.Video.ID == 0 {
			title = "(unavailable)"
		}
		b.WriteString(fmt.Sprintf("#%d %s\n", f.VideoID, title))
	}
	b.WriteString("\nUse /get <id> to download, /unfav <id> to remove.")
	return b.String()
}

// formatAnalytics formats event totals and the most viewed videos.
func formatAnalytics(totals []store.KindCount, popular []store.VideoViewCount) string {
	var b strings.Builder
	b.WriteString("**Activity**\n")
	b.WriteString(fmt.Sprintf("%-12s %s\n", "EVENT", "COUNT"))
	for _, t := range totals {
		b.WriteString(fmt.Sprintf("%-12s %d\n", t.Kind, t.Count))
	}
	if len(popular) > 0 {
		b.WriteString("\n**Most viewed**\n")
		for _, p := range popular {
			b.WriteString(fmt.Sprintf("#%d %s (%d views)\n", p.VideoID, truncate(p.Title, 30), p.Views))
		}
	}
	return b.String()
}

// formatUsers formats the registry summary with recently seen users.
func formatUsers(total int64, active []models.User) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Users** (%d total, %d seen this week)\n", total, len(active)))
	if len(active) > 0 {
		b.WriteString(fmt.Sprintf("%-16s %-16s %s\n", "ID", "USERNAME", "LAST SEEN"))
		for _, u := range active {
			username := u.Username
			if username == "" {
				username = "-"
			}
			b.WriteString(fmt.Sprintf("%-16s %-16s %s\n",
				truncate(u.ID, 16), truncate(username, 16), u.LastSeen.Format("2006-01-02 15:04")))
		}
	}
	return b.String()
}

// formatBans formats active bans.
func formatBans(bans []models.Ban) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Banned users** (%d)\n", len(bans)))
	b.WriteString(fmt.Sprintf("%-16s %-16s %s\n", "ID", "BANNED BY", "REASON"))
	for _, ban := range bans {
		reason := ban.Reason
		if reason == "" {
			reason = "-"
		}
		b.WriteString(fmt.Sprintf("%-16s %-16s %s\n",
			truncate(ban.UserID, 16), truncate(ban.BannedBy, 16), truncate(reason, 40)))
	}
	return b.String()
}

// formatTemplates formats saved broadcast templates.
func formatTemplates(tmpls []models.Template) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Templates** (%d)\n", len(tmpls)))
	for _, t := range tmpls {
		b.WriteString(fmt.Sprintf("%-16s %s\n", truncate(t.Name, 16), truncate(t.Content, 50)))
	}
	return b.String()
}

// formatBroadcasts formats broadcasts with their delivery status.
func formatBroadcasts(bcs []models.Broadcast) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Broadcasts** (%d)\n", len(bcs)))
	b.WriteString(fmt.Sprintf("%-5s %-10s %-17s %s\n", "ID", "STATUS", "SCHEDULED", "CONTENT"))
	for _, bc := range bcs {
		content := bc.Content
		if content == "" {
			content = "(media only)"
		}
		b.WriteString(fmt.Sprintf("%-5d %-10s %-17s %s\n",
			bc.ID, bc.Status, bc.ScheduledAt.Format("2006-01-02 15:04"), truncate(content, 40)))
	}
	return b.String()
}

// truncate shortens s to max characters with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// humanDuration renders a duration for user-facing messages, rounded
// to the nearest minute and never below one minute.
func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "1m"
	}
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h > 0 && m > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", m)
}
