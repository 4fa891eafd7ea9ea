package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avelar/vidvault/internal/session"
	"github.com/avelar/vidvault/internal/store"
)

// adminCommand guards and dispatches the admin-only commands.
func (e *Engine) adminCommand(ctx context.Context, sess *session.Session, ev Event) []Action {
	if !e.policy.IsAdmin(ev.UserID) {
		return []Action{fail(ev.UserID, "This command requires admin access.")}
	}

	switch ev.Command {
	case "delete":
		return e.cmdDelete(ctx, sess, ev)
	case "edit":
		return e.cmdEdit(ctx, sess, ev)
	case "addcat":
		return e.cmdAddCategory(ctx, sess, ev)
	case "rmcat":
		return e.cmdRemoveCategory(ctx, sess, ev)
	case "stats":
		return e.cmdStats(ctx, sess, ev)
	case "analytics":
		return e.cmdAnalytics(ctx, sess, ev)
	case "users":
		return e.cmdUsers(ctx, sess, ev)
	case "ban":
		return e.cmdBan(ctx, sess, ev)
	case "unban":
		return e.cmdUnban(ctx, sess, ev)
	case "banned":
		return e.cmdBanned(ctx, sess, ev)
	case "template":
		return e.cmdTemplate(ctx, sess, ev)
	case "templates":
		return e.cmdTemplates(ctx, sess, ev)
	case "broadcast":
		return e.startBroadcast(sess, ev)
	case "schedule":
		return e.cmdSchedule(ctx, sess, ev)
	case "broadcasts":
		return e.cmdBroadcasts(ctx, sess, ev)
	default:
		return []Action{reply(ev.UserID, "Send /help for the command list.")}
	}
}

// cmdDelete hides a video from the library. The row and its analytics
// survive.
func (e *Engine) cmdDelete(ctx context.Context, sess *session.Session, ev Event) []Action {
	id, ok := parseVideoID(ev.Args)
	if !ok {
		return []Action{reply(ev.UserID, "Usage: /delete <video id>")}
	}

	err := e.store.SoftDeleteVideo(ctx, id)
	switch {
	case err == nil:
		return []Action{reply(ev.UserID, fmt.Sprintf("Video #%d removed from the library.", id))}
	case errors.Is(err, store.ErrNotFound):
		return []Action{fail(ev.UserID, fmt.Sprintf("Video #%d was not found.", id))}
	default:
		return []Action{e.storeFailure(sess, ev.UserID, "delete video", err)}
	}
}

// cmdEdit starts the single-turn metadata edit flow.
func (e *Engine) cmdEdit(ctx context.Context, sess *session.Session, ev Event) []Action {
	id, ok := parseVideoID(ev.Args)
	if !ok {
		return []Action{reply(ev.UserID, "Usage: /edit <video id>")}
	}

	video, err := e.store.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Action{fail(ev.UserID, fmt.Sprintf("Video #%d was not found.", id))}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "get video", err)}
	}

	sess.State = session.AwaitingEditField
	sess.Fields = map[string]string{fieldVideoID: fmt.Sprintf("%d", video.ID)}
	return []Action{prompt(ev.UserID, fmt.Sprintf(
		"Editing #%d %q. Reply with one of:\n"+
			"title <new title>\n"+
			"desc <new description>\n"+
			"category <name or 'none'>\n"+
			"or /cancel.", video.ID, video.Title))}
}

// editFieldTurn handles AwaitingEditField: one reply names the field
// and the new value. The media reference is never editable.
func (e *Engine) editFieldTurn(ctx context.Context, sess *session.Session, ev Event) []Action {
	if ev.Kind != EventText {
		return []Action{prompt(ev.UserID, "Reply with 'title ...', 'desc ...' or 'category ...', or /cancel.")}
	}

	id, ok := parseVideoID([]string{sess.Fields[fieldVideoID]})
	if !ok {
		sess.Reset(time.Now())
		return []Action{fail(ev.UserID, "The edit flow lost track of the video. Start over with /edit.")}
	}

	field, value, _ := strings.Cut(strings.TrimSpace(ev.Text), " ")
	value = strings.TrimSpace(value)

	var upd store.VideoUpdate
	switch strings.ToLower(field) {
	case "title":
		if value == "" {
			return []Action{prompt(ev.UserID, "The title can't be empty. Reply 'title <new title>'.")}
		}
		upd.Title = &value
	case "desc", "description":
		upd.Description = &value
	case "category":
		if value == "" {
			return []Action{prompt(ev.UserID, "Reply 'category <name>' or 'category none'.")}
		}
		if strings.EqualFold(value, "none") {
			upd.ClearCategory = true
		} else {
			cat, err := e.store.GetCategoryByName(ctx, value)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return []Action{prompt(ev.UserID, fmt.Sprintf("No category named %q. Try again, or /cancel.", value))}
				}
				return []Action{e.storeFailure(sess, ev.UserID, "resolve category", err)}
			}
			upd.CategoryID = &cat.ID
		}
	default:
		return []Action{prompt(ev.UserID, "Reply with 'title ...', 'desc ...' or 'category ...', or /cancel.")}
	}

	if err := e.store.UpdateVideoMetadata(ctx, id, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sess.Reset(time.Now())
			return []Action{fail(ev.UserID, fmt.Sprintf("Video #%d was not found.", id))}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "update video", err)}
	}

	sess.Reset(time.Now())
	return []Action{reply(ev.UserID, fmt.Sprintf("Video #%d updated.", id))}
}

// cmdAddCategory creates a category.
func (e *Engine) cmdAddCategory(ctx context.Context, sess *session.Session, ev Event) []Action {
	name := strings.Join(ev.Args, " ")
	if strings.TrimSpace(name) == "" {
		return []Action{reply(ev.UserID, "Usage: /addcat <name>")}
	}

	cat, err := e.store.CreateCategory(ctx, name)
	switch {
	case err == nil:
		return []Action{reply(ev.UserID, fmt.Sprintf("Category %q created.", cat.Name))}
	case errors.Is(err, store.ErrConflict):
		return []Action{fail(ev.UserID, fmt.Sprintf("A category named %q already exists.", name))}
	case errors.Is(err, store.ErrValidation):
		return []Action{fail(ev.UserID, "That category name is invalid.")}
	default:
		return []Action{e.storeFailure(sess, ev.UserID, "create category", err)}
	}
}

// cmdRemoveCategory deletes a category; its videos become
// uncategorized rather than disappearing.
func (e *Engine) cmdRemoveCategory(ctx context.Context, sess *session.Session, ev Event) []Action {
	name := strings.Join(ev.Args, " ")
	if strings.TrimSpace(name) == "" {
		return []Action{reply(ev.UserID, "Usage: /rmcat <name>")}
	}

	cat, err := e.store.GetCategoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Action{fail(ev.UserID, fmt.Sprintf("No category named %q.", name))}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "resolve category", err)}
	}

	if err := e.store.DeleteCategory(ctx, cat.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Action{fail(ev.UserID, fmt.Sprintf("No category named %q.", name))}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "delete category", err)}
	}
	return []Action{reply(ev.UserID, fmt.Sprintf("Category %q deleted. Its videos are now uncategorized.", cat.Name))}
}

// cmdStats reports library totals.
func (e *Engine) cmdStats(ctx context.Context, sess *session.Session, ev Event) []Action {
	videos, err := e.store.CountVideos(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "count videos", err)}
	}
	users, err := e.store.CountUsers(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "count users", err)}
	}
	counts, err := e.store.CategoryCounts(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "category counts", err)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Library stats:\nVideos: %d\nUsers: %d\n", videos, users)
	if len(counts) > 0 {
		b.WriteString("\n")
		b.WriteString(formatCategoryCounts(counts))
	}
	return []Action{reply(ev.UserID, b.String())}
}

// cmdAnalytics reports event totals and the most viewed videos.
func (e *Engine) cmdAnalytics(ctx context.Context, sess *session.Session, ev Event) []Action {
	totals, err := e.store.EventTotals(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "event totals", err)}
	}
	popular, err := e.store.PopularVideos(ctx, 5)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "popular videos", err)}
	}
	if len(totals) == 0 {
		return []Action{reply(ev.UserID, "No activity recorded yet.")}
	}
	return []Action{reply(ev.UserID, formatAnalytics(totals, popular))}
}

// cmdUsers reports recent activity from the user registry.
func (e *Engine) cmdUsers(ctx context.Context, sess *session.Session, ev Event) []Action {
	total, err := e.store.CountUsers(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "count users", err)}
	}
	active, err := e.store.ListActiveUsers(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "list active users", err)}
	}
	return []Action{reply(ev.UserID, formatUsers(total, active))}
}

// cmdBan blocks a user from the bot.
func (e *Engine) cmdBan(ctx context.Context, sess *session.Session, ev Event) []Action {
	if len(ev.Args) == 0 {
		return []Action{reply(ev.UserID, "Usage: /ban <user id> [reason]")}
	}
	target := ev.Args[0]
	if target == ev.UserID {
		return []Action{fail(ev.UserID, "You can't ban yourself.")}
	}
	reason := strings.Join(ev.Args[1:], " ")

	if err := e.store.BanUser(ctx, target, ev.UserID, reason); err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "ban user", err)}
	}
	return []Action{reply(ev.UserID, fmt.Sprintf("User %s is banned.", target))}
}

// cmdUnban lifts a ban; lifting a nonexistent ban reads the same.
func (e *Engine) cmdUnban(ctx context.Context, sess *session.Session, ev Event) []Action {
	if len(ev.Args) == 0 {
		return []Action{reply(ev.UserID, "Usage: /unban <user id>")}
	}
	target := ev.Args[0]
	if err := e.store.UnbanUser(ctx, target); err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "unban user", err)}
	}
	return []Action{reply(ev.UserID, fmt.Sprintf("User %s is no longer banned.", target))}
}

// cmdBanned lists active bans.
func (e *Engine) cmdBanned(ctx context.Context, sess *session.Session, ev Event) []Action {
	bans, err := e.store.ListBans(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "list bans", err)}
	}
	if len(bans) == 0 {
		return []Action{reply(ev.UserID, "No users are banned.")}
	}
	return []Action{reply(ev.UserID, formatBans(bans))}
}

// cmdTemplate manages named broadcast templates: save and rm.
func (e *Engine) cmdTemplate(ctx context.Context, sess *session.Session, ev Event) []Action {
	const usage = "Usage: /template save <name> <text> | /template rm <name>"
	if len(ev.Args) < 2 {
		return []Action{reply(ev.UserID, usage)}
	}

	switch ev.Args[0] {
	case "save":
		if len(ev.Args) < 3 {
			return []Action{reply(ev.UserID, usage)}
		}
		name := ev.Args[1]
		content := strings.Join(ev.Args[2:], " ")
		err := e.store.SaveTemplate(ctx, name, content, ev.UserID)
		switch {
		case err == nil:
			return []Action{reply(ev.UserID, fmt.Sprintf("Template %q saved.", name))}
		case errors.Is(err, store.ErrValidation):
			return []Action{fail(ev.UserID, "The template name and text can't be empty.")}
		default:
			return []Action{e.storeFailure(sess, ev.UserID, "save template", err)}
		}
	case "rm":
		name := ev.Args[1]
		err := e.store.DeleteTemplate(ctx, name)
		switch {
		case err == nil:
			return []Action{reply(ev.UserID, fmt.Sprintf("Template %q deleted.", name))}
		case errors.Is(err, store.ErrNotFound):
			return []Action{fail(ev.UserID, fmt.Sprintf("No template named %q.", name))}
		default:
			return []Action{e.storeFailure(sess, ev.UserID, "delete template", err)}
		}
	default:
		return []Action{reply(ev.UserID, usage)}
	}
}

// cmdTemplates lists saved templates.
func (e *Engine) cmdTemplates(ctx context.Context, sess *session.Session, ev Event) []Action {
	tmpls, err := e.store.ListTemplates(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "list templates", err)}
	}
	if len(tmpls) == 0 {
		return []Action{reply(ev.UserID, "No templates saved. Use /template save <name> <text>.")}
	}
	return []Action{reply(ev.UserID, formatTemplates(tmpls))}
}

// startBroadcast begins the guided broadcast flow.
func (e *Engine) startBroadcast(sess *session.Session, ev Event) []Action {
	sess.State = session.AwaitingBroadcastText
	sess.Fields = map[string]string{}
	return []Action{prompt(ev.UserID, "Send the announcement text or media, or /cancel.")}
}

// broadcastTextTurn handles AwaitingBroadcastText: captures the content
// and asks for confirmation.
func (e *Engine) broadcastTextTurn(sess *session.Session, ev Event) []Action {
	switch {
	case ev.Kind == EventMedia && ev.MediaRef != "":
		sess.Fields[fieldMediaRef] = ev.MediaRef
		sess.Fields[fieldContent] = strings.TrimSpace(ev.Text)
	case ev.Kind == EventText && strings.TrimSpace(ev.Text) != "":
		sess.Fields[fieldContent] = strings.TrimSpace(ev.Text)
	default:
		return []Action{prompt(ev.UserID, "The announcement can't be empty. Send text or media, or /cancel.")}
	}

	sess.State = session.AwaitingBroadcastSendOK
	preview := sess.Fields[fieldContent]
	if preview == "" {
		preview = "(media only)"
	}
	return []Action{prompt(ev.UserID, fmt.Sprintf(
		"Send this to all active users?\n\n%s\n\nReply 'yes' to send, 'no' to discard.", preview))}
}

// broadcastConfirmTurn handles AwaitingBroadcastSendOK: yes queues the
// broadcast for immediate delivery, no discards it.
func (e *Engine) broadcastConfirmTurn(ctx context.Context, sess *session.Session, ev Event) []Action {
	answer := strings.ToLower(strings.TrimSpace(ev.Text))
	if ev.Kind == EventCallback {
		answer = strings.ToLower(strings.TrimSpace(ev.Data))
	}

	switch answer {
	case "yes", "y":
		bc, err := e.store.ScheduleBroadcast(ctx, ev.UserID,
			sess.Fields[fieldContent], sess.Fields[fieldMediaRef], time.Now())
		if err != nil {
			return []Action{e.storeFailure(sess, ev.UserID, "schedule broadcast", err)}
		}
		sess.Reset(time.Now())
		return []Action{reply(ev.UserID, fmt.Sprintf("Broadcast #%d queued for delivery.", bc.ID))}
	case "no", "n":
		sess.Reset(time.Now())
		return []Action{reply(ev.UserID, "Broadcast discarded.")}
	default:
		return []Action{prompt(ev.UserID, "Reply 'yes' to send or 'no' to discard.")}
	}
}

// cmdSchedule queues a broadcast for later, from literal text or a
// saved template: /schedule 2h template weekly, /schedule 30m Some text.
func (e *Engine) cmdSchedule(ctx context.Context, sess *session.Session, ev Event) []Action {
	const usage = "Usage: /schedule <delay> <text> | /schedule <delay> template <name>"
	if len(ev.Args) < 2 {
		return []Action{reply(ev.UserID, usage)}
	}

	delay, err := time.ParseDuration(ev.Args[0])
	if err != nil || delay <= 0 {
		return []Action{fail(ev.UserID, "The delay must be a positive duration like 30m or 2h.")}
	}

	var content string
	if strings.EqualFold(ev.Args[1], "template") {
		if len(ev.Args) < 3 {
			return []Action{reply(ev.UserID, usage)}
		}
		tmpl, err := e.store.GetTemplate(ctx, ev.Args[2])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return []Action{fail(ev.UserID, fmt.Sprintf("No template named %q.", ev.Args[2]))}
			}
			return []Action{e.storeFailure(sess, ev.UserID, "get template", err)}
		}
		content = tmpl.Content
	} else {
		content = strings.Join(ev.Args[1:], " ")
	}

	at := time.Now().Add(delay)
	bc, err := e.store.ScheduleBroadcast(ctx, ev.UserID, content, "", at)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			return []Action{fail(ev.UserID, "The announcement can't be empty.")}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "schedule broadcast", err)}
	}
	return []Action{reply(ev.UserID, fmt.Sprintf(
		"Broadcast #%d scheduled for %s.", bc.ID, at.Format("2006-01-02 15:04 MST")))}
}

// cmdBroadcasts lists recent broadcasts and their delivery status.
func (e *Engine) cmdBroadcasts(ctx context.Context, sess *session.Session, ev Event) []Action {
	bcs, err := e.store.ListBroadcasts(ctx, "", 10)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "list broadcasts", err)}
	}
	if len(bcs) == 0 {
		return []Action{reply(ev.UserID, "No broadcasts yet. Use /broadcast or /schedule.")}
	}
	return []Action{reply(ev.UserID, formatBroadcasts(bcs))}
}
