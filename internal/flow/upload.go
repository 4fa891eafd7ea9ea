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

// startUpload begins the multi-turn upload flow.
func (e *Engine) startUpload(sess *session.Session, ev Event) []Action {
	sess.State = session.AwaitingUploadMedia
	sess.Fields = map[string]string{}
	return []Action{prompt(ev.UserID, "Send the video you want to add, or /cancel.")}
}

// uploadMediaTurn handles AwaitingUploadMedia: only a media event
// advances; anything else re-prompts and stays put.
func (e *Engine) uploadMediaTurn(sess *session.Session, ev Event) []Action {
	if ev.Kind != EventMedia || ev.MediaRef == "" {
		return []Action{prompt(ev.UserID, "That's not a video. Send a video file, or /cancel.")}
	}
	sess.Fields[fieldMediaRef] = ev.MediaRef
	sess.State = session.AwaitingUploadTitle
	return []Action{prompt(ev.UserID, "Got it. What should the title be?")}
}

// uploadTitleTurn handles AwaitingUploadTitle: a non-blank text advances
// to category selection.
func (e *Engine) uploadTitleTurn(ctx context.Context, sess *session.Session, ev Event) []Action {
	if ev.Kind != EventText || strings.TrimSpace(ev.Text) == "" {
		return []Action{prompt(ev.UserID, "The title can't be empty. What should the title be?")}
	}
	sess.Fields[fieldTitle] = strings.TrimSpace(ev.Text)
	sess.State = session.AwaitingUploadCategory

	cats, err := e.store.ListCategories(ctx)
	if err != nil {
		return []Action{e.storeFailure(sess, ev.UserID, "list categories", err)}
	}

	var b strings.Builder
	b.WriteString("Pick a category, or reply 'skip':\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s\n", c.Name)
	}
	return []Action{prompt(ev.UserID, b.String())}
}

// uploadCategoryTurn handles AwaitingUploadCategory: commits the video
// in one transaction and returns to Idle on both success and failure.
func (e *Engine) uploadCategoryTurn(ctx context.Context, sess *session.Session, ev Event) []Action {
	choice := ev.Data
	if choice == "" {
		choice = ev.Text
	}
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return []Action{prompt(ev.UserID, "Reply with a category name, or 'skip'.")}
	}

	var categoryID *uint
	if !strings.EqualFold(choice, "skip") && !strings.EqualFold(choice, "none") {
		cat, err := e.store.GetCategoryByName(ctx, choice)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				sess.Reset(time.Now())
				return []Action{fail(ev.UserID, fmt.Sprintf("Upload failed: no category named %q. Start over with /upload.", choice))}
			}
			return []Action{e.storeFailure(sess, ev.UserID, "resolve category", err)}
		}
		categoryID = &cat.ID
	}

	video, err := e.store.CreateVideo(ctx, store.CreateVideoOpts{
		MediaRef:   sess.Fields[fieldMediaRef],
		Title:      sess.Fields[fieldTitle],
		CategoryID: categoryID,
		UploadedBy: ev.UserID,
	})
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			sess.Reset(time.Now())
			return []Action{fail(ev.UserID, "Upload failed: the video details were invalid. Start over with /upload.")}
		}
		return []Action{e.storeFailure(sess, ev.UserID, "create video", err)}
	}

	sess.Reset(time.Now())
	return []Action{reply(ev.UserID, fmt.Sprintf("Added %q to the library as #%d.", video.Title, video.ID))}
}
