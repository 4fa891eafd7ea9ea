package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/avelar/vidvault/internal/policy"
	"github.com/avelar/vidvault/internal/session"
	"github.com/avelar/vidvault/internal/store"
)

// Session field keys for in-progress flows.
const (
	fieldMediaRef = "media_ref"
	fieldTitle    = "title"
	fieldVideoID  = "video_id"
	fieldContent  = "content"
)

// Engine interprets inbound events against each user's session state.
type Engine struct {
	store    *store.Store
	sessions *session.Store
	policy   *policy.Policy
}

// Opts holds parameters for creating an Engine.
type Opts struct {
	Store    *store.Store
	Sessions *session.Store
	Policy   *policy.Policy
}

// New creates an Engine.
func New(opts Opts) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("flow: store is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("flow: session store is required")
	}
	if opts.Policy == nil {
		return nil, fmt.Errorf("flow: policy is required")
	}
	return &Engine{
		store:    opts.Store,
		sessions: opts.Sessions,
		policy:   opts.Policy,
	}, nil
}

// Handle processes one inbound turn and returns the outbound actions.
// Turns for the same user are serialized by the session store; store
// failures surface as an error action and reset the session to Idle,
// never leaving a flow stuck.
func (e *Engine) Handle(ctx context.Context, ev Event) []Action {
	// Registry upkeep is best-effort; a failed upsert must not block the turn.
	if err := e.store.UpsertUser(ctx, ev.UserID, ev.Username, ev.FirstName); err != nil {
		log.Printf("flow: upsert user %s: %v", ev.UserID, err)
	}

	banned, err := e.store.IsBanned(ctx, ev.UserID)
	if err != nil {
		log.Printf("flow: ban check %s: %v", ev.UserID, err)
		return []Action{fail(ev.UserID, "Something went wrong. Please try again.")}
	}
	if banned {
		return []Action{fail(ev.UserID, "You are banned from using this bot.")}
	}

	var actions []Action
	e.sessions.Do(ev.UserID, func(sess *session.Session) {
		now := time.Now()

		// Lazy expiry: a stale flow is reset the moment the user is seen
		// again, with a notification instead of continuing mid-flow.
		if sess.Expired(e.sessions.IdleTimeout(), now) {
			sess.Reset(now)
			sess.ExpiryPending = false
			actions = append(actions, fail(ev.UserID, "Your previous flow expired. Please start again."))
		} else if sess.ExpiryPending {
			sess.ExpiryPending = false
			actions = append(actions, fail(ev.UserID, "Your previous flow expired. Please start again."))
		}
		sess.LastActivity = now

		// Cancel is honored in every state and discards partial fields.
		if ev.Kind == EventCommand && ev.Command == "cancel" {
			wasIdle := sess.State == session.Idle
			sess.Reset(now)
			if wasIdle {
				actions = append(actions, reply(ev.UserID, "Nothing to cancel."))
			} else {
				actions = append(actions, reply(ev.UserID, "Cancelled."))
			}
			return
		}

		// Single-turn commands (browse, download, favorites, admin ops)
		// work regardless of the current flow state.
		if ev.Kind == EventCommand {
			actions = append(actions, e.handleCommand(ctx, sess, ev)...)
			return
		}

		// Everything else is flow input interpreted by the current state.
		switch sess.State {
		case session.AwaitingUploadMedia:
			actions = append(actions, e.uploadMediaTurn(sess, ev)...)
		case session.AwaitingUploadTitle:
			actions = append(actions, e.uploadTitleTurn(ctx, sess, ev)...)
		case session.AwaitingUploadCategory:
			actions = append(actions, e.uploadCategoryTurn(ctx, sess, ev)...)
		case session.AwaitingEditField:
			actions = append(actions, e.editFieldTurn(ctx, sess, ev)...)
		case session.AwaitingBroadcastText:
			actions = append(actions, e.broadcastTextTurn(sess, ev)...)
		case session.AwaitingBroadcastSendOK:
			actions = append(actions, e.broadcastConfirmTurn(ctx, sess, ev)...)
		default:
			actions = append(actions, reply(ev.UserID, "Send /help to see what I can do."))
		}
	})
	return actions
}

// storeFailure logs the raw error for operators, resets the session and
// returns an actionable user-facing message. Raw error detail never
// reaches the user.
func (e *Engine) storeFailure(sess *session.Session, userID, op string, err error) Action {
	log.Printf("flow: %s for %s: %v", op, userID, err)
	sess.Reset(time.Now())

	switch {
	case errors.Is(err, store.ErrTimeout):
		return fail(userID, "The library is busy right now. Please try again in a moment.")
	case errors.Is(err, store.ErrNotFound):
		return fail(userID, "That item could not be found.")
	default:
		return fail(userID, "Something went wrong. Please try again.")
	}
}
