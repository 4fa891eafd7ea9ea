// Package session holds per-user conversation state in memory. Sessions
// are deliberately volatile: a restart drops every in-progress flow and
// users simply start over.
package session

import (
	"sync"
	"time"
)

// State is a conversation engine state.
type State string

// Conversation states. Idle is initial; every flow returns to Idle on
// success, cancellation or timeout.
const (
	Idle                    State = "idle"
	AwaitingUploadMedia     State = "awaiting_upload_media"
	AwaitingUploadTitle     State = "awaiting_upload_title"
	AwaitingUploadCategory  State = "awaiting_upload_category"
	AwaitingEditField       State = "awaiting_edit_field"
	AwaitingBroadcastText   State = "awaiting_broadcast_text"
	AwaitingBroadcastSendOK State = "awaiting_broadcast_send_ok"
)

// DefaultIdleTimeout resets abandoned flows when no turn arrives.
const DefaultIdleTimeout = 10 * time.Minute

// Session is one user's conversation state plus the partially collected
// fields of the active flow. All access must go through Store.Do, which
// serializes turns for the same user.
type Session struct {
	mu sync.Mutex

	UserID       string
	State        State
	Fields       map[string]string
	LastActivity time.Time

	// ExpiryPending marks a flow that the sweep reset while the user was
	// away. The engine turns it into a "flow expired" notification on the
	// user's next turn, then clears it.
	ExpiryPending bool
}

// Reset returns the session to Idle and discards partial fields.
// Callers must hold the session (via Store.Do).
func (s *Session) Reset(now time.Time) {
	s.State = Idle
	s.Fields = make(map[string]string)
	s.LastActivity = now
}

// Expired reports whether a non-idle flow has outlived the idle timeout.
func (s *Session) Expired(timeout time.Duration, now time.Time) bool {
	return s.State != Idle && now.Sub(s.LastActivity) > timeout
}

// Store is the in-memory session registry keyed by user identity.
// The registry lock guards the map only; each session's own lock
// serializes turns per user, so distinct users never block each other.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
}

// NewStore creates a session Store. A non-positive timeout falls back
// to DefaultIdleTimeout.
func NewStore(idleTimeout time.Duration) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Store{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
	}
}

// IdleTimeout returns the configured idle timeout.
func (st *Store) IdleTimeout() time.Duration {
	return st.idleTimeout
}

// getOrCreate returns the session for a user, creating an idle one on
// first contact.
func (st *Store) getOrCreate(userID string) *Session {
	st.mu.RLock()
	sess, ok := st.sessions[userID]
	st.mu.RUnlock()
	if ok {
		return sess
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok = st.sessions[userID]; ok {
		return sess
	}
	sess = &Session{
		UserID:       userID,
		State:        Idle,
		Fields:       make(map[string]string),
		LastActivity: time.Now(),
	}
	st.sessions[userID] = sess
	return sess
}

// Do runs fn with exclusive access to the user's session. Turns for the
// same user are serialized here; turns for different users proceed in
// parallel.
func (st *Store) Do(userID string, fn func(*Session)) {
	sess := st.getOrCreate(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
}

// Snapshot returns a copy of the user's current state and fields, for
// tests and diagnostics.
func (st *Store) Snapshot(userID string) (State, map[string]string) {
	var state State
	fields := make(map[string]string)
	st.Do(userID, func(sess *Session) {
		state = sess.State
		for k, v := range sess.Fields {
			fields[k] = v
		}
	})
	return state, fields
}

// ExpireIdle sweeps every session whose last activity predates the idle
// timeout, resetting stale flows to Idle and dropping long-idle
// sessions from the registry. Returns the number of flows reset.
//
// Sessions mid-turn are skipped rather than waited on: a turn holding
// the session lock is about to refresh LastActivity anyway, and
// blocking here would stall the registry for every other user.
func (st *Store) ExpireIdle(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	reset := 0
	for userID, sess := range st.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.Expired(st.idleTimeout, now) {
			sess.Reset(now)
			sess.ExpiryPending = true
			reset++
		}
		// Idle sessions with no recent activity carry no state worth
		// keeping; drop them so the registry doesn't grow unbounded.
		if sess.State == Idle && now.Sub(sess.LastActivity) > st.idleTimeout {
			delete(st.sessions, userID)
		}
		sess.mu.Unlock()
	}
	return reset
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
