// Package policy resolves roles and download quotas for the
// conversation engine.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/avelar/vidvault/internal/models"
	"github.com/avelar/vidvault/internal/store"
)

// Decision is the outcome of a quota check. When Allowed is false,
// RetryAfter says how long until the oldest counted download leaves the
// window.
type Decision struct {
	Allowed    bool
	Used       int
	Limit      int
	RetryAfter time.Duration
}

// Opts holds parameters for creating a Policy.
type Opts struct {
	Store        *store.Store
	Admins       []string
	Window       time.Duration // quota window size
	MaxDownloads int           // downloads allowed per window
	ExemptAdmins bool          // admins bypass the quota
}

// Policy answers role and quota questions. The admin set is injected at
// process start; it is never read from the database.
type Policy struct {
	store        *store.Store
	admins       map[string]struct{}
	window       time.Duration
	maxDownloads int
	exemptAdmins bool
}

// New creates a Policy.
func New(opts Opts) (*Policy, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("policy: store is required")
	}
	if opts.Window <= 0 {
		return nil, fmt.Errorf("policy: window must be positive")
	}
	if opts.MaxDownloads <= 0 {
		return nil, fmt.Errorf("policy: max downloads must be positive")
	}

	admins := make(map[string]struct{}, len(opts.Admins))
	for _, a := range opts.Admins {
		admins[a] = struct{}{}
	}
	return &Policy{
		store:        opts.Store,
		admins:       admins,
		window:       opts.Window,
		maxDownloads: opts.MaxDownloads,
		exemptAdmins: opts.ExemptAdmins,
	}, nil
}

// IsAdmin reports whether the user is in the configured admin set.
func (p *Policy) IsAdmin(userID string) bool {
	_, ok := p.admins[userID]
	return ok
}

// CheckDownloadQuota counts the user's download events in the sliding
// window ending now. The check and the subsequent download recording
// are separate transactions, so two near-simultaneous requests can both
// pass; the quota is a best-effort cap, not a hard limiter.
func (p *Policy) CheckDownloadQuota(ctx context.Context, userID string) (Decision, error) {
	if p.exemptAdmins && p.IsAdmin(userID) {
		return Decision{Allowed: true, Limit: p.maxDownloads}, nil
	}

	now := time.Now()
	wc, err := p.store.CountEventsSince(ctx, userID, models.EventDownload, now.Add(-p.window))
	if err != nil {
		return Decision{}, fmt.Errorf("policy: download quota: %w", err)
	}

	d := Decision{
		Used:  int(wc.Count),
		Limit: p.maxDownloads,
	}
	if wc.Count < int64(p.maxDownloads) {
		d.Allowed = true
		return d, nil
	}

	retry := wc.Oldest.Add(p.window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	d.RetryAfter = retry
	return d, nil
}
