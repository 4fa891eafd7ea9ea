// Package broadcast delivers scheduled admin announcements to active
// users.
package broadcast

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avelar/vidvault/internal/models"
	"github.com/avelar/vidvault/internal/store"
)

// activeUserWindow bounds who counts as an active recipient.
const activeUserWindow = 30 * 24 * time.Hour

// Sender delivers one message to one user. The bot daemon implements
// this over whichever platform the user was last seen on.
type Sender interface {
	SendToUser(ctx context.Context, userID, text, mediaRef string) error
}

// Scheduler polls for due broadcasts on a cron cadence and fans each
// one out to all active users.
type Scheduler struct {
	store    *store.Store
	sender   Sender
	pollCron string
	out      io.Writer
}

// Opts holds parameters for creating a Scheduler.
type Opts struct {
	Store    *store.Store
	Sender   Sender
	PollCron string    // 5-field cron expression; defaults to every minute
	Out      io.Writer // defaults to os.Stdout
}

// New creates a Scheduler.
func New(opts Opts) (*Scheduler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("broadcast: store is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("broadcast: sender is required")
	}
	pollCron := opts.PollCron
	if pollCron == "" {
		pollCron = "* * * * *"
	}
	if _, err := cronParser.Parse(pollCron); err != nil {
		return nil, fmt.Errorf("broadcast: parse poll cron %q: %w", pollCron, err)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Scheduler{
		store:    opts.Store,
		sender:   opts.Sender,
		pollCron: pollCron,
		out:      out,
	}, nil
}

// Run polls for due broadcasts until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(nextCronDuration(s.pollCron))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.deliverDue(ctx)
			timer.Reset(nextCronDuration(s.pollCron))
		}
	}
}

// deliverDue sends every due broadcast and records the outcome. A
// broadcast that reaches no one still counts as sent; only a store or
// total delivery failure marks it failed.
func (s *Scheduler) deliverDue(ctx context.Context) {
	due, err := s.store.DueBroadcasts(ctx, time.Now())
	if err != nil {
		log.Printf("broadcast: due broadcasts: %v", err)
		return
	}

	for _, bc := range due {
		sent, failed := s.fanOut(ctx, bc)

		status := models.BroadcastSent
		if sent == 0 && failed > 0 {
			status = models.BroadcastFailed
		}
		if err := s.store.MarkBroadcast(ctx, bc.ID, status); err != nil {
			log.Printf("broadcast: mark #%d %s: %v", bc.ID, status, err)
			continue
		}
		fmt.Fprintf(s.out, "broadcast: #%d delivered to %d users (%d failed)\n", bc.ID, sent, failed)
	}
}

// fanOut sends one broadcast to every active user.
func (s *Scheduler) fanOut(ctx context.Context, bc models.Broadcast) (sent, failed int) {
	users, err := s.store.ListActiveUsers(ctx, time.Now().Add(-activeUserWindow))
	if err != nil {
		log.Printf("broadcast: list recipients for #%d: %v", bc.ID, err)
		return 0, 1
	}

	for _, u := range users {
		if err := s.sender.SendToUser(ctx, u.ID, bc.Content, bc.MediaRef); err != nil {
			log.Printf("broadcast: #%d to %s: %v", bc.ID, u.ID, err)
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

// cronParser uses standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the
// duration until the next fire time. Returns one minute on parse error
// so the poll loop never spins.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Minute
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		return time.Minute
	}
	return d
}
