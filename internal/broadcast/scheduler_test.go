package broadcast

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avelar/vidvault/internal/models"
	"github.com/avelar/vidvault/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Broadcast{}, &models.User{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return store.New(db, 5*time.Second)
}

// mockSender records deliveries and fails for user IDs in failFor.
type mockSender struct {
	mu      sync.Mutex
	sent    map[string]string // userID -> text
	failFor map[string]bool
}

func newMockSender() *mockSender {
	return &mockSender{sent: make(map[string]string), failFor: make(map[string]bool)}
}

func (m *mockSender) SendToUser(_ context.Context, userID, text, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[userID] {
		return fmt.Errorf("mock sender: %s unreachable", userID)
	}
	m.sent[userID] = text
	return nil
}

func newTestScheduler(t *testing.T, s *store.Store, sender Sender) *Scheduler {
	t.Helper()
	sched, err := New(Opts{Store: s, Sender: sender, Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return sched
}

func seedUser(t *testing.T, s *store.Store, id string) {
	t.Helper()
	if err := s.UpsertUser(context.Background(), id, id, ""); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func TestDeliverDue_SendsAndMarksSent(t *testing.T) {
	s := openTestStore(t)
	sender := newMockSender()
	sched := newTestScheduler(t, s, sender)
	ctx := context.Background()

	seedUser(t, s, "u1")
	seedUser(t, s, "u2")
	bc, err := s.ScheduleBroadcast(ctx, "admin", "hello all", "", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	sched.deliverDue(ctx)

	if len(sender.sent) != 2 || sender.sent["u1"] != "hello all" {
		t.Errorf("expected delivery to both users, got %v", sender.sent)
	}

	bcs, err := s.ListBroadcasts(ctx, "", 10)
	if err != nil || len(bcs) != 1 {
		t.Fatalf("list: %v (%d)", err, len(bcs))
	}
	if bcs[0].ID != bc.ID || bcs[0].Status != models.BroadcastSent {
		t.Errorf("expected sent status, got %+v", bcs[0])
	}
}

func TestDeliverDue_PartialFailureStillCountsAsSent(t *testing.T) {
	s := openTestStore(t)
	sender := newMockSender()
	sender.failFor["u2"] = true
	sched := newTestScheduler(t, s, sender)
	ctx := context.Background()

	seedUser(t, s, "u1")
	seedUser(t, s, "u2")
	if _, err := s.ScheduleBroadcast(ctx, "admin", "hello", "", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	sched.deliverDue(ctx)

	bcs, _ := s.ListBroadcasts(ctx, "", 10)
	if bcs[0].Status != models.BroadcastSent {
		t.Errorf("partial delivery must read as sent, got %s", bcs[0].Status)
	}
}

func TestDeliverDue_TotalFailureMarksFailed(t *testing.T) {
	s := openTestStore(t)
	sender := newMockSender()
	sender.failFor["u1"] = true
	sched := newTestScheduler(t, s, sender)
	ctx := context.Background()

	seedUser(t, s, "u1")
	if _, err := s.ScheduleBroadcast(ctx, "admin", "hello", "", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	sched.deliverDue(ctx)

	bcs, _ := s.ListBroadcasts(ctx, "", 10)
	if bcs[0].Status != models.BroadcastFailed {
		t.Errorf("expected failed status, got %s", bcs[0].Status)
	}
}

func TestDeliverDue_NoRecipientsStillCountsAsSent(t *testing.T) {
	s := openTestStore(t)
	sender := newMockSender()
	sched := newTestScheduler(t, s, sender)
	ctx := context.Background()

	if _, err := s.ScheduleBroadcast(ctx, "admin", "into the void", "", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	sched.deliverDue(ctx)

	bcs, _ := s.ListBroadcasts(ctx, "", 10)
	if bcs[0].Status != models.BroadcastSent {
		t.Errorf("empty audience must read as sent, got %s", bcs[0].Status)
	}
}

func TestDeliverDue_LeavesFutureBroadcastsAlone(t *testing.T) {
	s := openTestStore(t)
	sender := newMockSender()
	sched := newTestScheduler(t, s, sender)
	ctx := context.Background()

	seedUser(t, s, "u1")
	if _, err := s.ScheduleBroadcast(ctx, "admin", "later", "", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	sched.deliverDue(ctx)

	if len(sender.sent) != 0 {
		t.Errorf("future broadcast must not deliver, got %v", sender.sent)
	}
	bcs, _ := s.ListBroadcasts(ctx, "", 10)
	if bcs[0].Status != models.BroadcastPending {
		t.Errorf("expected still pending, got %s", bcs[0].Status)
	}
}

func TestNew_Validation(t *testing.T) {
	s := openTestStore(t)
	sender := newMockSender()

	if _, err := New(Opts{Sender: sender}); err == nil {
		t.Errorf("expected error for nil store")
	}
	if _, err := New(Opts{Store: s}); err == nil {
		t.Errorf("expected error for nil sender")
	}
	if _, err := New(Opts{Store: s, Sender: sender, PollCron: "not a cron"}); err == nil {
		t.Errorf("expected error for bad cron expression")
	}
}

func TestNextCronDuration(t *testing.T) {
	if d := nextCronDuration("* * * * *"); d <= 0 || d > time.Minute {
		t.Errorf("every-minute cron should fire within a minute, got %v", d)
	}
	if d := nextCronDuration("garbage"); d != time.Minute {
		t.Errorf("parse failure should fall back to a minute, got %v", d)
	}
}
