package discord

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/avelar/vidvault/internal/bot"
)

// --- Mock Discord session ---

type mockSession struct {
	mu           sync.Mutex
	opened       bool
	closeCalled  bool
	openErr      error
	sendErr      error
	dmErr        error
	sentMessages []sentMessage
	dmCalls      int
	handler      interface{}
	removeCount  int
}

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

func newMockSession() *mockSession {
	return &mockSession{}
}

func (m *mockSession) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return nil
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sentMessages = append(m.sentMessages, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ID: "msg-123"}, nil
}

func (m *mockSession) UserChannelCreate(userID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dmCalls++
	if m.dmErr != nil {
		return nil, m.dmErr
	}
	return &discordgo.Channel{ID: "dm-" + userID}, nil
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removeCount++
	}
}

func (m *mockSession) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sentMessages)
}

func (m *mockSession) lastSent() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sentMessages[len(m.sentMessages)-1]
}

// --- Helper to create a connected adapter ---

func newTestAdapter(t *testing.T) (*Adapter, *mockSession) {
	t.Helper()
	sess := newMockSession()

	a, err := New(AdapterOpts{
		Session:   sess,
		ChannelID: "C_DEFAULT",
	})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	a.SetBotUserID("BOT_USER_ID")
	return a, sess
}

// --- New tests ---

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(AdapterOpts{})
	if err == nil {
		t.Fatal("expected error for missing bot token")
	}
	if !strings.Contains(err.Error(), "bot token") {
		t.Errorf("error = %q, want to mention bot token", err.Error())
	}
}

func TestNew_WithMockSession(t *testing.T) {
	a, err := New(AdapterOpts{Session: newMockSession()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == nil {
		t.Fatal("expected non-nil adapter")
	}
}

// --- Connect tests ---

func TestConnect_Success(t *testing.T) {
	_, sess := newTestAdapter(t)
	if !sess.opened {
		t.Error("expected session to be opened")
	}
}

func TestConnect_OpenError(t *testing.T) {
	sess := newMockSession()
	sess.openErr = fmt.Errorf("gateway error")

	a, _ := New(AdapterOpts{Session: sess})
	err := a.Connect(context.Background())
	if err == nil {
		t.Fatal("expected open error")
	}
	if !strings.Contains(err.Error(), "open gateway") {
		t.Errorf("error = %q, want open gateway error", err.Error())
	}
}

func TestConnect_Idempotent(t *testing.T) {
	a, _ := newTestAdapter(t)
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("second connect should not error: %v", err)
	}
}

func TestConnect_AlreadyClosed(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.Close()
	if err := a.Connect(context.Background()); err == nil {
		t.Fatal("expected error for closed adapter")
	}
}

// --- Listen / handleMessage tests ---

func TestListen_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{Session: newMockSession()})
	if _, err := a.Listen(context.Background()); err == nil {
		t.Fatal("expected error for not connected")
	}
}

func TestHandleMessage_VideoAttachment(t *testing.T) {
	a, _ := newTestAdapter(t)
	ch, err := a.Listen(context.Background())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	a.handleMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "123456789012345678",
			ChannelID: "C1",
			Content:   "check this out",
			Author:    &discordgo.User{ID: "U_ALICE", Username: "alice", GlobalName: "Alice"},
			Attachments: []*discordgo.MessageAttachment{
				{ContentType: "image/png", URL: "https://cdn/img.png"},
				{ContentType: "video/mp4", URL: "https://cdn/clip.mp4"},
			},
		},
	})

	select {
	case msg := <-ch:
		if msg.Platform != "discord" || msg.ChannelID != "C1" {
			t.Errorf("unexpected origin: %+v", msg)
		}
		if msg.UserID != "U_ALICE" || msg.UserName != "alice" || msg.FirstName != "Alice" {
			t.Errorf("unexpected author fields: %+v", msg)
		}
		if msg.MediaRef != "https://cdn/clip.mp4" {
			t.Errorf("media ref = %q, want the video attachment URL", msg.MediaRef)
		}
		if msg.Text != "check this out" {
			t.Errorf("text = %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for inbound message")
	}
}

func TestHandleMessage_FiltersBotsAndSelf(t *testing.T) {
	a, _ := newTestAdapter(t)
	ch, _ := a.Listen(context.Background())

	a.handleMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID: "100", ChannelID: "C1", Content: "other bot",
			Author: &discordgo.User{ID: "OTHER_BOT", Bot: true},
		},
	})
	a.handleMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID: "101", ChannelID: "C1", Content: "self",
			Author: &discordgo.User{ID: "BOT_USER_ID"},
		},
	})
	a.handleMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID: "102", ChannelID: "C1", Content: "from human",
			Author: &discordgo.User{ID: "U_BOB", Username: "bob"},
		},
	})

	select {
	case msg := <-ch:
		if msg.Text != "from human" {
			t.Errorf("expected human message first, got %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestHandleMessage_NilAuthor(t *testing.T) {
	a, _ := newTestAdapter(t)
	ch, _ := a.Listen(context.Background())

	// Must not panic.
	a.handleMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{ID: "300", ChannelID: "C1", Content: "no author"},
	})
	a.handleMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID: "301", ChannelID: "C1", Content: "real",
			Author: &discordgo.User{ID: "U1", Username: "u1"},
		},
	})

	select {
	case msg := <-ch:
		if msg.Text != "real" {
			t.Errorf("expected real message, got %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestHandleMessage_AfterClose(t *testing.T) {
	a, _ := newTestAdapter(t)
	if _, err := a.Listen(context.Background()); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A handler still in flight when the adapter closes must not panic
	// on the closed inbound channel.
	a.handleMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID: "400", ChannelID: "C1", Content: "late",
			Author: &discordgo.User{ID: "U1", Username: "u1"},
		},
	})
}

func TestVideoAttachment(t *testing.T) {
	if got := videoAttachment(nil); got != "" {
		t.Errorf("no attachments should yield empty ref, got %q", got)
	}
	atts := []*discordgo.MessageAttachment{
		nil,
		{ContentType: "application/pdf", URL: "https://cdn/doc.pdf"},
		{ContentType: "video/webm", URL: "https://cdn/a.webm"},
		{ContentType: "video/mp4", URL: "https://cdn/b.mp4"},
	}
	if got := videoAttachment(atts); got != "https://cdn/a.webm" {
		t.Errorf("expected first video attachment, got %q", got)
	}
}

// --- Send tests ---

func TestSend_SimpleText(t *testing.T) {
	a, sess := newTestAdapter(t)

	err := a.Send(context.Background(), bot.Outbound{ChannelID: "C1", Text: "hello world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.sentCount() != 1 {
		t.Fatalf("expected 1 sent message, got %d", sess.sentCount())
	}
	last := sess.lastSent()
	if last.channelID != "C1" || last.data.Content != "hello world" {
		t.Errorf("unexpected send: %+v", last)
	}
}

func TestSend_MediaRefAppended(t *testing.T) {
	a, sess := newTestAdapter(t)

	err := a.Send(context.Background(), bot.Outbound{
		ChannelID: "C1",
		Text:      "#3 My clip",
		MediaRef:  "https://cdn/clip.mp4",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := sess.lastSent()
	if last.data.Content != "#3 My clip\nhttps://cdn/clip.mp4" {
		t.Errorf("content = %q, want text plus attachment URL", last.data.Content)
	}
}

func TestSend_DMByUser(t *testing.T) {
	a, sess := newTestAdapter(t)

	// No channel: resolve a DM channel for the user, and cache it.
	for i := 0; i < 2; i++ {
		if err := a.Send(context.Background(), bot.Outbound{UserID: "U1", Text: "psst"}); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}

	if sess.lastSent().channelID != "dm-U1" {
		t.Errorf("expected DM channel, got %q", sess.lastSent().channelID)
	}
	sess.mu.Lock()
	dmCalls := sess.dmCalls
	sess.mu.Unlock()
	if dmCalls != 1 {
		t.Errorf("DM channel should be cached, got %d lookups", dmCalls)
	}
}

func TestSend_DefaultChannel(t *testing.T) {
	a, sess := newTestAdapter(t)

	if err := a.Send(context.Background(), bot.Outbound{Text: "hello default"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.lastSent().channelID != "C_DEFAULT" {
		t.Errorf("channel = %q, want C_DEFAULT", sess.lastSent().channelID)
	}
}

func TestSend_NoChannel(t *testing.T) {
	sess := newMockSession()
	a, _ := New(AdapterOpts{Session: sess})
	a.Connect(context.Background())

	if err := a.Send(context.Background(), bot.Outbound{Text: "no channel"}); err == nil {
		t.Fatal("expected error for no channel")
	}
}

func TestSend_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{Session: newMockSession()})
	if err := a.Send(context.Background(), bot.Outbound{ChannelID: "C1", Text: "x"}); err == nil {
		t.Fatal("expected error for not connected")
	}
}

func TestSend_PostError(t *testing.T) {
	a, sess := newTestAdapter(t)
	sess.sendErr = fmt.Errorf("channel not found")

	if err := a.Send(context.Background(), bot.Outbound{ChannelID: "C1", Text: "x"}); err == nil {
		t.Fatal("expected send error")
	}
}

// --- retryOnRateLimit tests ---

func TestRetryOnRateLimit_NonRateLimitError(t *testing.T) {
	a, _ := newTestAdapter(t)
	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		return fmt.Errorf("some other error")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("should not retry non-rate-limit errors, calls = %d", calls)
	}
}

func TestRetryOnRateLimit_RetriesAndSucceeds(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.baseBackoff = time.Millisecond
	a.maxBackoff = 10 * time.Millisecond

	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &discordgo.RESTError{Response: &http.Response{StatusCode: 429}}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryOnRateLimit_ExhaustsRetries(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.baseBackoff = time.Millisecond
	a.maxBackoff = 10 * time.Millisecond

	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		return &discordgo.RESTError{Response: &http.Response{StatusCode: 429}}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != maxRetries+1 {
		t.Errorf("expected %d calls, got %d", maxRetries+1, calls)
	}
}

func TestRetryOnRateLimit_RespectsContext(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.baseBackoff = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := a.retryOnRateLimit(ctx, func() error {
		calls++
		return &discordgo.RESTError{Response: &http.Response{StatusCode: 429}}
	})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before context cancel, got %d", calls)
	}
}

// --- Close tests ---

func TestClose_Success(t *testing.T) {
	a, sess := newTestAdapter(t)
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.closeCalled {
		t.Error("expected session Close() to be called")
	}
}

func TestClose_Idempotent(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.Close()
	if err := a.Close(); err != nil {
		t.Fatalf("second close should not error: %v", err)
	}
}

func TestClose_RemovesHandler(t *testing.T) {
	a, sess := newTestAdapter(t)
	a.Listen(context.Background())
	a.Close()

	sess.mu.Lock()
	removed := sess.removeCount
	sess.mu.Unlock()
	if removed != 1 {
		t.Errorf("expected handler removed, removeCount = %d", removed)
	}
}

// --- BotUserID tests ---

func TestSetBotUserID(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.SetBotUserID("NEW_BOT_ID")
	if a.BotUserID() != "NEW_BOT_ID" {
		t.Errorf("bot user ID = %q, want NEW_BOT_ID", a.BotUserID())
	}
}

// --- Verify Adapter interface compliance ---

var _ bot.Adapter = (*Adapter)(nil)
var _ bot.BotUserIDer = (*Adapter)(nil)
