// Package bot bridges chat platforms (Discord, Slack) to the
// conversation engine. Adapters translate platform traffic to and from
// the neutral Inbound/Outbound types; the daemon owns dispatch.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/avelar/vidvault/internal/flow"
)

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management and message
// sending/receiving for a single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the
	// adapter is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan Inbound, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg Outbound) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}

// Inbound represents a message received from the chat platform.
type Inbound struct {
	Platform  string    // e.g. "discord", "slack"
	ChannelID string    // platform-specific channel identifier
	UserID    string    // platform-specific user identifier
	UserName  string    // human-readable username
	FirstName string    // display name, when the platform has one
	Text      string    // raw message text
	MediaRef  string    // opaque media handle, when the message carries media
	Data      string    // interactive callback payload, when present
	Timestamp time.Time // when the message was sent
}

// Outbound represents a message to be sent to the chat platform.
type Outbound struct {
	ChannelID string // target channel
	UserID    string // target user, for platforms that DM by user
	Text      string
	MediaRef  string // media handle to re-send, when set
}

// ParseInbound translates a platform message into an engine event.
// Media wins over text; a leading slash marks a command.
func ParseInbound(msg Inbound) flow.Event {
	ev := flow.Event{
		UserID:    msg.UserID,
		Username:  msg.UserName,
		FirstName: msg.FirstName,
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case msg.MediaRef != "":
		ev.Kind = flow.EventMedia
		ev.MediaRef = msg.MediaRef
		ev.Text = text
	case msg.Data != "":
		ev.Kind = flow.EventCallback
		ev.Data = msg.Data
	case strings.HasPrefix(text, "/"):
		fields := strings.Fields(strings.TrimPrefix(text, "/"))
		ev.Kind = flow.EventCommand
		if len(fields) > 0 {
			ev.Command = strings.ToLower(fields[0])
			ev.Args = fields[1:]
		}
	default:
		ev.Kind = flow.EventText
		ev.Text = text
	}
	return ev
}
