// Package flow is the conversation engine: a per-user state machine
// that interprets inbound chat events, drives the persistence store,
// and emits outbound actions. It never touches transport details.
package flow

// EventKind classifies an inbound event.
type EventKind string

// Inbound event kinds.
const (
	EventText     EventKind = "text"
	EventMedia    EventKind = "media"
	EventCommand  EventKind = "command"
	EventCallback EventKind = "callback"
)

// Event is the engine's sole input: a platform-neutral inbound turn.
type Event struct {
	UserID    string
	Username  string
	FirstName string
	Kind      EventKind

	Text     string   // EventText: message body
	MediaRef string   // EventMedia: opaque media handle
	Command  string   // EventCommand: command word, without slash
	Args     []string // EventCommand: remaining words
	Data     string   // EventCallback: selection payload
}

// ActionKind classifies an outbound action.
type ActionKind string

// Outbound action kinds.
const (
	ActionReply  ActionKind = "reply"  // plain reply text
	ActionMedia  ActionKind = "media"  // reply with a media reference
	ActionPrompt ActionKind = "prompt" // asks the user for the next flow input
	ActionError  ActionKind = "error"  // user-visible failure notice
)

// Action is one outbound instruction for the dispatch shell. The engine
// only produces actions; it never sends anything itself.
type Action struct {
	UserID   string
	Kind     ActionKind
	Text     string
	MediaRef string
}

func reply(userID, text string) Action {
	return Action{UserID: userID, Kind: ActionReply, Text: text}
}

func prompt(userID, text string) Action {
	return Action{UserID: userID, Kind: ActionPrompt, Text: text}
}

func fail(userID, text string) Action {
	return Action{UserID: userID, Kind: ActionError, Text: text}
}

func media(userID, text, ref string) Action {
	return Action{UserID: userID, Kind: ActionMedia, Text: text, MediaRef: ref}
}
