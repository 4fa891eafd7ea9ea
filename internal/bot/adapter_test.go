package bot

import (
	"reflect"
	"testing"

	"github.com/avelar/vidvault/internal/flow"
)

func TestParseInbound_Command(t *testing.T) {
	ev := ParseInbound(Inbound{UserID: "u1", Text: "/SEARCH cat videos"})

	if ev.Kind != flow.EventCommand {
		t.Fatalf("expected command event, got %s", ev.Kind)
	}
	if ev.Command != "search" {
		t.Errorf("command must be lowercased, got %q", ev.Command)
	}
	if !reflect.DeepEqual(ev.Args, []string{"cat", "videos"}) {
		t.Errorf("unexpected args: %v", ev.Args)
	}
}

func TestParseInbound_BareSlash(t *testing.T) {
	ev := ParseInbound(Inbound{UserID: "u1", Text: "/"})
	if ev.Kind != flow.EventCommand || ev.Command != "" {
		t.Errorf("expected empty command event, got %+v", ev)
	}
}

func TestParseInbound_MediaWinsOverText(t *testing.T) {
	ev := ParseInbound(Inbound{UserID: "u1", Text: "look at this", MediaRef: "file-abc"})

	if ev.Kind != flow.EventMedia {
		t.Fatalf("expected media event, got %s", ev.Kind)
	}
	if ev.MediaRef != "file-abc" || ev.Text != "look at this" {
		t.Errorf("media event must keep both ref and caption: %+v", ev)
	}
}

func TestParseInbound_Callback(t *testing.T) {
	ev := ParseInbound(Inbound{UserID: "u1", Data: "yes"})
	if ev.Kind != flow.EventCallback || ev.Data != "yes" {
		t.Errorf("expected callback event, got %+v", ev)
	}
}

func TestParseInbound_PlainText(t *testing.T) {
	ev := ParseInbound(Inbound{UserID: "u1", UserName: "ana", FirstName: "Ana", Text: "  hello  "})

	if ev.Kind != flow.EventText {
		t.Fatalf("expected text event, got %s", ev.Kind)
	}
	if ev.Text != "hello" {
		t.Errorf("expected trimmed text, got %q", ev.Text)
	}
	if ev.Username != "ana" || ev.FirstName != "Ana" {
		t.Errorf("profile fields must carry through: %+v", ev)
	}
}
