package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"desktop", "*notify.Desktop"},
		{"log", "*notify.Log"},
		{"none", "notify.Nop"},
		{"", "notify.Nop"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			n := New(tt.kind, nil)
			got := typeName(n)
			if got != tt.want {
				t.Errorf("New(%q) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}
}

func typeName(n Notifier) string {
	switch n.(type) {
	case *Desktop:
		return "*notify.Desktop"
	case *Log:
		return "*notify.Log"
	case Nop:
		return "notify.Nop"
	}
	return "unknown"
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(zerolog.New(&buf), nil)

	t.Run("Send", func(t *testing.T) {
		buf.Reset()
		n.Send(MsgRehearsalStarted)
		out := buf.String()
		if !strings.Contains(out, "Rehearsal started") || !strings.Contains(out, `"level":"info"`) {
			t.Errorf("unexpected log output: %s", out)
		}
	})

	t.Run("SendErrorMessage", func(t *testing.T) {
		buf.Reset()
		n.Send(MsgConnectionLost)
		if !strings.Contains(buf.String(), `"level":"warn"`) {
			t.Errorf("error messages should log at warn, got: %s", buf.String())
		}
	})

	t.Run("Error", func(t *testing.T) {
		buf.Reset()
		n.Error("mic unplugged")
		out := buf.String()
		if !strings.Contains(out, "Podium Error") || !strings.Contains(out, "mic unplugged") {
			t.Errorf("unexpected log output: %s", out)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		buf.Reset()
		n.Send(MessageType(99))
		if buf.Len() != 0 {
			t.Errorf("unknown message type should be silent, got: %s", buf.String())
		}
	})
}

func TestDesktopMissingBinary(t *testing.T) {
	d := &Desktop{Messages: DefaultMessages(), Bin: "podium-no-such-notify-send"}
	d.Send(MsgFeedbackReady)
	d.Error("boom")
}

func TestDefaultMessagesCoverDefs(t *testing.T) {
	msgs := DefaultMessages()
	if len(msgs) != len(MessageDefs) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(MessageDefs))
	}
	seen := map[string]bool{}
	for _, def := range MessageDefs {
		if seen[def.ConfigKey] {
			t.Errorf("duplicate config key %q", def.ConfigKey)
		}
		seen[def.ConfigKey] = true
		if msgs[def.Type].Body == "" {
			t.Errorf("message %q has no body", def.ConfigKey)
		}
	}
	if !msgs[MsgConnectionLost].IsError {
		t.Error("connection lost should be an error message")
	}
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	n.Send(MsgRehearsalStarted)
	n.Error("ignored")
}
