// Package notify surfaces rehearsal lifecycle changes to the user.
package notify

import (
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/logging"
)

const appName = "Podium"

type MessageType int

const (
	MsgRehearsalStarted MessageType = iota
	MsgRehearsalStopped
	MsgFeedbackReady
	MsgRehearsalAborted
	MsgConnectionLost
	MsgConfigReloaded
)

type Message struct {
	Title   string
	Body    string
	IsError bool
}

// MessageDef ties a message type to its config key and built-in text.
type MessageDef struct {
	Type         MessageType
	ConfigKey    string
	DefaultTitle string
	DefaultBody  string
	IsError      bool
}

var MessageDefs = []MessageDef{
	{MsgRehearsalStarted, "rehearsal_started", appName, "Rehearsal started, the audience is listening", false},
	{MsgRehearsalStopped, "rehearsal_stopped", appName, "Rehearsal stopped, building your report", false},
	{MsgFeedbackReady, "feedback_ready", appName, "Your pitch report is ready", false},
	{MsgRehearsalAborted, "rehearsal_aborted", appName, "Rehearsal aborted", true},
	{MsgConnectionLost, "connection_lost", appName, "Lost connection to the room", true},
	{MsgConfigReloaded, "config_reloaded", appName, "Configuration reloaded", false},
}

// DefaultMessages returns the built-in text for every message type.
func DefaultMessages() map[MessageType]Message {
	out := make(map[MessageType]Message, len(MessageDefs))
	for _, def := range MessageDefs {
		out[def.Type] = Message{Title: def.DefaultTitle, Body: def.DefaultBody, IsError: def.IsError}
	}
	return out
}

type Notifier interface {
	Send(mt MessageType)
	Error(msg string)
}

// New picks a notifier by kind: "desktop", "log" or anything else for none.
func New(kind string, messages map[MessageType]Message) Notifier {
	if messages == nil {
		messages = DefaultMessages()
	}
	switch kind {
	case "desktop":
		return &Desktop{Messages: messages, log: logging.WithComponent("notify")}
	case "log":
		return &Log{Messages: messages, log: logging.WithComponent("notify")}
	default:
		return Nop{}
	}
}

type Desktop struct {
	Messages map[MessageType]Message
	Bin      string // defaults to notify-send
	log      zerolog.Logger
}

func (d *Desktop) Send(mt MessageType) {
	msg, ok := d.Messages[mt]
	if !ok {
		return
	}
	args := []string{"-a", appName}
	if msg.IsError {
		args = append(args, "-u", "critical")
	}
	args = append(args, msg.Title, msg.Body)
	d.run(args...)
}

func (d *Desktop) Error(msg string) {
	d.run("-a", appName, "-u", "critical", appName+" Error", msg)
}

func (d *Desktop) run(args ...string) {
	bin := d.Bin
	if bin == "" {
		bin = "notify-send"
	}
	if err := exec.Command(bin, args...).Run(); err != nil {
		d.log.Warn().Err(err).Msg("failed to send notification")
	}
}

// Log writes notifications to the process logger instead of the desktop.
type Log struct {
	Messages map[MessageType]Message
	log      zerolog.Logger
}

func NewLog(l zerolog.Logger, messages map[MessageType]Message) *Log {
	if messages == nil {
		messages = DefaultMessages()
	}
	return &Log{Messages: messages, log: l}
}

func (l *Log) Send(mt MessageType) {
	msg, ok := l.Messages[mt]
	if !ok {
		return
	}
	ev := l.log.Info()
	if msg.IsError {
		ev = l.log.Warn()
	}
	ev.Str("title", msg.Title).Msg(msg.Body)
}

func (l *Log) Error(msg string) {
	l.log.Error().Str("title", appName+" Error").Msg(msg)
}

// Nop is a Notifier that does absolutely nothing.
type Nop struct{}

func (Nop) Send(MessageType) {}
func (Nop) Error(string)     {}
