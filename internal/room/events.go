package room

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/podiumhq/podium/internal/audience"
)

// Event names on the room channel.
const (
	EventReady         = "ready"
	EventJoin          = "join"
	EventLeave         = "leave"
	EventState         = "state"
	EventTranscript    = "transcript"
	EventReaction      = "reaction"
	EventReactionDebug = "reaction_debug"
	EventCoachFeedback = "coach_feedback"

	EventStateRequest     = "state_request"
	EventClientTranscript = "client_transcript"
	EventSeedBots         = "seed_bots"
)

var ErrInvalidPayload = errors.New("invalid event payload")

// Envelope is the wire shape of every message in both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is one of the concrete *Event types below. Use a type switch; any
// name this package does not know decodes to UnknownEvent.
type Event interface {
	Name() string
	isEvent()
}

type ReadyEvent struct {
	RoomID string `json:"roomId"`
}

type JoinEvent struct {
	Bot audience.Bot `json:"bot"`
}

type LeaveEvent struct {
	BotID string `json:"botId"`
}

type StateEvent struct {
	Bots []audience.Bot `json:"bots"`
}

type FlushMeta struct {
	Question bool `json:"question"`
	Exclaim  bool `json:"exclaim"`
}

type TranscriptEvent struct {
	RoomID    string    `json:"roomId,omitempty"`
	Text      string    `json:"text"`
	FlushMeta FlushMeta `json:"flush_meta"`
}

type ReactionEvent struct {
	RoomID   string            `json:"roomId,omitempty"`
	BotID    string            `json:"botId"`
	Reaction audience.Reaction `json:"reaction"`
}

type Decision struct {
	IsQuestion bool    `json:"is_question"`
	Escalated  bool    `json:"escalated"`
	TimeoutS   float64 `json:"timeout_s"`
}

type ReactionDebugEvent struct {
	RoomID   string            `json:"roomId,omitempty"`
	BotID    string            `json:"botId"`
	Decision Decision          `json:"decision"`
	Reaction audience.Reaction `json:"reaction"`
}

type CoachFeedbackEvent struct {
	RoomID   string          `json:"roomId"`
	CoachID  string          `json:"coachId,omitempty"`
	Feedback json.RawMessage `json:"feedback,omitempty"`
}

type UnknownEvent struct {
	Event   string
	Payload json.RawMessage
}

func (ReadyEvent) Name() string         { return EventReady }
func (JoinEvent) Name() string          { return EventJoin }
func (LeaveEvent) Name() string         { return EventLeave }
func (StateEvent) Name() string         { return EventState }
func (TranscriptEvent) Name() string    { return EventTranscript }
func (ReactionEvent) Name() string      { return EventReaction }
func (ReactionDebugEvent) Name() string { return EventReactionDebug }
func (CoachFeedbackEvent) Name() string { return EventCoachFeedback }
func (e UnknownEvent) Name() string     { return e.Event }

func (ReadyEvent) isEvent()         {}
func (JoinEvent) isEvent()          {}
func (LeaveEvent) isEvent()         {}
func (StateEvent) isEvent()         {}
func (TranscriptEvent) isEvent()    {}
func (ReactionEvent) isEvent()      {}
func (ReactionDebugEvent) isEvent() {}
func (CoachFeedbackEvent) isEvent() {}
func (UnknownEvent) isEvent()       {}

// Decode parses one inbound message into its typed event.
func Decode(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	payload := env.Payload
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		payload = json.RawMessage("{}")
	}

	switch env.Event {
	case EventReady:
		var e ReadyEvent
		if err := decodePayload(env.Event, payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventJoin:
		var e JoinEvent
		if err := decodePayload(env.Event, payload, &e); err != nil {
			return nil, err
		}
		if e.Bot.ID == "" {
			return nil, fmt.Errorf("%s: %w: missing bot id", env.Event, ErrInvalidPayload)
		}
		return e, nil
	case EventLeave:
		var e LeaveEvent
		if err := decodePayload(env.Event, payload, &e); err != nil {
			return nil, err
		}
		if e.BotID == "" {
			return nil, fmt.Errorf("%s: %w: missing botId", env.Event, ErrInvalidPayload)
		}
		return e, nil
	case EventState:
		var e StateEvent
		if err := decodePayload(env.Event, payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventTranscript:
		var e TranscriptEvent
		if err := decodePayload(env.Event, payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventReaction:
		var e ReactionEvent
		if err := decodePayload(env.Event, payload, &e); err != nil {
			return nil, err
		}
		if e.BotID == "" {
			return nil, fmt.Errorf("%s: %w: missing botId", env.Event, ErrInvalidPayload)
		}
		return e, nil
	case EventReactionDebug:
		var e ReactionDebugEvent
		if err := decodePayload(env.Event, payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventCoachFeedback:
		var e CoachFeedbackEvent
		if err := decodePayload(env.Event, payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return UnknownEvent{Event: env.Event, Payload: env.Payload}, nil
	}
}

func decodePayload(name string, payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrInvalidPayload, err)
	}
	return nil
}
