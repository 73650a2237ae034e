package room

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		check   func(t *testing.T, ev Event)
		wantErr bool
	}{
		{
			name: "ready",
			raw:  `{"event":"ready","payload":{"roomId":"r1"}}`,
			check: func(t *testing.T, ev Event) {
				if e, ok := ev.(ReadyEvent); !ok || e.RoomID != "r1" {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name: "join",
			raw:  `{"event":"join","payload":{"bot":{"id":"b1","name":"Ada","avatar":"🙂","persona":{"stance":"curious","domain":"tech"}}}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(JoinEvent)
				if !ok || e.Bot.ID != "b1" || e.Bot.Name != "Ada" || e.Bot.Persona.Stance != "curious" {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name:    "join without bot id",
			raw:     `{"event":"join","payload":{"bot":{"name":"Ada"}}}`,
			wantErr: true,
		},
		{
			name: "leave",
			raw:  `{"event":"leave","payload":{"botId":"b1"}}`,
			check: func(t *testing.T, ev Event) {
				if e, ok := ev.(LeaveEvent); !ok || e.BotID != "b1" {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name:    "leave without id",
			raw:     `{"event":"leave","payload":{}}`,
			wantErr: true,
		},
		{
			name: "state",
			raw:  `{"event":"state","payload":{"bots":[{"id":"b1"},{"id":"b2"}]}}`,
			check: func(t *testing.T, ev Event) {
				if e, ok := ev.(StateEvent); !ok || len(e.Bots) != 2 {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name: "state without payload",
			raw:  `{"event":"state"}`,
			check: func(t *testing.T, ev Event) {
				if e, ok := ev.(StateEvent); !ok || len(e.Bots) != 0 {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name: "transcript",
			raw:  `{"event":"transcript","payload":{"roomId":"r1","text":"any questions?","flush_meta":{"question":true}}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(TranscriptEvent)
				if !ok || e.Text != "any questions?" || !e.FlushMeta.Question || e.FlushMeta.Exclaim {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name: "reaction",
			raw:  `{"event":"reaction","payload":{"roomId":"r1","botId":"b1","reaction":{"emoji_unicode":"👍","micro_phrase":"nice","score_delta":1}}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(ReactionEvent)
				if !ok || e.BotID != "b1" || e.Reaction.EmojiUnicode != "👍" || e.Reaction.MicroPhrase != "nice" || e.Reaction.ScoreDelta != 1 {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name: "reaction with optional fields missing",
			raw:  `{"event":"reaction","payload":{"botId":"b1","reaction":{}}}`,
			check: func(t *testing.T, ev Event) {
				if e, ok := ev.(ReactionEvent); !ok || e.Reaction.MicroPhrase != "" {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name:    "reaction with wrong types",
			raw:     `{"event":"reaction","payload":{"botId":42}}`,
			wantErr: true,
		},
		{
			name: "reaction debug",
			raw:  `{"event":"reaction_debug","payload":{"botId":"b1","decision":{"is_question":true,"timeout_s":2.5}}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(ReactionDebugEvent)
				if !ok || !e.Decision.IsQuestion || e.Decision.TimeoutS != 2.5 {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name: "coach feedback",
			raw:  `{"event":"coach_feedback","payload":{"roomId":"r1","coachId":"c1","feedback":{"score":7}}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(CoachFeedbackEvent)
				if !ok || e.CoachID != "c1" || string(e.Feedback) != `{"score":7}` {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name: "unknown",
			raw:  `{"event":"confetti","payload":{"n":3}}`,
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(UnknownEvent)
				if !ok || e.Name() != "confetti" || string(e.Payload) != `{"n":3}` {
					t.Errorf("got %#v", ev)
				}
			},
		},
		{
			name:    "not an object",
			raw:     `[1,2,3]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestDecode_InvalidPayloadIsTyped(t *testing.T) {
	_, err := Decode([]byte(`{"event":"leave","payload":{"botId":""}}`))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("error = %v, want ErrInvalidPayload", err)
	}
}
