// Package roster mirrors the backend's view of a room: who is in the
// audience, what they are currently reacting with, and the transcript chat.
package roster

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/podiumhq/podium/internal/audience"
	"github.com/podiumhq/podium/internal/metrics"
	"github.com/podiumhq/podium/internal/room"
)

// DefaultBubbleTTL is how long a reaction stays visible.
const DefaultBubbleTTL = 1600 * time.Millisecond

type Bubble struct {
	BotID     string
	Reaction  audience.Reaction
	Emotion   audience.Emotion
	ExpiresAt time.Time
}

type ChatLine struct {
	Text     string
	Question bool
	Exclaim  bool
	At       time.Time
}

type Roster struct {
	mu       sync.Mutex
	bots     map[string]audience.Bot
	order    []string
	bubbles  map[string]Bubble
	chat     []ChatLine
	feedback []json.RawMessage

	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Roster)

func WithClock(now func() time.Time) Option {
	return func(r *Roster) { r.now = now }
}

func WithBubbleTTL(d time.Duration) Option {
	return func(r *Roster) { r.ttl = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Roster) { r.metrics = m }
}

func New(opts ...Option) *Roster {
	r := &Roster{
		bots:    make(map[string]audience.Bot),
		bubbles: make(map[string]Bubble),
		ttl:     DefaultBubbleTTL,
		now:     time.Now,
		metrics: metrics.Default,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply folds one room event into the mirror. It reports whether the
// visible state changed.
func (r *Roster) Apply(ev room.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.metrics.AudienceSize.Set(float64(len(r.bots))) }()

	switch e := ev.(type) {
	case room.JoinEvent:
		r.upsert(e.Bot)
		return true
	case room.LeaveEvent:
		if _, ok := r.bots[e.BotID]; !ok {
			return false
		}
		delete(r.bots, e.BotID)
		delete(r.bubbles, e.BotID)
		for i, id := range r.order {
			if id == e.BotID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		return true
	case room.StateEvent:
		changed := false
		for _, b := range e.Bots {
			if b.ID == "" {
				continue
			}
			if _, ok := r.bots[b.ID]; ok {
				continue
			}
			r.upsert(b)
			changed = true
		}
		return changed
	case room.ReactionEvent:
		r.react(e.BotID, e.Reaction)
		return true
	case room.ReactionDebugEvent:
		if e.BotID == "" {
			return false
		}
		r.react(e.BotID, e.Reaction)
		return true
	case room.TranscriptEvent:
		if e.Text == "" {
			return false
		}
		r.chat = append(r.chat, ChatLine{
			Text:     e.Text,
			Question: e.FlushMeta.Question,
			Exclaim:  e.FlushMeta.Exclaim,
			At:       r.now(),
		})
		return true
	case room.CoachFeedbackEvent:
		if len(e.Feedback) == 0 {
			return false
		}
		r.feedback = append(r.feedback, e.Feedback)
		return true
	case room.ReadyEvent, room.UnknownEvent:
		return false
	default:
		return false
	}
}

func (r *Roster) upsert(b audience.Bot) {
	if _, ok := r.bots[b.ID]; !ok {
		r.order = append(r.order, b.ID)
	}
	r.bots[b.ID] = b
}

func (r *Roster) react(botID string, rx audience.Reaction) {
	r.bubbles[botID] = Bubble{
		BotID:     botID,
		Reaction:  rx,
		Emotion:   rx.Emotion(r.bots[botID].Persona.Stance),
		ExpiresAt: r.now().Add(r.ttl),
	}
}

// Bots returns the audience in join order.
func (r *Roster) Bots() []audience.Bot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audience.Bot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.bots[id])
	}
	return out
}

func (r *Roster) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bots)
}

// Bubble returns the bot's reaction if it has not expired yet.
func (r *Roster) Bubble(botID string) (Bubble, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bubbles[botID]
	if !ok {
		return Bubble{}, false
	}
	if !r.now().Before(b.ExpiresAt) {
		delete(r.bubbles, botID)
		return Bubble{}, false
	}
	return b, true
}

// Bubbles returns all live reactions in audience order and prunes expired ones.
func (r *Roster) Bubbles() []Bubble {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, b := range r.bubbles {
		if !now.Before(b.ExpiresAt) {
			delete(r.bubbles, id)
		}
	}
	out := make([]Bubble, 0, len(r.bubbles))
	seen := make(map[string]bool, len(r.order))
	for _, id := range r.order {
		seen[id] = true
		if b, ok := r.bubbles[id]; ok {
			out = append(out, b)
		}
	}
	for id, b := range r.bubbles {
		if !seen[id] {
			out = append(out, b)
		}
	}
	return out
}

func (r *Roster) Chat() []ChatLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChatLine, len(r.chat))
	copy(out, r.chat)
	return out
}

// Feedback returns coach feedback payloads in arrival order.
func (r *Roster) Feedback() []json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]json.RawMessage, len(r.feedback))
	copy(out, r.feedback)
	return out
}

// Reset forgets everything, e.g. when switching rooms.
func (r *Roster) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bots = make(map[string]audience.Bot)
	r.bubbles = make(map[string]Bubble)
	r.order = nil
	r.chat = nil
	r.feedback = nil
	r.metrics.AudienceSize.Set(0)
}
