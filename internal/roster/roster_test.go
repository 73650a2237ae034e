package roster

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/podiumhq/podium/internal/audience"
	"github.com/podiumhq/podium/internal/metrics"
	"github.com/podiumhq/podium/internal/room"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRoster() (*Roster, *fakeClock, *metrics.Metrics) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	m := metrics.New(prometheus.NewRegistry())
	return New(WithClock(clk.now), WithMetrics(m)), clk, m
}

func bot(id, name string, stance audience.Stance) audience.Bot {
	return audience.Bot{ID: id, Name: name, Persona: audience.Persona{Stance: stance}}
}

func names(bots []audience.Bot) []string {
	out := make([]string, len(bots))
	for i, b := range bots {
		out[i] = b.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRoster_Membership(t *testing.T) {
	tests := []struct {
		name   string
		events []room.Event
		want   []string
	}{
		{
			name:   "join appends",
			events: []room.Event{room.JoinEvent{Bot: bot("a", "Ada", "")}, room.JoinEvent{Bot: bot("b", "Bo", "")}},
			want:   []string{"Ada", "Bo"},
		},
		{
			name: "join upserts last write wins",
			events: []room.Event{
				room.JoinEvent{Bot: bot("a", "Ada", "")},
				room.JoinEvent{Bot: bot("b", "Bo", "")},
				room.JoinEvent{Bot: bot("a", "Ada v2", "")},
			},
			want: []string{"Ada v2", "Bo"},
		},
		{
			name: "leave removes",
			events: []room.Event{
				room.JoinEvent{Bot: bot("a", "Ada", "")},
				room.JoinEvent{Bot: bot("b", "Bo", "")},
				room.LeaveEvent{BotID: "a"},
				room.LeaveEvent{BotID: "missing"},
			},
			want: []string{"Bo"},
		},
		{
			name: "state merges without overwriting",
			events: []room.Event{
				room.JoinEvent{Bot: bot("a", "Ada", "")},
				room.StateEvent{Bots: []audience.Bot{bot("a", "Stale", ""), bot("c", "Cy", ""), {Name: "no id"}}},
			},
			want: []string{"Ada", "Cy"},
		},
		{
			name:   "unknown and ready are ignored",
			events: []room.Event{room.ReadyEvent{RoomID: "r"}, room.UnknownEvent{Event: "x"}},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, m := newTestRoster()
			for _, ev := range tt.events {
				r.Apply(ev)
			}
			if got := names(r.Bots()); !equal(got, tt.want) {
				t.Errorf("bots = %v, want %v", got, tt.want)
			}
			if g := testutil.ToFloat64(m.AudienceSize); int(g) != len(tt.want) {
				t.Errorf("audience gauge = %v, want %d", g, len(tt.want))
			}
		})
	}
}

func TestRoster_BubbleExpires(t *testing.T) {
	r, clk, _ := newTestRoster()
	r.Apply(room.JoinEvent{Bot: bot("a", "Ada", audience.Skeptical)})
	r.Apply(room.ReactionEvent{BotID: "a", Reaction: audience.Reaction{EmojiUnicode: "🤔", ScoreDelta: -1}})

	b, ok := r.Bubble("a")
	if !ok {
		t.Fatal("bubble missing right after reaction")
	}
	if b.Emotion != audience.EmotionSkeptical {
		t.Errorf("emotion = %s, want skeptical", b.Emotion)
	}

	clk.advance(1500 * time.Millisecond)
	if _, ok := r.Bubble("a"); !ok {
		t.Error("bubble expired too early")
	}
	clk.advance(100 * time.Millisecond)
	if _, ok := r.Bubble("a"); ok {
		t.Error("bubble still visible after 1.6s")
	}
	if n := len(r.Bubbles()); n != 0 {
		t.Errorf("live bubbles = %d, want 0", n)
	}
}

func TestRoster_ReactionReplacesBubble(t *testing.T) {
	r, clk, _ := newTestRoster()
	r.Apply(room.JoinEvent{Bot: bot("a", "Ada", audience.Supportive)})
	r.Apply(room.ReactionEvent{BotID: "a", Reaction: audience.Reaction{MicroPhrase: "first"}})
	clk.advance(time.Second)
	r.Apply(room.ReactionDebugEvent{BotID: "a", Reaction: audience.Reaction{MicroPhrase: "second"}})
	clk.advance(time.Second)

	b, ok := r.Bubble("a")
	if !ok || b.Reaction.MicroPhrase != "second" {
		t.Errorf("bubble = %+v, %v; want second", b, ok)
	}
}

func TestRoster_LeaveClearsBubble(t *testing.T) {
	r, _, _ := newTestRoster()
	r.Apply(room.JoinEvent{Bot: bot("a", "Ada", "")})
	r.Apply(room.ReactionEvent{BotID: "a"})
	r.Apply(room.LeaveEvent{BotID: "a"})
	if _, ok := r.Bubble("a"); ok {
		t.Error("bubble survived leave")
	}
}

func TestRoster_ChatAndFeedback(t *testing.T) {
	r, _, _ := newTestRoster()
	r.Apply(room.TranscriptEvent{Text: "Is this working?", FlushMeta: room.FlushMeta{Question: true}})
	r.Apply(room.TranscriptEvent{Text: ""})
	r.Apply(room.TranscriptEvent{Text: "Great!", FlushMeta: room.FlushMeta{Exclaim: true}})
	r.Apply(room.CoachFeedbackEvent{RoomID: "r", Feedback: json.RawMessage(`{"upsides":[]}`)})

	chat := r.Chat()
	if len(chat) != 2 {
		t.Fatalf("chat lines = %d, want 2", len(chat))
	}
	if !chat[0].Question || chat[0].Exclaim {
		t.Errorf("first line flags = %+v", chat[0])
	}
	if !chat[1].Exclaim {
		t.Errorf("second line flags = %+v", chat[1])
	}
	if fb := r.Feedback(); len(fb) != 1 || string(fb[0]) != `{"upsides":[]}` {
		t.Errorf("feedback = %s", fb)
	}

	r.Reset()
	if r.Len() != 0 || len(r.Chat()) != 0 || len(r.Feedback()) != 0 {
		t.Error("Reset left state behind")
	}
}
