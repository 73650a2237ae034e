package room

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/podiumhq/podium/internal/audience"
	"github.com/podiumhq/podium/internal/metrics"
)

type peer struct {
	path     string
	conn     *websocket.Conn
	received chan Envelope
	closed   chan struct{}
}

// mockBackend upgrades every request and hands the connection to the test.
func mockBackend(t *testing.T) (*httptest.Server, chan *peer) {
	t.Helper()
	peers := make(chan *peer, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		p := &peer{path: r.URL.Path, conn: conn, received: make(chan Envelope, 16), closed: make(chan struct{})}
		go func() {
			defer close(p.closed)
			for {
				var env Envelope
				if err := conn.ReadJSON(&env); err != nil {
					return
				}
				p.received <- env
			}
		}()
		peers <- p
	}))
	t.Cleanup(srv.Close)
	return srv, peers
}

func nextPeer(t *testing.T, peers chan *peer) *peer {
	t.Helper()
	select {
	case p := <-peers:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no connection")
		return nil
	}
}

func (p *peer) expect(t *testing.T) Envelope {
	t.Helper()
	select {
	case env := <-p.received:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("server received nothing")
		return Envelope{}
	}
}

func (p *peer) push(t *testing.T, raw string) {
	t.Helper()
	if err := p.conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		t.Fatal(err)
	}
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return nil
	}
}

func newTestClient(url string) (*Client, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewClient(url, WithMetrics(m)), m
}

func TestClient_ConnectUsesRoomPath(t *testing.T) {
	srv, peers := mockBackend(t)
	c, _ := newTestClient(srv.URL)
	defer c.Disconnect()

	if err := c.Connect(context.Background(), "room 1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	p := nextPeer(t, peers)
	if p.path != "/ws/rooms/room 1" {
		t.Errorf("path = %q", p.path)
	}
	if c.RoomID() != "room 1" || !c.IsConnected() {
		t.Errorf("RoomID=%q connected=%v", c.RoomID(), c.IsConnected())
	}
}

func TestClient_OutboundHelpers(t *testing.T) {
	srv, peers := mockBackend(t)
	c, _ := newTestClient(srv.URL)
	defer c.Disconnect()

	if err := c.Connect(context.Background(), "r1"); err != nil {
		t.Fatal(err)
	}
	p := nextPeer(t, peers)

	bot := audience.Bot{ID: "b1", Name: "Ada", Avatar: "🙂", Persona: audience.Persona{Stance: audience.Curious, Domain: audience.Tech}}

	t.Run("join", func(t *testing.T) {
		if !c.Join(bot) {
			t.Fatal("Join() = false")
		}
		env := p.expect(t)
		if env.Event != "join" {
			t.Fatalf("event = %q", env.Event)
		}
		var payload JoinEvent
		if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.Bot != bot {
			t.Errorf("payload = %s (%v)", env.Payload, err)
		}
	})

	t.Run("state_request", func(t *testing.T) {
		c.RequestState()
		env := p.expect(t)
		if env.Event != "state_request" || string(env.Payload) != "{}" {
			t.Errorf("got %s %s", env.Event, env.Payload)
		}
	})

	t.Run("seed_bots", func(t *testing.T) {
		c.SeedBots([]audience.Bot{bot})
		env := p.expect(t)
		if env.Event != "seed_bots" || !strings.Contains(string(env.Payload), `"bots":[{"id":"b1"`) {
			t.Errorf("got %s %s", env.Event, env.Payload)
		}
	})

	t.Run("client_transcript", func(t *testing.T) {
		silence, started := 1.25, 4.5
		c.SendClientTranscript("hello there.", TranscriptMeta{SilencePrecedingS: &silence, SpeechStartedTs: &started})
		env := p.expect(t)
		if env.Event != "client_transcript" {
			t.Fatalf("event = %q", env.Event)
		}
		want := `{"text":"hello there.","meta":{"silence_preceding_s":1.25,"speech_started_ts":4.5}}`
		if string(env.Payload) != want {
			t.Errorf("payload = %s, want %s", env.Payload, want)
		}
	})
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	c, m := newTestClient("http://127.0.0.1:1")
	if c.RequestState() || c.Join(audience.Bot{ID: "b"}) || c.SendJSON(map[string]int{"a": 1}) {
		t.Error("send reported success while disconnected")
	}
	if got := testutil.ToFloat64(m.SendsSkipped.WithLabelValues("room")); got != 3 {
		t.Errorf("skipped = %v, want 3", got)
	}
}

func TestClient_InboundEvents(t *testing.T) {
	srv, peers := mockBackend(t)
	c, m := newTestClient(srv.URL)
	defer c.Disconnect()

	events, stop := c.Events(16)
	defer stop()

	if err := c.Connect(context.Background(), "r1"); err != nil {
		t.Fatal(err)
	}
	p := nextPeer(t, peers)

	p.push(t, `{"event":"ready","payload":{"roomId":"r1"}}`)
	p.push(t, `garbage`)
	p.push(t, `{"event":"leave","payload":{}}`)
	p.push(t, `{"event":"join","payload":{"bot":{"id":"b1","name":"Ada"}}}`)
	p.push(t, `{"event":"mystery"}`)
	p.push(t, `{"event":"reaction","payload":{"botId":"b1","reaction":{"emoji_unicode":"🔥"}}}`)

	if _, ok := nextEvent(t, events).(ReadyEvent); !ok {
		t.Error("first event should be ready")
	}
	if e, ok := nextEvent(t, events).(JoinEvent); !ok || e.Bot.ID != "b1" {
		t.Error("second event should be join for b1")
	}
	if e, ok := nextEvent(t, events).(UnknownEvent); !ok || e.Event != "mystery" {
		t.Error("third event should be unknown")
	}
	if e, ok := nextEvent(t, events).(ReactionEvent); !ok || e.Reaction.EmojiUnicode != "🔥" {
		t.Error("fourth event should be the reaction")
	}

	if got := testutil.ToFloat64(m.MessagesMalformed.WithLabelValues("room")); got != 2 {
		t.Errorf("malformed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RoomEvents.WithLabelValues("unknown")); got != 1 {
		t.Errorf("unknown = %v, want 1", got)
	}
}

func TestClient_ReconnectToOtherRoom(t *testing.T) {
	srv, peers := mockBackend(t)
	c, _ := newTestClient(srv.URL)
	defer c.Disconnect()

	ctx := context.Background()
	if err := c.Connect(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	first := nextPeer(t, peers)
	if err := c.Connect(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := c.Connect(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	second := nextPeer(t, peers)

	select {
	case p := <-peers:
		t.Fatalf("unexpected extra connection to %s", p.path)
	default:
	}

	select {
	case <-first.closed:
	case <-time.After(2 * time.Second):
		t.Error("first connection should be closed")
	}
	if second.path != "/ws/rooms/b" || c.RoomID() != "b" {
		t.Errorf("second path=%q room=%q", second.path, c.RoomID())
	}
}

func TestClient_DisconnectThenIsConnected(t *testing.T) {
	srv, peers := mockBackend(t)
	c, _ := newTestClient(srv.URL)

	if err := c.Connect(context.Background(), "r1"); err != nil {
		t.Fatal(err)
	}
	nextPeer(t, peers)

	c.Disconnect()
	if c.IsConnected() || c.RoomID() != "" {
		t.Errorf("after Disconnect: connected=%v room=%q", c.IsConnected(), c.RoomID())
	}
	c.Disconnect()
}
