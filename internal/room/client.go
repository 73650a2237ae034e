// Package room is the client for a rehearsal room's event channel
// (/ws/rooms/<roomId>): audience joins and leaves, roster snapshots,
// transcript echoes and bot reactions.
package room

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/audience"
	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/metrics"
	"github.com/podiumhq/podium/internal/wsclient"
)

const (
	channelName = "room"
	pathPrefix  = "/ws/rooms/"
)

// TranscriptMeta is the timing context sent with a finalised transcript.
// Timestamps are in the speech provider's clock, in seconds.
type TranscriptMeta struct {
	SilencePrecedingS  *float64 `json:"silence_preceding_s,omitempty"`
	SpeechStartedTs    *float64 `json:"speech_started_ts,omitempty"`
	LastUtteranceEndTs *float64 `json:"last_utterance_end_ts,omitempty"`
}

type Client struct {
	baseURL string
	ws      *wsclient.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
	wsOpts  []wsclient.Option
}

type Option func(*Client)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithSocketOptions passes options through to the underlying connection.
func WithSocketOptions(opts ...wsclient.Option) Option {
	return func(c *Client) { c.wsOpts = append(c.wsOpts, opts...) }
}

// NewClient returns a disconnected client for the backend at baseURL
// (http, https, ws or wss).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		metrics: metrics.Default,
		log:     logging.WithComponent(channelName),
	}
	for _, opt := range opts {
		opt(c)
	}
	base := []wsclient.Option{wsclient.WithLogger(c.log), wsclient.WithMetrics(c.metrics)}
	c.ws = wsclient.New(channelName, append(base, c.wsOpts...)...)
	return c
}

// Connect opens the room channel. Connecting to the room that is already
// open is a no-op; connecting to another room closes the current one first.
func (c *Client) Connect(ctx context.Context, roomID string) error {
	u, err := wsclient.EndpointURL(c.baseURL, pathPrefix, roomID)
	if err != nil {
		return err
	}
	return c.ws.Connect(ctx, roomID, u)
}

func (c *Client) Disconnect() {
	c.ws.Disconnect()
}

func (c *Client) IsConnected() bool {
	return c.ws.IsConnected()
}

func (c *Client) State() wsclient.State {
	return c.ws.State()
}

// RoomID is the room of the current connection, or "".
func (c *Client) RoomID() string {
	return c.ws.Key()
}

// Subscribe delivers decoded events in arrival order. Messages that are not
// JSON never arrive here; JSON that does not decode as a known event shape
// is logged and skipped.
func (c *Client) Subscribe(fn func(Event)) (unsubscribe func()) {
	return c.ws.Subscribe(func(raw json.RawMessage) {
		ev, ok := c.decode(raw)
		if ok {
			fn(ev)
		}
	})
}

// SubscribeRaw delivers every well-formed JSON message untouched.
func (c *Client) SubscribeRaw(fn func(json.RawMessage)) (unsubscribe func()) {
	return c.ws.Subscribe(fn)
}

// Events returns a bounded channel of decoded events. When the consumer
// falls behind, the oldest buffered event is discarded.
func (c *Client) Events(size int) (<-chan Event, func()) {
	q := wsclient.NewQueue[Event](size)
	unsub := c.Subscribe(func(ev Event) {
		if q.Push(ev) {
			c.log.Debug().Uint64("dropped", q.Dropped()).Msg("event queue full, dropped oldest")
		}
	})
	return q.C(), func() {
		unsub()
		q.Close()
	}
}

func (c *Client) decode(raw json.RawMessage) (Event, bool) {
	ev, err := Decode(raw)
	if err != nil {
		c.metrics.MessagesMalformed.WithLabelValues(channelName).Inc()
		c.log.Debug().Err(err).Msg("dropping undecodable event")
		return nil, false
	}
	if _, unknown := ev.(UnknownEvent); unknown {
		c.metrics.RoomEvents.WithLabelValues("unknown").Inc()
		c.log.Debug().Str("event", ev.Name()).Msg("unknown event")
	} else {
		c.metrics.RoomEvents.WithLabelValues(ev.Name()).Inc()
	}
	return ev, true
}

// SendJSON writes v as-is. It does nothing when the channel is not open.
func (c *Client) SendJSON(v any) bool {
	return c.ws.SendJSON(v)
}

// Send wraps payload in the {event, payload} envelope.
func (c *Client) Send(event string, payload any) bool {
	if payload == nil {
		payload = struct{}{}
	}
	return c.ws.SendJSON(struct {
		Event   string `json:"event"`
		Payload any    `json:"payload"`
	}{event, payload})
}

// Join seeds a bot the client already knows about.
func (c *Client) Join(bot audience.Bot) bool {
	return c.Send(EventJoin, JoinEvent{Bot: bot})
}

// SeedBots announces several bots in one message.
func (c *Client) SeedBots(bots []audience.Bot) bool {
	return c.Send(EventSeedBots, StateEvent{Bots: bots})
}

// RequestState asks the backend for a full roster snapshot.
func (c *Client) RequestState() bool {
	return c.Send(EventStateRequest, struct{}{})
}

// SendClientTranscript forwards a finalised transcript for audience
// reactions.
func (c *Client) SendClientTranscript(text string, meta TranscriptMeta) bool {
	return c.Send(EventClientTranscript, struct {
		Text string         `json:"text"`
		Meta TranscriptMeta `json:"meta"`
	}{text, meta})
}
