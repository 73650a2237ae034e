// Package relay forwards speech provider events to the backend over the
// transcript channel (/ws/transcript/<roomId>). It runs on its own
// connection so resetting it never disturbs the room channel.
package relay

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/metrics"
	"github.com/podiumhq/podium/internal/wsclient"
)

const (
	channelName = "relay"
	pathPrefix  = "/ws/transcript/"

	EventSpeechStarted = "dg_speech_started"
	EventUtteranceEnd  = "dg_utterance_end"
	EventTranscript    = "dg_transcript"
)

type Client struct {
	baseURL string
	ws      *wsclient.Client
	log     zerolog.Logger
}

type Option func(*config)

type config struct {
	metrics *metrics.Metrics
	log     zerolog.Logger
	wsOpts  []wsclient.Option
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.log = l }
}

func WithSocketOptions(opts ...wsclient.Option) Option {
	return func(c *config) { c.wsOpts = append(c.wsOpts, opts...) }
}

func NewClient(baseURL string, opts ...Option) *Client {
	cfg := config{
		metrics: metrics.Default,
		log:     logging.WithComponent(channelName),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	base := []wsclient.Option{wsclient.WithLogger(cfg.log), wsclient.WithMetrics(cfg.metrics)}
	return &Client{
		baseURL: baseURL,
		ws:      wsclient.New(channelName, append(base, cfg.wsOpts...)...),
		log:     cfg.log,
	}
}

func (c *Client) Connect(ctx context.Context, roomID string) error {
	u, err := wsclient.EndpointURL(c.baseURL, pathPrefix, roomID)
	if err != nil {
		return err
	}
	return c.ws.Connect(ctx, roomID, u)
}

func (c *Client) Disconnect()           { c.ws.Disconnect() }
func (c *Client) IsConnected() bool     { return c.ws.IsConnected() }
func (c *Client) State() wsclient.State { return c.ws.State() }
func (c *Client) RoomID() string        { return c.ws.Key() }
func (c *Client) SendJSON(v any) bool   { return c.ws.SendJSON(v) }

// Subscribe delivers any well-formed JSON the backend sends back.
func (c *Client) Subscribe(fn func(json.RawMessage)) (unsubscribe func()) {
	return c.ws.Subscribe(fn)
}

type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type providerPayload struct {
	Payload json.RawMessage `json:"payload"`
	Text    *string         `json:"text,omitempty"`
}

func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return json.RawMessage("{}")
	}
	return raw
}

// SpeechStarted forwards the provider's speech-started message.
func (c *Client) SpeechStarted(raw json.RawMessage) bool {
	return c.ws.SendJSON(envelope{EventSpeechStarted, providerPayload{Payload: rawOrEmpty(raw)}})
}

// UtteranceEnd forwards the provider's utterance-end message.
func (c *Client) UtteranceEnd(raw json.RawMessage) bool {
	return c.ws.SendJSON(envelope{EventUtteranceEnd, providerPayload{Payload: rawOrEmpty(raw)}})
}

// Transcript forwards a transcript result with its extracted text.
func (c *Client) Transcript(raw json.RawMessage, text string) bool {
	return c.ws.SendJSON(envelope{EventTranscript, providerPayload{Payload: rawOrEmpty(raw), Text: &text}})
}
