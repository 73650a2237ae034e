// Package wsclient is a single-connection JSON WebSocket client. Each Client
// owns at most one live connection, identified by a key (the room id).
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/metrics"
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrAborted is returned by Connect when Disconnect or a newer Connect
// supersedes an in-flight dial.
var ErrAborted = errors.New("connect aborted")

// Handler receives every well-formed inbound message in arrival order.
type Handler func(msg json.RawMessage)

const writeTimeout = 5 * time.Second

type subscriber struct {
	id uint64
	fn Handler
}

type Client struct {
	name    string
	dialer  *websocket.Dialer
	header  http.Header
	metrics *metrics.Metrics
	log     zerolog.Logger
	onClose func(key string, err error)

	connectMu sync.Mutex // serialises Connect

	mu         sync.Mutex // guards the fields below
	state      State
	key        string
	conn       *websocket.Conn
	gen        uint64
	dialCancel context.CancelFunc

	writeMu sync.Mutex

	subMu  sync.RWMutex
	subs   []subscriber
	nextID uint64
}

type Option func(*Client)

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h.Clone() }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithOnClose registers a callback for connections closed by the peer or by
// a transport error. It is not called for Disconnect.
func WithOnClose(fn func(key string, err error)) Option {
	return func(c *Client) { c.onClose = fn }
}

// New creates a client; name labels its logs and metrics.
func New(name string, opts ...Option) *Client {
	c := &Client{
		name: name,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		metrics: metrics.Default,
		log:     logging.WithComponent(name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == Connected
}

// Key returns the key of the current connection, or "" when disconnected.
func (c *Client) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Disconnected {
		return ""
	}
	return c.key
}

// Connect opens a connection to url under key. It is a no-op when a
// connection for the same key is already open. Any other existing
// connection is closed first. Connect returns once the handshake completes.
func (c *Client) Connect(ctx context.Context, key, url string) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	if c.state == Connected && c.key == key {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.Disconnect()

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.state = Connecting
	c.key = key
	c.dialCancel = cancel
	gen := c.gen
	c.mu.Unlock()

	c.log.Debug().Str("key", key).Str("url", url).Msg("connecting")
	conn, resp, err := c.dialer.DialContext(dialCtx, url, c.header)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		c.metrics.ChannelConnects.WithLabelValues(c.name, "aborted").Inc()
		return fmt.Errorf("connect %s: %w", key, ErrAborted)
	}
	c.dialCancel = nil
	if err != nil {
		c.state = Disconnected
		c.key = ""
		c.mu.Unlock()
		c.metrics.ChannelConnects.WithLabelValues(c.name, "error").Inc()
		if resp != nil {
			return fmt.Errorf("connect %s: %w (status %d)", key, err, resp.StatusCode)
		}
		return fmt.Errorf("connect %s: %w", key, err)
	}
	c.conn = conn
	c.state = Connected
	c.mu.Unlock()

	c.metrics.ChannelConnects.WithLabelValues(c.name, "ok").Inc()
	c.log.Info().Str("key", key).Msg("connected")

	go c.readLoop(conn, key, gen)
	return nil
}

// Disconnect closes the current connection, if any, and clears the key.
// Safe to call from any state, any number of times, including from a
// Handler.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.gen++
	conn := c.conn
	cancel := c.dialCancel
	key := c.key
	wasConnected := c.state != Disconnected
	c.conn = nil
	c.dialCancel = nil
	c.state = Disconnected
	c.key = ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		conn.Close()
	}
	if wasConnected {
		c.log.Info().Str("key", key).Msg("disconnected")
	}
}

// SendJSON writes v as a text frame. It is fire-and-forget: when there is
// no open connection, or the write fails, nothing is sent and false is
// returned.
func (c *Client) SendJSON(v any) bool {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == Connected
	c.mu.Unlock()

	if !connected || conn == nil {
		c.metrics.SendsSkipped.WithLabelValues(c.name).Inc()
		return false
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Msg("encode outbound message")
		return false
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Debug().Err(err).Msg("write failed")
		return false
	}
	c.metrics.MessagesSent.WithLabelValues(c.name).Inc()
	return true
}

// Subscribe registers fn and returns a function that removes it. Messages
// received before Subscribe are not replayed.
func (c *Client) Subscribe(fn Handler) (unsubscribe func()) {
	c.subMu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Client) readLoop(conn *websocket.Conn, key string, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stale := c.gen != gen
			if !stale {
				c.gen++
				c.conn = nil
				c.state = Disconnected
				c.key = ""
			}
			c.mu.Unlock()
			conn.Close()

			if !stale {
				c.log.Info().Err(err).Str("key", key).Msg("connection closed")
				if c.onClose != nil {
					c.onClose(key, err)
				}
			}
			return
		}

		if !json.Valid(data) {
			c.metrics.MessagesMalformed.WithLabelValues(c.name).Inc()
			c.log.Debug().Int("bytes", len(data)).Msg("dropping malformed message")
			continue
		}
		if !c.current(gen) {
			continue
		}
		c.metrics.MessagesReceived.WithLabelValues(c.name).Inc()
		c.dispatch(json.RawMessage(data))
	}
}

func (c *Client) dispatch(msg json.RawMessage) {
	c.subMu.RLock()
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.subMu.RUnlock()

	for _, s := range subs {
		c.invoke(s.fn, msg)
	}
}

func (c *Client) invoke(fn Handler, msg json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.HandlerPanics.WithLabelValues(c.name).Inc()
			c.log.Error().Interface("panic", r).Msg("subscriber panicked")
		}
	}()
	fn(msg)
}
