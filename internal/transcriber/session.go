// Package transcriber streams captured audio to Deepgram's live API and
// surfaces its recognition events.
package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/metrics"
	"github.com/podiumhq/podium/internal/recording"
	"github.com/podiumhq/podium/internal/room"
	"github.com/podiumhq/podium/internal/speech"
)

type Config struct {
	APIKey          string
	Endpoint        string
	Model           string
	Language        string
	InterimResults  bool
	SmartFormat     bool
	FillerWords     bool
	UtteranceEndMs  int
	EndpointingMs   int
	Keywords        []string
	FinalizeTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Endpoint:        "wss://api.deepgram.com/v1/listen",
		Model:           "nova-3",
		Language:        "en",
		InterimResults:  true,
		SmartFormat:     true,
		FillerWords:     true,
		UtteranceEndMs:  1000,
		EndpointingMs:   400,
		FinalizeTimeout: 3 * time.Second,
	}
}

// Capture is the audio source a session drives. *recording.Recorder
// satisfies it.
type Capture interface {
	Start(ctx context.Context) (<-chan recording.AudioFrame, error)
	Stop() error
	SampleRate() int
}

// Transcript is one recognition result. Raw is the provider message as
// received.
type Transcript struct {
	Text        string
	IsFinal     bool
	SpeechFinal bool
	Start       float64
	Duration    float64
	Words       []speech.Word
	Meta        room.TranscriptMeta
	Raw         json.RawMessage
}

// Handlers are invoked from the session's read goroutine, in message order.
// Any of them may be nil.
type Handlers struct {
	OnOpen          func()
	OnClose         func(err error)
	OnSpeechStarted func(ts *float64, raw json.RawMessage)
	OnUtteranceEnd  func(ts *float64, raw json.RawMessage)
	OnTranscript    func(t Transcript)
}

type finalKey struct{ start, duration float64 }

// stream is the state of one Start..Stop cycle.
type stream struct {
	conn     *websocket.Conn
	cancel   context.CancelFunc
	openedAt time.Time
	open     atomic.Bool
	writeMu  sync.Mutex
	readDone chan struct{}
	fwdDone  chan struct{}
	seen     map[finalKey]struct{}
	closeErr error
}

type Session struct {
	cfg      Config
	capture  Capture
	handlers Handlers
	dialer   *websocket.Dialer
	metrics  *metrics.Metrics
	log      zerolog.Logger
	silence  SilenceTracker

	mu  sync.Mutex
	cur *stream

	resultsMu sync.Mutex
	finals    []string
	words     []speech.Word
}

type Option func(*Session)

func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

func NewSession(cfg Config, capture Capture, h Handlers, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg,
		capture:  capture,
		handlers: h,
		dialer:   websocket.DefaultDialer,
		metrics:  metrics.Default,
		log:      logging.WithComponent("transcriber"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// IsOpen reports whether audio is currently being forwarded.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil && s.cur.open.Load()
}

// Start opens capture, connects to the provider and begins forwarding
// audio. It returns once both are wired.
func (s *Session) Start(ctx context.Context) error {
	if s.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil {
		return ErrAlreadyStarted
	}

	s.silence.Reset()
	s.resultsMu.Lock()
	s.finals, s.words = nil, nil
	s.resultsMu.Unlock()

	// Capture outlives Start's ctx; Stop ends it.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	frames, err := s.capture.Start(streamCtx)
	if err != nil {
		cancel()
		return err
	}

	// Frames captured before the socket opens are dropped, never queued.
	st := &stream{
		cancel:   cancel,
		readDone: make(chan struct{}),
		fwdDone:  make(chan struct{}),
		seen:     make(map[finalKey]struct{}),
	}
	go s.forward(st, frames)

	abort := func() {
		cancel()
		s.capture.Stop()
		<-st.fwdDone
	}

	wsURL, err := s.cfg.buildURL(s.capture.SampleRate())
	if err != nil {
		abort()
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+s.cfg.APIKey)
	conn, resp, err := s.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		abort()
		s.metrics.ChannelConnects.WithLabelValues("deepgram", "error").Inc()
		if resp != nil {
			return fmt.Errorf("deepgram dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("deepgram dial: %w", err)
	}
	s.metrics.ChannelConnects.WithLabelValues("deepgram", "ok").Inc()

	st.conn = conn
	st.openedAt = time.Now()
	st.open.Store(true)
	s.cur = st
	s.metrics.SessionsActive.Inc()

	s.log.Info().Str("model", s.cfg.Model).Int("sampleRate", s.capture.SampleRate()).Msg("deepgram live open")
	if s.handlers.OnOpen != nil {
		s.handlers.OnOpen()
	}

	go s.readLoop(st)
	return nil
}

// forward encodes and sends each frame captured while the stream is open;
// anything else is dropped.
func (s *Session) forward(st *stream, frames <-chan recording.AudioFrame) {
	defer close(st.fwdDone)
	for f := range frames {
		if !st.open.Load() || f.Timestamp.Before(st.openedAt) {
			s.metrics.FramesDropped.WithLabelValues("stream_closed").Inc()
			continue
		}
		data := recording.EncodePCM16(f.Samples)
		st.writeMu.Lock()
		err := st.conn.WriteMessage(websocket.BinaryMessage, data)
		st.writeMu.Unlock()
		if err != nil {
			s.metrics.FramesDropped.WithLabelValues("send_error").Inc()
			s.log.Debug().Err(err).Msg("send audio")
			continue
		}
		s.metrics.FramesSent.Inc()
	}
}

func (s *Session) readLoop(st *stream) {
	defer func() {
		st.open.Store(false)
		close(st.readDone)
		if s.handlers.OnClose != nil {
			s.handlers.OnClose(st.closeErr)
		}
		s.log.Info().Msg("deepgram live closed")
	}()

	for {
		_, raw, err := st.conn.ReadMessage()
		if err != nil {
			if st.closeErr == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				st.closeErr = err
			}
			return
		}
		s.handle(st, raw)
	}
}

func (s *Session) handle(st *stream, raw []byte) {
	msg, err := parseDeepgram(raw)
	if err != nil {
		s.metrics.MessagesMalformed.WithLabelValues("deepgram").Inc()
		s.log.Debug().Err(err).Msg("drop message")
		return
	}
	s.metrics.MessagesReceived.WithLabelValues("deepgram").Inc()
	payload := json.RawMessage(raw)

	switch msg.Type {
	case msgResults:
		text, words := msg.transcript()
		t := Transcript{
			Text:        text,
			IsFinal:     msg.IsFinal,
			SpeechFinal: msg.SpeechFinal,
			Start:       msg.Start,
			Duration:    msg.Duration,
			Words:       words,
			Raw:         payload,
		}
		if t.IsFinal {
			key := finalKey{msg.Start, msg.Duration}
			if _, dup := st.seen[key]; dup {
				return
			}
			st.seen[key] = struct{}{}
			t.Meta = s.silence.Meta()
			s.metrics.TranscriptsFinal.Inc()
			if text != "" {
				s.resultsMu.Lock()
				s.finals = append(s.finals, text)
				s.words = append(s.words, words...)
				s.resultsMu.Unlock()
			}
		} else {
			s.metrics.TranscriptsInterim.Inc()
		}
		if s.handlers.OnTranscript != nil {
			s.handlers.OnTranscript(t)
		}

	case msgSpeechStarted:
		s.metrics.SpeechBoundaries.WithLabelValues("speech_started").Inc()
		s.silence.SpeechStarted(msg.Timestamp)
		if s.handlers.OnSpeechStarted != nil {
			s.handlers.OnSpeechStarted(msg.Timestamp, payload)
		}

	case msgUtteranceEnd:
		s.metrics.SpeechBoundaries.WithLabelValues("utterance_end").Inc()
		ts := msg.utteranceEnd()
		s.silence.UtteranceEnd(ts)
		if s.handlers.OnUtteranceEnd != nil {
			s.handlers.OnUtteranceEnd(ts, payload)
		}

	case msgMetadata:
		s.log.Debug().Str("requestId", msg.RequestID).Msg("deepgram metadata")

	case msgError:
		st.closeErr = fmt.Errorf("deepgram: %s", msg.errorText())
		s.log.Error().Str("detail", msg.errorText()).Msg("deepgram error")

	default:
		s.log.Debug().Str("type", msg.Type).Msg("unhandled deepgram message")
	}
}

// Stop flushes the provider, closes the socket and stops capture. Safe to
// call when no session is active.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	st := s.cur
	s.cur = nil
	s.mu.Unlock()
	if st == nil {
		return nil
	}
	defer s.metrics.SessionsActive.Dec()

	if s.cfg.FinalizeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FinalizeTimeout)
		defer cancel()
	}

	// No audio may follow CloseStream.
	wasOpen := st.open.Swap(false)
	if wasOpen {
		st.writeMu.Lock()
		err := st.conn.WriteJSON(deepgramControl{Type: "CloseStream"})
		st.writeMu.Unlock()
		if err != nil {
			s.log.Debug().Err(err).Msg("send CloseStream")
		} else {
			select {
			case <-st.readDone:
			case <-ctx.Done():
				s.log.Warn().Msg("deepgram did not flush before timeout")
			}
		}
	}

	st.writeMu.Lock()
	_ = st.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	st.writeMu.Unlock()
	st.conn.Close()
	<-st.readDone

	st.cancel()
	err := s.capture.Stop()
	<-st.fwdDone
	return err
}

// FinalText joins every finalised transcript of the current or last session.
func (s *Session) FinalText() string {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	return strings.Join(s.finals, " ")
}

// Words returns the word timings of every finalised transcript.
func (s *Session) Words() []speech.Word {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	out := make([]speech.Word, len(s.words))
	copy(out, s.words)
	return out
}

// Meta is the timing context for the most recent utterance.
func (s *Session) Meta() room.TranscriptMeta {
	return s.silence.Meta()
}
