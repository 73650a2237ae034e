// Package recording captures microphone audio as mono float32 frames.
package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/metrics"
)

// ErrCaptureUnavailable wraps any failure to open the capture source
// (missing device, permission denied, no audio server).
var ErrCaptureUnavailable = errors.New("audio capture unavailable")

var ErrAlreadyRecording = errors.New("already recording")

type AudioFrame struct {
	Samples   []float32
	Timestamp time.Time
}

type Config struct {
	SampleRate        int
	FrameSize         int // samples per frame
	AnalyserSize      int // samples kept for Samples/Level
	ChannelBufferSize int
	Device            string
}

func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		FrameSize:         1024,
		AnalyserSize:      2048,
		ChannelBufferSize: 30,
	}
}

type Recorder struct {
	config    Config
	source    Source
	metrics   *metrics.Metrics
	log       zerolog.Logger
	recording atomic.Bool

	mu     sync.Mutex // guards cancel, stream, done, rate
	cancel context.CancelFunc
	stream Stream
	done   chan struct{}
	rate   int

	ringMu sync.Mutex
	ring   []float32
	pos    int
	filled bool

	bufMu sync.Mutex
	pcm   bytes.Buffer
}

type Option func(*Recorder)

func WithSource(s Source) Option {
	return func(r *Recorder) { r.source = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

func NewRecorder(config Config, opts ...Option) *Recorder {
	r := &Recorder{
		config:  config,
		metrics: metrics.Default,
		log:     logging.WithComponent("recording"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.source == nil {
		r.source = PipeWireSource{Device: config.Device, Log: r.log}
	}
	return r
}

func NewDefaultRecorder() *Recorder { return NewRecorder(DefaultConfig()) }

func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

// SampleRate is the rate of the active (or last) stream.
func (r *Recorder) SampleRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rate > 0 {
		return r.rate
	}
	return r.config.SampleRate
}

// Start opens the source and begins delivering frames. It returns once the
// stream is flowing; opening failures wrap ErrCaptureUnavailable.
func (r *Recorder) Start(ctx context.Context) (<-chan AudioFrame, error) {
	if err := r.validateConfig(); err != nil {
		return nil, err
	}
	if !r.recording.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRecording
	}

	captureCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	stream, err := r.source.Open(captureCtx, r.config.SampleRate)
	if err == nil {
		r.mu.Lock()
		if captureCtx.Err() != nil {
			// Stop ran while the source was opening.
			err = captureCtx.Err()
		} else {
			r.stream = stream
			r.rate = stream.SampleRate()
		}
		r.mu.Unlock()
		if err != nil {
			stream.Close()
		}
	}
	if err != nil {
		cancel()
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
		close(done)
		r.recording.Store(false)
		return nil, fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}

	r.ringMu.Lock()
	r.ring = make([]float32, r.config.AnalyserSize)
	r.pos, r.filled = 0, false
	r.ringMu.Unlock()

	frameCh := make(chan AudioFrame, r.config.ChannelBufferSize)
	go r.captureLoop(captureCtx, stream, frameCh, done)

	r.log.Info().Int("sampleRate", stream.SampleRate()).Msg("capture started")
	return frameCh, nil
}

// Stop tears down the capture session and waits for the capture goroutine
// to exit. It is idempotent and safe to call before Start has returned.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	stream := r.stream
	done := r.done
	r.cancel = nil
	r.stream = nil
	r.mu.Unlock()

	if stream != nil {
		// Unblocks a pending Read.
		stream.Close()
	}
	if done != nil {
		<-done
	}
	return nil
}

// Wait blocks until the capture goroutine of the current session exits.
func (r *Recorder) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Recorder) captureLoop(ctx context.Context, stream Stream, frameCh chan AudioFrame, done chan struct{}) {
	defer func() {
		stream.Close()
		close(frameCh)
		r.recording.Store(false)
		close(done)
	}()

	buf := make([]float32, r.config.FrameSize)
	var dropped int
	lastDropLog := time.Now()

	for {
		n, err := stream.Read(buf)
		if n > 0 {
			samples := make([]float32, n)
			copy(samples, buf[:n])
			r.metrics.FramesCaptured.Inc()
			r.feedAnalyser(samples)
			r.appendExport(samples)

			if ctx.Err() != nil {
				return
			}
			if !pushDropOldest(frameCh, AudioFrame{Samples: samples, Timestamp: time.Now()}) {
				dropped++
				r.metrics.FramesDropped.WithLabelValues("backpressure").Inc()
				if time.Since(lastDropLog) > time.Second {
					r.log.Warn().Int("dropped", dropped).Msg("dropping oldest frames due to backpressure")
					lastDropLog = time.Now()
					dropped = 0
				}
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				r.log.Error().Err(err).Msg("read audio")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// pushDropOldest never blocks: when ch is full the oldest queued frame is
// discarded. It reports false when a frame was evicted.
func pushDropOldest(ch chan AudioFrame, f AudioFrame) bool {
	select {
	case ch <- f:
		return true
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- f:
	default:
	}
	return false
}

func (r *Recorder) feedAnalyser(samples []float32) {
	r.ringMu.Lock()
	defer r.ringMu.Unlock()
	if len(r.ring) == 0 {
		return
	}
	for _, s := range samples {
		r.ring[r.pos] = s
		r.pos++
		if r.pos == len(r.ring) {
			r.pos = 0
			r.filled = true
		}
	}
}

// Samples copies the most recent samples, oldest first, into dst and
// returns how many were written.
func (r *Recorder) Samples(dst []float32) int {
	r.ringMu.Lock()
	defer r.ringMu.Unlock()

	avail := r.pos
	if r.filled {
		avail = len(r.ring)
	}
	n := min(len(dst), avail)
	start := r.pos - n
	for i := 0; i < n; i++ {
		idx := start + i
		if idx < 0 {
			idx += len(r.ring)
		}
		dst[i] = r.ring[idx]
	}
	return n
}

// Level is the RMS of the analyser window, in [0, 1].
func (r *Recorder) Level() float64 {
	window := make([]float32, r.config.AnalyserSize)
	n := r.Samples(window)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, s := range window[:n] {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(n))
}

func (r *Recorder) appendExport(samples []float32) {
	r.bufMu.Lock()
	r.pcm.Write(EncodePCM16(samples))
	r.bufMu.Unlock()
}

// Export returns everything captured since the last ClearBuffer as a WAV
// file. Capture keeps running.
func (r *Recorder) Export() []byte {
	r.bufMu.Lock()
	pcm := make([]byte, r.pcm.Len())
	copy(pcm, r.pcm.Bytes())
	r.bufMu.Unlock()
	return EncodeWAV(pcm, r.SampleRate(), 1)
}

// BufferedDuration is the length of audio held for Export.
func (r *Recorder) BufferedDuration() time.Duration {
	r.bufMu.Lock()
	n := r.pcm.Len() / 2
	r.bufMu.Unlock()
	return time.Duration(n) * time.Second / time.Duration(r.SampleRate())
}

// ClearBuffer drops the exported audio without touching the capture graph.
func (r *Recorder) ClearBuffer() {
	r.bufMu.Lock()
	r.pcm.Reset()
	r.bufMu.Unlock()
}

func (r *Recorder) validateConfig() error {
	if r.config.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", r.config.SampleRate)
	}
	if r.config.FrameSize <= 0 {
		return fmt.Errorf("invalid FrameSize: %d", r.config.FrameSize)
	}
	if r.config.AnalyserSize <= 0 {
		return fmt.Errorf("invalid AnalyserSize: %d", r.config.AnalyserSize)
	}
	if r.config.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid ChannelBufferSize: %d", r.config.ChannelBufferSize)
	}
	return nil
}
