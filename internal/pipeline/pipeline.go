// Package pipeline runs one rehearsal end to end: room setup, live
// transcription relayed to the backend, and the closing report.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/api"
	"github.com/podiumhq/podium/internal/audience"
	"github.com/podiumhq/podium/internal/coach"
	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/metrics"
	"github.com/podiumhq/podium/internal/notify"
	"github.com/podiumhq/podium/internal/relay"
	"github.com/podiumhq/podium/internal/room"
	"github.com/podiumhq/podium/internal/roster"
	"github.com/podiumhq/podium/internal/speech"
	"github.com/podiumhq/podium/internal/storage"
	"github.com/podiumhq/podium/internal/transcriber"
)

type Status string
type Action string

const (
	Idle       Status = "idle"
	Connecting Status = "connecting"
	Recording  Status = "recording"
	Reporting  Status = "reporting"
)

const (
	Finish Action = "finish"
	Abort  Action = "abort"
)

var ErrAborted = errors.New("rehearsal aborted")

// RoomAPI is the part of the backend HTTP API a rehearsal needs.
type RoomAPI interface {
	CreateRoom(ctx context.Context, in api.CreateRoomRequest) (*api.Room, error)
	RequestFeedback(ctx context.Context, roomID string, audio io.Reader, filename string) (*api.Feedback, error)
}

// Recorder is the capture side: a transcriber.Capture that also keeps the
// session's audio for export.
type Recorder interface {
	transcriber.Capture
	Export() []byte
	BufferedDuration() time.Duration
	ClearBuffer()
}

type Config struct {
	// RoomID joins an existing room instead of creating one.
	RoomID         string
	Room           api.CreateRoomRequest
	MaxDuration    time.Duration
	GoalSeconds    int
	ChunkInterval  time.Duration
	UploadFeedback bool
	// FeedbackWait bounds how long to wait for a queued coach_feedback
	// event after upload. Zero returns immediately.
	FeedbackWait time.Duration
	// StopTimeout bounds flushing the transcription stream.
	StopTimeout time.Duration
	// ReportTimeout bounds export, upload, the feedback wait and the coach.
	// Zero means FeedbackWait plus 90s.
	ReportTimeout time.Duration
}

type Deps struct {
	API             RoomAPI
	Room            *room.Client
	Relay           *relay.Client
	Recorder        Recorder
	Transcriber     transcriber.Config
	TranscriberOpts []transcriber.Option
	Coach           *coach.Coach
	Exporter        *storage.Exporter
	Notifier        notify.Notifier
	Metrics         *metrics.Metrics
	// OnChunk receives transcript text grouped at sentence boundaries.
	OnChunk func(speech.Chunk)
}

// Result is what a finished rehearsal leaves behind.
type Result struct {
	RoomID        string            `json:"roomId"`
	Transcript    string            `json:"transcript"`
	Duration      time.Duration     `json:"duration"`
	Report        speech.Report     `json:"report"`
	Bots          []audience.Bot    `json:"bots"`
	Chat          []roster.ChatLine `json:"chat"`
	Feedback      *api.Feedback     `json:"feedback,omitempty"`
	CoachFeedback json.RawMessage   `json:"coachFeedback,omitempty"`
	RecordingKey  string            `json:"recordingKey,omitempty"`
	RecordingURL  string            `json:"recordingUrl,omitempty"`
}

type Pipeline interface {
	Run(ctx context.Context)
	Stop()
	Status() Status
	Actions() chan<- Action
	Done() <-chan struct{}
	Result() (*Result, error)
	RoomID() string
	Interim() string
	Roster() *roster.Roster
}

type pipeline struct {
	cfg  Config
	deps Deps
	log  zerolog.Logger

	mu      sync.Mutex
	status  Status
	roomID  string
	interim string
	result  *Result
	err     error

	actionCh chan Action
	closedCh chan error
	feedback chan json.RawMessage
	done     chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	roster  *roster.Roster
	chunks  *speech.ChunkBuffer
	posting atomic.Bool
}

func New(cfg Config, deps Deps) Pipeline {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Default
	}
	if deps.Coach == nil {
		deps.Coach = coach.New(nil, 0)
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}
	if cfg.ChunkInterval <= 0 {
		cfg.ChunkInterval = 3 * time.Second
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = cfg.FeedbackWait + 90*time.Second
	}
	return &pipeline{
		cfg:      cfg,
		deps:     deps,
		log:      logging.WithComponent("pipeline"),
		status:   Idle,
		actionCh: make(chan Action, 1),
		closedCh: make(chan error, 1),
		feedback: make(chan json.RawMessage, 1),
		done:     make(chan struct{}),
		roster:   roster.New(roster.WithMetrics(deps.Metrics)),
		chunks:   speech.NewChunkBuffer(cfg.ChunkInterval),
	}
}

func (p *pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *pipeline) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
	p.log.Debug().Str("status", string(s)).Msg("status changed")
}

func (p *pipeline) Actions() chan<- Action {
	return p.actionCh
}

func (p *pipeline) Done() <-chan struct{} {
	return p.done
}

func (p *pipeline) Result() (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result, p.err
}

func (p *pipeline) RoomID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roomID
}

// Interim is the latest not-yet-final transcript text.
func (p *pipeline) Interim() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interim
}

func (p *pipeline) Roster() *roster.Roster {
	return p.roster
}

// Stop aborts the rehearsal and waits for teardown.
func (p *pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *pipeline) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go p.run(runCtx)
}

func (p *pipeline) run(ctx context.Context) {
	defer func() {
		p.wg.Done()
		close(p.done)
	}()

	res, err := p.rehearse(ctx)
	if err != nil && !errors.Is(err, ErrAborted) {
		p.log.Error().Err(err).Msg("rehearsal failed")
		p.deps.Notifier.Error(err.Error())
	}

	p.mu.Lock()
	p.result, p.err = res, err
	p.status = Idle
	p.mu.Unlock()
}

func (p *pipeline) rehearse(ctx context.Context) (*Result, error) {
	p.setStatus(Connecting)

	unsub := p.deps.Room.Subscribe(p.onRoomEvent)
	defer unsub()

	roomID, err := p.openRoom(ctx)
	if err != nil {
		return nil, err
	}
	defer p.deps.Room.Disconnect()
	defer p.deps.Relay.Disconnect()
	p.log = logging.WithRoom("pipeline", roomID)

	sess := transcriber.NewSession(p.deps.Transcriber, p.deps.Recorder, p.handlers(), p.deps.TranscriberOpts...)
	p.deps.Recorder.ClearBuffer()
	if err := sess.Start(ctx); err != nil {
		return nil, fmt.Errorf("start transcription: %w", err)
	}
	started := time.Now()
	p.setStatus(Recording)
	p.deps.Notifier.Send(notify.MsgRehearsalStarted)
	p.log.Info().Msg("rehearsal started")

	var timeout <-chan time.Time
	if p.cfg.MaxDuration > 0 {
		t := time.NewTimer(p.cfg.MaxDuration)
		defer t.Stop()
		timeout = t.C
	}

	action := Finish
	select {
	case action = <-p.actionCh:
		p.log.Debug().Str("action", string(action)).Msg("received action")
	case <-timeout:
		p.log.Info().Dur("max", p.cfg.MaxDuration).Msg("time is up")
	case err := <-p.closedCh:
		p.log.Warn().Err(err).Msg("transcription stream closed early")
		p.deps.Notifier.Send(notify.MsgConnectionLost)
	case <-ctx.Done():
		action = Abort
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.StopTimeout)
	defer cancel()
	if err := sess.Stop(stopCtx); err != nil {
		p.log.Warn().Err(err).Msg("stop transcription")
	}
	if c, ok := p.chunks.Drain(); ok && p.deps.OnChunk != nil {
		p.deps.OnChunk(c)
	}

	if action == Abort {
		p.deps.Notifier.Send(notify.MsgRehearsalAborted)
		return nil, ErrAborted
	}

	p.setStatus(Reporting)
	p.deps.Notifier.Send(notify.MsgRehearsalStopped)

	elapsed := p.deps.Recorder.BufferedDuration()
	if elapsed <= 0 {
		elapsed = time.Since(started)
	}
	// Reporting outlives Stop; only the feedback wait is cut short by it.
	reportCtx, cancelReport := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.ReportTimeout)
	defer cancelReport()
	res := p.report(reportCtx, ctx.Done(), roomID, sess, elapsed)
	p.deps.Notifier.Send(notify.MsgFeedbackReady)
	return res, nil
}

// openRoom creates the room unless one was given, then connects both
// channels. The relay is best effort: reactions only need the room channel.
func (p *pipeline) openRoom(ctx context.Context) (string, error) {
	roomID := p.cfg.RoomID
	var seed []audience.Bot
	if roomID == "" {
		created, err := p.deps.API.CreateRoom(ctx, p.cfg.Room)
		if err != nil {
			return "", fmt.Errorf("create room: %w", err)
		}
		roomID = created.ID
		seed = created.Bots
	}
	p.mu.Lock()
	p.roomID = roomID
	p.mu.Unlock()

	if err := p.deps.Room.Connect(ctx, roomID); err != nil {
		return "", fmt.Errorf("connect room %s: %w", roomID, err)
	}
	if len(seed) > 0 {
		p.deps.Room.SeedBots(seed)
	}
	p.deps.Room.RequestState()

	if err := p.deps.Relay.Connect(ctx, roomID); err != nil {
		p.log.Warn().Err(err).Str("roomId", roomID).Msg("transcript relay unavailable")
	}
	return roomID, nil
}

func (p *pipeline) onRoomEvent(ev room.Event) {
	p.roster.Apply(ev)
	if fb, ok := ev.(room.CoachFeedbackEvent); ok {
		select {
		case p.feedback <- fb.Feedback:
		default:
		}
	}
}

func (p *pipeline) handlers() transcriber.Handlers {
	return transcriber.Handlers{
		OnSpeechStarted: func(_ *float64, raw json.RawMessage) {
			p.deps.Relay.SpeechStarted(raw)
		},
		OnUtteranceEnd: func(_ *float64, raw json.RawMessage) {
			p.deps.Relay.UtteranceEnd(raw)
		},
		OnTranscript: p.onTranscript,
		OnClose: func(err error) {
			select {
			case p.closedCh <- err:
			default:
			}
		},
	}
}

func (p *pipeline) onTranscript(t transcriber.Transcript) {
	if !t.IsFinal {
		p.mu.Lock()
		p.interim = t.Text
		p.mu.Unlock()
		return
	}
	p.mu.Lock()
	p.interim = ""
	p.mu.Unlock()
	if t.Text == "" {
		return
	}

	p.deps.Relay.Transcript(t.Raw, t.Text)
	p.post(t.Text, t.Meta)

	if c, ok := p.chunks.Append(t.Text); ok && p.deps.OnChunk != nil {
		p.deps.OnChunk(c)
	}
}

// post forwards a final transcript to the room. A post still in flight
// causes the next one to be skipped.
func (p *pipeline) post(text string, meta room.TranscriptMeta) {
	if !p.posting.CompareAndSwap(false, true) {
		p.log.Debug().Msg("transcript post in flight, skipping")
		return
	}
	defer p.posting.Store(false)
	if !p.deps.Room.SendClientTranscript(text, meta) {
		p.log.Debug().Msg("room not connected, transcript not posted")
	}
}

func (p *pipeline) report(ctx context.Context, interrupt <-chan struct{}, roomID string, sess *transcriber.Session, elapsed time.Duration) *Result {
	text := sess.FinalText()
	res := &Result{
		RoomID:     roomID,
		Transcript: text,
		Duration:   elapsed,
		Bots:       p.roster.Bots(),
		Chat:       p.roster.Chat(),
	}

	wav := p.deps.Recorder.Export()
	if p.deps.Exporter != nil && len(wav) > 0 {
		key, url, err := p.deps.Exporter.ExportWAV(ctx, roomID, wav)
		if err != nil {
			p.log.Warn().Err(err).Msg("export recording")
		} else {
			res.RecordingKey, res.RecordingURL = key, url
		}
	}

	if p.cfg.UploadFeedback && p.deps.API != nil && len(wav) > 0 {
		fb, err := p.deps.API.RequestFeedback(ctx, roomID, bytes.NewReader(wav), "pitch.wav")
		switch {
		case err != nil:
			p.log.Warn().Err(err).Msg("request feedback")
		case fb.Queued():
			res.Feedback = fb
			res.CoachFeedback = p.awaitFeedback(ctx, interrupt)
		default:
			res.Feedback = fb
			res.CoachFeedback = fb.Report
		}
	}

	res.Report = p.deps.Coach.Report(ctx, speech.Input{
		Transcript:   text,
		Words:        sess.Words(),
		DurationSecs: elapsed.Seconds(),
		GoalSecs:     p.cfg.GoalSeconds,
	})
	return res
}

func (p *pipeline) awaitFeedback(ctx context.Context, interrupt <-chan struct{}) json.RawMessage {
	if p.cfg.FeedbackWait <= 0 {
		return nil
	}
	t := time.NewTimer(p.cfg.FeedbackWait)
	defer t.Stop()
	select {
	case fb := <-p.feedback:
		return fb
	case <-t.C:
		p.log.Info().Msg("coach feedback still pending")
	case <-ctx.Done():
	case <-interrupt:
	}
	return nil
}
