package transcriber

import (
	"sync"

	"github.com/podiumhq/podium/internal/room"
)

// SilenceTracker derives how long the speaker paused before each utterance
// from the provider's speech-started and utterance-end timestamps.
type SilenceTracker struct {
	mu               sync.Mutex
	speechStarted    *float64
	lastUtteranceEnd *float64
	silenceBefore    *float64
}

func (t *SilenceTracker) SpeechStarted(ts *float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.speechStarted = copyTs(ts)
	switch {
	case ts == nil:
		t.silenceBefore = nil
	case t.lastUtteranceEnd != nil:
		t.silenceBefore = ptr(max(0, *ts-*t.lastUtteranceEnd))
	default:
		// First utterance: silence is measured from the start of the stream.
		t.silenceBefore = ptr(max(0, *ts))
	}
}

func (t *SilenceTracker) UtteranceEnd(ts *float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastUtteranceEnd = copyTs(ts)
}

// Meta snapshots the timing context for the transcript being finalised.
func (t *SilenceTracker) Meta() room.TranscriptMeta {
	t.mu.Lock()
	defer t.mu.Unlock()
	return room.TranscriptMeta{
		SilencePrecedingS:  copyTs(t.silenceBefore),
		SpeechStartedTs:    copyTs(t.speechStarted),
		LastUtteranceEndTs: copyTs(t.lastUtteranceEnd),
	}
}

func (t *SilenceTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.speechStarted, t.lastUtteranceEnd, t.silenceBefore = nil, nil, nil
}

func ptr(v float64) *float64 { return &v }

func copyTs(ts *float64) *float64 {
	if ts == nil {
		return nil
	}
	return ptr(*ts)
}
