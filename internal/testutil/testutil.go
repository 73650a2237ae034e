package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/podiumhq/podium/internal/recording"
)

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to write temp config file: %v", err)
	}
	return path
}

// WaitForCondition polls condition until it holds or timeout elapses.
func WaitForCondition(t *testing.T, what string, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// MockRecorder pushes a short frame every Interval until stopped and keeps
// a canned export in place of captured audio.
type MockRecorder struct {
	WAV      []byte
	Buffered time.Duration
	Interval time.Duration

	mu      sync.Mutex
	frames  chan recording.AudioFrame
	stop    chan struct{}
	pushing sync.WaitGroup
	cleared int
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{
		WAV:      []byte("RIFF-fake-wav"),
		Buffered: 5 * time.Second,
		Interval: 10 * time.Millisecond,
	}
}

func (m *MockRecorder) Start(ctx context.Context) (<-chan recording.AudioFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames = make(chan recording.AudioFrame, 8)
	m.stop = make(chan struct{})
	frames, stop := m.frames, m.stop

	m.pushing.Add(1)
	go func() {
		defer m.pushing.Done()
		tick := time.NewTicker(m.Interval)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				select {
				case frames <- recording.AudioFrame{Samples: []float32{0.1, -0.1}, Timestamp: time.Now()}:
				default:
				}
			}
		}
	}()
	return frames, nil
}

func (m *MockRecorder) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop == nil {
		return nil
	}
	close(m.stop)
	m.pushing.Wait()
	close(m.frames)
	m.stop = nil
	return nil
}

func (m *MockRecorder) SampleRate() int                 { return 16000 }
func (m *MockRecorder) Export() []byte                  { return m.WAV }
func (m *MockRecorder) BufferedDuration() time.Duration { return m.Buffered }

func (m *MockRecorder) ClearBuffer() {
	m.mu.Lock()
	m.cleared++
	m.mu.Unlock()
}

// Cleared reports how many times ClearBuffer was called.
func (m *MockRecorder) Cleared() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}
