package speech

import (
	"strings"
	"sync"
	"time"
)

// Chunk is a flushed run of transcript text.
type Chunk struct {
	Text     string
	Question bool
	Exclaim  bool
}

// ChunkBuffer accumulates transcript pieces and releases them at sentence
// boundaries or once MaxInterval has passed since the last flush.
type ChunkBuffer struct {
	MaxInterval     time.Duration
	FlushOnInterval bool

	mu        sync.Mutex
	text      string
	lastFlush time.Time
	now       func() time.Time
}

func NewChunkBuffer(maxInterval time.Duration) *ChunkBuffer {
	return &ChunkBuffer{
		MaxInterval:     maxInterval,
		FlushOnInterval: true,
		now:             time.Now,
	}
}

// Append adds piece and reports whether a chunk is ready.
func (b *ChunkBuffer) Append(piece string) (Chunk, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.lastFlush.IsZero() {
		b.lastFlush = now
	}

	b.text = strings.TrimSpace(b.text + " " + piece)

	flush := strings.HasSuffix(b.text, "?") ||
		strings.HasSuffix(b.text, ".") ||
		strings.HasSuffix(b.text, "!") ||
		(b.FlushOnInterval && now.Sub(b.lastFlush) >= b.MaxInterval)

	if !flush || b.text == "" {
		return Chunk{}, false
	}

	c := Chunk{
		Text:     b.text,
		Question: strings.Contains(b.text, "?"),
		Exclaim:  strings.Contains(b.text, "!"),
	}
	b.text = ""
	b.lastFlush = now
	return c, true
}

// Drain returns whatever is buffered regardless of boundaries.
func (b *ChunkBuffer) Drain() (Chunk, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.text == "" {
		return Chunk{}, false
	}
	c := Chunk{
		Text:     b.text,
		Question: strings.Contains(b.text, "?"),
		Exclaim:  strings.Contains(b.text, "!"),
	}
	b.text = ""
	b.lastFlush = b.now()
	return c, true
}
