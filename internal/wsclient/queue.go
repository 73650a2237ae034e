package wsclient

import (
	"encoding/json"
	"sync"
	"sync/atomic"
)

// Queue is a bounded channel that discards the oldest buffered item when a
// new one arrives and the buffer is full. Push never blocks.
type Queue[T any] struct {
	mu      sync.Mutex
	ch      chan T
	closed  bool
	dropped atomic.Uint64
}

func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{ch: make(chan T, size)}
}

// C is the receive side. It is closed by Close.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Push enqueues v and reports whether an older item was evicted to make room.
func (q *Queue[T]) Push(v T) (evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	for {
		select {
		case q.ch <- v:
			return evicted
		default:
		}
		select {
		case <-q.ch:
			evicted = true
			q.dropped.Add(1)
		default:
		}
	}
}

// Dropped counts items evicted so far.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}

func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// SubscribeQueue subscribes a drop-oldest queue of the given size. The
// returned function unsubscribes and closes the channel.
func (c *Client) SubscribeQueue(size int) (<-chan json.RawMessage, func()) {
	q := NewQueue[json.RawMessage](size)
	unsub := c.Subscribe(func(msg json.RawMessage) {
		if q.Push(msg) {
			c.log.Debug().Uint64("dropped", q.Dropped()).Msg("subscriber queue full, dropped oldest")
		}
	})
	return q.C(), func() {
		unsub()
		q.Close()
	}
}
