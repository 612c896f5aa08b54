package a2a

import (
	"context"
	"sync"
)

// EventQueue carries task events from an executor to the transport that
// streams them to the caller. The producing goroutine owns the queue: it
// enqueues events and calls Close exactly once when the stream ends.
// Enqueue after Close is a silent no-op rather than a panic.
type EventQueue struct {
	ch     chan TaskEvent
	mu     sync.Mutex
	closed bool
}

// NewEventQueue builds a queue with the given buffer size.
func NewEventQueue(size int) *EventQueue {
	return &EventQueue{ch: make(chan TaskEvent, size)}
}

// Enqueue appends an event, blocking if the buffer is full until the
// consumer catches up or ctx is done.
func (q *EventQueue) Enqueue(ctx context.Context, ev TaskEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the consumer side of the queue. The channel is closed
// once the producer calls Close.
func (q *EventQueue) Events() <-chan TaskEvent {
	return q.ch
}

// Close ends the stream. Safe to call more than once.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
