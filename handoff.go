package flume

import (
	"context"
	"sync"
)

// handoff is a zero-capacity, end-of-stream-aware channel: the rendezvous
// between inner producers and the single consumer of a joined stream.
//
// A send completes only when the consumer receives the item. Close marks
// end-of-stream idempotently; it stands in for the single None sentinel.
// After Close, pending and future senders observe the closure instead of
// blocking forever, and receivers see end-of-stream.
type handoff[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

func newHandoff[T any]() *handoff[T] {
	return &handoff[T]{
		ch:   make(chan T),
		done: make(chan struct{}),
	}
}

// send blocks until the consumer takes v or the handoff is closed.
// Reports whether v was delivered. A false return means the closure
// happened strictly before the send could rendezvous.
func (h *handoff[T]) send(v T) bool {
	select {
	case h.ch <- v:
		return true
	case <-h.done:
		return false
	}
}

// recv waits for the next item. ok is false at end-of-stream; every
// receive after closure keeps reporting end-of-stream. Unblocks with the
// context error if ctx is cancelled first.
func (h *handoff[T]) recv(ctx context.Context) (v T, ok bool, err error) {
	select {
	case v = <-h.ch:
		return v, true, nil
	case <-h.done:
		return v, false, nil
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}

// close marks end-of-stream. Safe to call any number of times; only the
// first call has an effect.
func (h *handoff[T]) close() {
	h.once.Do(func() {
		close(h.done)
	})
}
