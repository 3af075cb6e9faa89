package flume

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// haltState is the value of a join's termination signal: not terminating,
// terminating cleanly, or terminating with a composed error. The
// transition to stopping is monotonic; later stop causes only compose.
type haltState struct {
	stopping bool
	err      error
}

func (h haltState) stopWith(cause error) haltState {
	return haltState{stopping: true, err: compose(h.err, cause)}
}

// join owns the shared state of one ParJoin evaluation. The two signals
// are cyclically coupled — the run counter hitting zero requests a stop,
// and a stop makes producers exit and decrement the counter — so both are
// captured here and injected into every producer, never global.
type join[T any] struct {
	cfg joinConfig

	halt    *Signal[haltState] // termination signal
	running *Signal[int]       // live producers: outer driver + admitted inners
	admit   *Semaphore         // bounds concurrently evaluated inners
	out     *handoff[Chunk[T]] // producer/consumer rendezvous

	// scope owns the resources of the outer pull; every inner producer
	// holds a lease on it for its lifetime.
	scope *Scope

	// ctx is the producers' context, cancelled when halt leaves running.
	ctx    context.Context
	cancel context.CancelFunc

	started   atomic.Bool
	startOnce sync.Once
	shutOnce  sync.Once
	result    error

	runnerSeq atomic.Int64
}

// ParJoin non-deterministically merges the inner streams produced by
// outer into a single stream, evaluating at most maxOpen inner streams
// concurrently.
//
// Chunks from one inner stream keep their order; chunks from different
// inner streams interleave non-deterministically. The returned stream
// terminates normally iff the outer stream and every inner stream
// terminated normally; otherwise it fails with the composed error.
// Nothing runs until the first pull, and backpressure is total: a
// producer's chunk is held until the consumer takes it.
//
// Panics if maxOpen < 1, before any task is spawned.
func ParJoin[T any](outer *Stream[*Stream[T]], maxOpen int, opts ...JoinOption) *Stream[T] {
	if maxOpen < 1 {
		panic("flume: ParJoin requires maxOpen >= 1")
	}

	cfg := defaultJoinConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	j := &join[T]{
		cfg:     cfg,
		halt:    NewSignal(haltState{}),
		running: NewSignal(1), // the outer driver counts as a live producer
		admit:   NewSemaphore(maxOpen),
		out:     newHandoff[Chunk[T]](),
		scope:   NewScope(),
	}
	j.ctx, j.cancel = context.WithCancel(context.Background())

	return &Stream[T]{
		next: func(ctx context.Context) (Chunk[T], error) {
			j.start(outer)
			c, ok, err := j.out.recv(ctx)
			if err != nil {
				// The consumer abandoned the pull mid-rendezvous.
				// Producers wind down through the regular stop path;
				// quiescence is awaited on Close.
				j.stop(ErrJoinCanceled)
				return nil, err
			}
			if !ok {
				if err := j.shutdown(nil); err != nil {
					return nil, err
				}
				return nil, io.EOF
			}
			return c, nil
		},
		stop: func() {
			_ = j.shutdown(ErrJoinCanceled)
		},
	}
}

// ParJoinUnbounded merges the inner streams produced by outer without a
// concurrency bound.
func ParJoinUnbounded[T any](outer *Stream[*Stream[T]], opts ...JoinOption) *Stream[T] {
	return ParJoin(outer, math.MaxInt, opts...)
}

// start spawns the outer driver and the interruption watcher on the
// first pull.
func (j *join[T]) start(outer *Stream[*Stream[T]]) {
	j.startOnce.Do(func() {
		j.started.Store(true)

		// The first stopping transition cancels every in-flight
		// producer pull.
		go func() {
			_, _ = j.halt.Await(context.Background(), func(h haltState) bool { return h.stopping })
			j.cancel()
		}()

		go j.runOuter(outer)
	})
}

// stop transitions the termination signal and marks end-of-stream on the
// hand-off. The first call wins the transition; later calls only compose
// their cause into the terminal error. The end-of-stream mark follows the
// signal transition, so a consumer seeing end-of-stream reads a stable
// terminal error.
func (j *join[T]) stop(cause error) {
	var first bool
	h := j.halt.Update(func(h haltState) haltState {
		first = !h.stopping
		return h.stopWith(cause)
	})
	if first {
		j.cfg.logger.Debug("join stopping", zap.Error(h.err))
		j.emit(JoinEvent{Kind: EventStopRequested, Err: cause})
	}
	j.out.close()
}

func (j *join[T]) halting() bool {
	return j.halt.Get().stopping
}

// interrupted reports whether a producer pull error is the echo of a
// requested stop rather than a failure of the producer itself.
func (j *join[T]) interrupted(err error) bool {
	return j.halting() && errors.Is(err, context.Canceled)
}

func (j *join[T]) incrementRunning() {
	j.running.Update(func(n int) int { return n + 1 })
}

// decrementRunning retires one producer. The zero check is atomic with
// the update — the decrement that produces zero is the only one that can
// observe it — so exactly one producer triggers the final stop.
func (j *join[T]) decrementRunning() {
	n := j.running.Update(func(n int) int { return n - 1 })
	if n < 0 {
		panic("flume: join run counter went negative")
	}
	if n == 0 {
		j.stop(nil)
	}
}

// runOuter is the outer driver: it pulls inner streams and admits a
// runner for each, until exhaustion, failure, or a requested stop.
func (j *join[T]) runOuter(outer *Stream[*Stream[T]]) {
	var outerErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				outerErr = newPanicError(r)
			}
		}()
		defer outer.Close()
		for !j.halting() {
			inner, err := outer.Next(j.ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				if !j.interrupted(err) {
					outerErr = err
				}
				return
			}
			if err := j.runInner(inner); err != nil {
				outerErr = err
				return
			}
		}
	}()
	if outerErr != nil {
		j.stop(outerErr)
	}
	j.cfg.logger.Debug("outer driver done", zap.Error(outerErr))
	j.emit(JoinEvent{Kind: EventOuterDone, Err: outerErr})
	j.decrementRunning()
}

// runInner admits one inner stream and spawns its producer task.
//
// Admission — lease, then permit, then run count — happens here on the
// driver goroutine with blocking, non-interruptible operations, so
// cancellation can never leak a permit without a runner or a lease
// without a decrement. Every admitted runner releases all three exactly
// once, whatever the inner stream does.
func (j *join[T]) runInner(inner *Stream[T]) error {
	lease, err := j.scope.Lease()
	if err != nil {
		// The outer scope closed under a live driver: an engine bug,
		// surfaced as the join's failure.
		return err
	}
	j.admit.AcquireBlocking()
	j.incrementRunning()

	id := j.runnerSeq.Add(1)
	j.cfg.logger.Debug("inner producer started",
		zap.Int64("runner", id),
		zap.Int64("in_flight", j.admit.InFlight()))
	j.emit(JoinEvent{Kind: EventInnerStarted, Runner: id})

	go func() {
		var innerErr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					innerErr = newPanicError(r)
				}
			}()
			innerErr = j.sendAll(inner)
		}()

		leaseErr := lease.Cancel()
		j.admit.Release()
		runnerErr := compose(innerErr, leaseErr)
		if runnerErr != nil {
			j.stop(runnerErr)
		}

		j.cfg.logger.Debug("inner producer done",
			zap.Int64("runner", id),
			zap.Error(runnerErr))
		j.emit(JoinEvent{Kind: EventInnerDone, Runner: id, Err: runnerErr})
		j.decrementRunning()
	}()
	return nil
}

// sendAll pulls chunks from inner and hands each to the consumer.
// The halt check runs after the send rendezvous, not before: a pre-send
// check would leave the producer parked on a send the consumer side has
// already abandoned. The send itself unblocks when the hand-off closes.
func (j *join[T]) sendAll(inner *Stream[T]) error {
	defer inner.Close()
	for {
		c, err := inner.NextChunk(j.ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if j.interrupted(err) {
				return nil
			}
			return err
		}
		if !j.out.send(c) {
			// End-of-stream was marked strictly before the send could
			// rendezvous; the chunk is intentionally dropped.
			return nil
		}
		if j.halting() {
			return nil
		}
	}
}

// shutdown drives the join to quiescence: request a stop with the given
// cause, wait for the run counter to drain, close the outer scope, and
// fix the terminal error. Idempotent; later calls return the first
// result. The cancellation sentinel is stripped, so consumer abandonment
// alone terminates the join without an error.
func (j *join[T]) shutdown(cause error) error {
	j.shutOnce.Do(func() {
		j.stop(cause)
		if j.started.Load() {
			_, _ = j.running.Await(context.Background(), func(n int) bool { return n == 0 })
		}
		scopeErr := j.scope.Close()
		h := j.halt.Get()
		j.result = stripCanceled(compose(h.err, scopeErr))

		j.cfg.logger.Debug("join quiescent", zap.Error(j.result))
		j.emit(JoinEvent{Kind: EventQuiescent, Err: j.result})
	})
	return j.result
}

func (j *join[T]) emit(e JoinEvent) {
	if j.cfg.onEvent != nil {
		j.cfg.onEvent(e)
	}
}
