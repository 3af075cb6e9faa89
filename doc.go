// Package flume provides chunked, pull-based streams for Go and a
// concurrent join engine that merges a stream of streams under a
// concurrency bound.
//
// # Streams
//
// [Stream] is a lazy, single-consumer sequence of [Chunk] batches. Create
// streams with [Emit], [FromSlice], [FromChunks], [FromChan], [Eval],
// [Empty], [Fail], or [Repeat]. Chains of [Stream.Filter], [Stream.Take],
// [Map], and [FlatMap] are evaluated lazily, chunk by chunk. Terminal
// methods ([Stream.ToSlice], [Stream.ForEach], [Stream.Drain],
// [Stream.Count]) return partial results alongside any error, following
// [io.Reader] conventions. [Stream.Close] abandons a stream early,
// releasing its upstream resources; [Stream.OnFinalize] attaches a
// finalizer that runs on every exit path.
//
// # Concurrent join
//
// [ParJoin] merges the inner streams produced by an outer stream into one
// output stream, evaluating at most maxOpen inner streams at a time.
// Elements of one inner stream keep their order; different inner streams
// interleave non-deterministically. Backpressure is total — each chunk is
// handed to the consumer in a rendezvous, with no intermediate buffering.
// The join terminates normally only when the outer and every inner stream
// do; failures from any of them (including panics, captured as
// [*PanicError]) compose into a single error inspectable via [Primary]
// and [Suppressed]. [ParJoinUnbounded] lifts the concurrency bound;
// [Merge], [MergeEither], and [Race] are two-stream conveniences defined
// entirely in terms of the join.
//
// Abandoning a joined stream with [Stream.Close] interrupts every
// producer and waits for all of them to wind down — no goroutine,
// semaphore permit, or scope lease outlives the Close. Cancelling the
// pull context also interrupts the producers but does not wait for them;
// the wait happens on Close. Producers that ignore interruption delay
// shutdown until they finish; the engine never kills them forcibly.
//
// # Coordination primitives
//
// The join engine is wired from four small primitives; the first three
// are exported because they are useful on their own:
//
//   - [Signal]: a linearizable observable cell with atomic
//     read-modify-write and change notification.
//   - [Semaphore]: a counting semaphore with context-aware and blocking
//     acquire, plus in-flight and peak counters.
//   - [Scope] and [Lease]: resource scopes whose finalizers wait for all
//     outstanding borrows before running.
//   - an internal zero-capacity, end-of-stream-aware rendezvous channel
//     between producers and the consumer.
//
// # Observability
//
// Joins accept functional options: [WithLogger] logs lifecycle
// transitions at Debug via zap, and [WithOnEvent] delivers [JoinEvent]
// values (inner started/done, outer done, stop requested, quiescent) to a
// hook. Both default to off.
package flume
