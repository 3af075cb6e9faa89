package flume

import "context"

// Either is a value from one of two merged streams, tagged with the side
// it came from.
type Either[L, R any] struct {
	Left    L
	Right   R
	IsRight bool
}

// LeftOf tags v as coming from the left stream.
func LeftOf[L, R any](v L) Either[L, R] {
	return Either[L, R]{Left: v}
}

// RightOf tags v as coming from the right stream.
func RightOf[L, R any](v R) Either[L, R] {
	return Either[L, R]{Right: v, IsRight: true}
}

// MergeEither non-deterministically merges two streams of different
// element types, tagging each element with its side. It is ParJoin of a
// two-element outer stream with maxOpen = 2 and has no semantics of its
// own.
func MergeEither[L, R any](a *Stream[L], b *Stream[R], opts ...JoinOption) *Stream[Either[L, R]] {
	left := Map(a, func(_ context.Context, v L) (Either[L, R], error) {
		return LeftOf[L, R](v), nil
	})
	right := Map(b, func(_ context.Context, v R) (Either[L, R], error) {
		return RightOf[L](v), nil
	})
	return ParJoin(Emit(left, right), 2, opts...)
}

// Merge non-deterministically merges two streams of the same element
// type. Each side's elements keep their order.
func Merge[T any](a, b *Stream[T], opts ...JoinOption) *Stream[T] {
	return ParJoin(Emit(a, b), 2, opts...)
}

// Race yields the first element produced by either stream, then
// interrupts both sides. The result is tagged with the winning side.
func Race[L, R any](a *Stream[L], b *Stream[R], opts ...JoinOption) *Stream[Either[L, R]] {
	return MergeEither(a, b, opts...).Take(1)
}
