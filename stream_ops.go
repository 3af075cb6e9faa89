package flume

import (
	"context"
	"io"
	"sync"
)

// Map transforms a stream using a function, chunk by chunk.
// Note: This is a function and not a method because Go does not support
// generic methods on generic types.
func Map[A, B any](s *Stream[A], fn func(context.Context, A) (B, error)) *Stream[B] {
	out := &Stream[B]{stop: s.Close}
	out.next = func(ctx context.Context) (Chunk[B], error) {
		c, err := s.NextChunk(ctx)
		if err != nil {
			return nil, err
		}
		mapped := make(Chunk[B], 0, len(c))
		for _, v := range c {
			w, err := fn(ctx, v)
			if err != nil {
				s.Close()
				return nil, err
			}
			mapped = append(mapped, w)
		}
		return mapped, nil
	}
	return out
}

// Filter keeps only the elements satisfying pred.
func (s *Stream[T]) Filter(pred func(T) bool) *Stream[T] {
	out := &Stream[T]{stop: s.Close}
	out.next = func(ctx context.Context) (Chunk[T], error) {
		c, err := s.NextChunk(ctx)
		if err != nil {
			return nil, err
		}
		var kept Chunk[T]
		for _, v := range c {
			if pred(v) {
				kept = append(kept, v)
			}
		}
		return kept, nil
	}
	return out
}

// Take limits the stream to n elements, splitting a chunk if it straddles
// the limit. Reaching the limit closes the source, interrupting infinite
// upstreams.
func (s *Stream[T]) Take(n int) *Stream[T] {
	var taken int
	out := &Stream[T]{stop: s.Close}
	out.next = func(ctx context.Context) (Chunk[T], error) {
		if taken >= n {
			s.Close()
			return nil, io.EOF
		}
		c, err := s.NextChunk(ctx)
		if err != nil {
			return nil, err
		}
		if rem := n - taken; len(c) > rem {
			c = c[:rem]
		}
		taken += len(c)
		return c, nil
	}
	return out
}

// FlatMap substitutes each element with the stream produced by fn and
// concatenates the results in order.
func FlatMap[A, B any](s *Stream[A], fn func(A) *Stream[B]) *Stream[B] {
	var cur *Stream[B]
	out := &Stream[B]{}
	out.next = func(ctx context.Context) (Chunk[B], error) {
		for {
			if cur == nil {
				v, err := s.Next(ctx)
				if err != nil {
					return nil, err
				}
				cur = fn(v)
			}
			c, err := cur.NextChunk(ctx)
			if err == io.EOF {
				cur = nil
				continue
			}
			if err != nil {
				s.Close()
				return nil, err
			}
			return c, nil
		}
	}
	out.stop = func() {
		if cur != nil {
			cur.Close()
		}
		s.Close()
	}
	return out
}

// OnFinalize runs fin exactly once when the stream terminates: at
// end-of-stream, on error, or on Close. A finalizer error fails the
// stream; on the error path it is composed with the stream's own error.
func (s *Stream[T]) OnFinalize(fin func() error) *Stream[T] {
	var once sync.Once
	var finErr error
	runFin := func() error {
		once.Do(func() { finErr = fin() })
		return finErr
	}

	out := &Stream[T]{}
	out.next = func(ctx context.Context) (Chunk[T], error) {
		c, err := s.NextChunk(ctx)
		if err == io.EOF {
			if ferr := runFin(); ferr != nil {
				return nil, ferr
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, compose(err, runFin())
		}
		return c, nil
	}
	out.stop = func() {
		s.Close()
		_ = runFin()
	}
	return out
}
