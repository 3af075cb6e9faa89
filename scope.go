// Scope tracks the resources owned by one stream evaluation: finalizers
// registered while the stream runs, and leases that keep those resources
// alive while borrowed by concurrently running producers.
//
// The join engine acquires one lease per inner producer from the scope of
// the outer pull, so resources owned by the outer stream cannot be
// finalized while an inner producer still depends on them. Finalizers run
// exactly once, in reverse registration order, after the scope is closed
// and the last lease has been cancelled.
package flume

import "sync"

// Scope is a resource scope. Create one via [NewScope]; close it with
// [Scope.Close] once evaluation is over. All methods are safe for
// concurrent use.
type Scope struct {
	mu         sync.Mutex
	closed     bool
	finalized  bool
	leases     int
	finalizers []func() error
}

// NewScope creates an open scope with no registered finalizers.
func NewScope() *Scope {
	return &Scope{}
}

// Defer registers a finalizer to run when the scope finalizes.
// Finalizers run in reverse registration order.
// Panics if the scope has already finalized.
func (s *Scope) Defer(fin func() error) {
	if fin == nil {
		panic("flume: Scope.Defer requires non-nil finalizer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		panic("flume: Scope.Defer called after scope finalized")
	}
	s.finalizers = append(s.finalizers, fin)
}

// Lease borrows the scope's resources, deferring finalization until the
// lease is cancelled. Returns [ErrLeaseOnClosedScope] if the scope has
// already been closed.
func (s *Scope) Lease() (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrLeaseOnClosedScope
	}
	s.leases++
	return &Lease{scope: s}, nil
}

// Close marks the scope closed. If no leases are outstanding the
// finalizers run now and their composed error is returned; otherwise
// finalization is deferred to the last [Lease.Cancel], and Close returns
// nil. Close is idempotent.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	fins := s.takeFinalizersLocked()
	s.mu.Unlock()
	return runFinalizers(fins)
}

// ActiveLeases returns the number of outstanding leases.
func (s *Scope) ActiveLeases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leases
}

// takeFinalizersLocked claims the finalizer list for execution if the
// scope is ready to finalize (closed, no leases, not yet finalized).
// Callers must hold s.mu and run the returned finalizers after unlocking.
func (s *Scope) takeFinalizersLocked() []func() error {
	if !s.closed || s.leases > 0 || s.finalized {
		return nil
	}
	s.finalized = true
	fins := s.finalizers
	s.finalizers = nil
	return fins
}

// runFinalizers runs fins in reverse order, composing their errors.
func runFinalizers(fins []func() error) error {
	var err error
	for i := len(fins) - 1; i >= 0; i-- {
		err = compose(err, fins[i]())
	}
	return err
}

// Lease is a borrow of a scope's resources. It must be cancelled;
// the first cancel releases the borrow and, if the lease was the last one
// on a closed scope, runs the scope's finalizers.
type Lease struct {
	scope *Scope
	once  sync.Once
	err   error
}

// Cancel releases the borrow. If this was the last outstanding lease on a
// closed scope, the scope's finalizers run here and their composed error
// is returned. Cancel is idempotent; repeated calls return the first
// result.
func (l *Lease) Cancel() error {
	l.once.Do(func() {
		s := l.scope
		s.mu.Lock()
		if s.leases <= 0 {
			s.mu.Unlock()
			panic("flume: Lease.Cancel without outstanding lease")
		}
		s.leases--
		fins := s.takeFinalizersLocked()
		s.mu.Unlock()
		l.err = runFinalizers(fins)
	})
	return l.err
}
