package flume

import (
	"errors"

	"go.uber.org/multierr"
)

var (
	// ErrLeaseOnClosedScope is returned by [Scope.Lease] when the scope has
	// already been closed. The join treats it as a programming error: an
	// inner runner must never outlive the scope it borrows from.
	ErrLeaseOnClosedScope = errors.New("flume: lease requested on closed scope")

	// ErrJoinCanceled is the stop cause injected when the consumer abandons
	// a joined stream before end-of-stream. It is stripped from the terminal
	// error, so pure cancellation terminates without a synthesized failure.
	ErrJoinCanceled = errors.New("flume: join canceled by consumer")
)

// compose aggregates two possibly-nil errors into a single composite.
// The left argument keeps primary position; nil arguments are identity.
// Composites flatten, so repeated composition yields one inspectable
// list of leaves rather than a nested chain.
func compose(a, b error) error {
	return multierr.Append(a, b)
}

// Primary returns the first error observed in a composite produced by the
// join, or err itself if it is not a composite. Returns nil for nil.
func Primary(err error) error {
	leaves := multierr.Errors(err)
	if len(leaves) == 0 {
		return nil
	}
	return leaves[0]
}

// Suppressed returns the errors that were composed after the primary one.
// The slice is empty when err is nil or a single failure.
func Suppressed(err error) []error {
	leaves := multierr.Errors(err)
	if len(leaves) < 2 {
		return nil
	}
	return leaves[1:]
}

// stripCanceled removes [ErrJoinCanceled] leaves from a composite error.
// Returns nil when cancellation was the only cause.
func stripCanceled(err error) error {
	if err == nil {
		return nil
	}
	var kept error
	for _, leaf := range multierr.Errors(err) {
		if errors.Is(leaf, ErrJoinCanceled) {
			continue
		}
		kept = multierr.Append(kept, leaf)
	}
	return kept
}
