package flume

import "go.uber.org/zap"

// JoinEventKind identifies a lifecycle transition inside a join.
type JoinEventKind int

const (
	// EventInnerStarted fires after an inner producer has been admitted
	// (lease held, permit held, counted as live).
	EventInnerStarted JoinEventKind = iota

	// EventInnerDone fires after an inner producer has released its lease
	// and permit. Err carries the producer's composed failure, if any.
	EventInnerDone

	// EventOuterDone fires when the outer driver finishes.
	// Err carries the outer traversal's failure, if any.
	EventOuterDone

	// EventStopRequested fires on the first termination transition.
	// Err carries the stop cause; nil means a clean stop.
	EventStopRequested

	// EventQuiescent fires once the run counter has reached zero and the
	// outer scope has been closed. Err carries the join's terminal error.
	EventQuiescent
)

// String returns the event kind's name.
func (k JoinEventKind) String() string {
	switch k {
	case EventInnerStarted:
		return "inner-started"
	case EventInnerDone:
		return "inner-done"
	case EventOuterDone:
		return "outer-done"
	case EventStopRequested:
		return "stop-requested"
	case EventQuiescent:
		return "quiescent"
	default:
		return "unknown"
	}
}

// JoinEvent is delivered to the hook registered via [WithOnEvent] for
// every lifecycle transition of a join. Hooks run on engine goroutines
// and must not block.
type JoinEvent struct {
	Kind JoinEventKind

	// Runner is the 1-based admission ordinal of the inner producer the
	// event concerns; 0 for join-level events.
	Runner int64

	Err error
}

type joinConfig struct {
	logger  *zap.Logger
	onEvent func(JoinEvent)
}

// JoinOption configures a join.
type JoinOption func(*joinConfig)

func defaultJoinConfig() joinConfig {
	return joinConfig{logger: zap.NewNop()}
}

// WithLogger sets the logger for join lifecycle transitions, which are
// logged at Debug level. The default is a no-op logger.
// Panics if logger is nil.
func WithLogger(logger *zap.Logger) JoinOption {
	if logger == nil {
		panic("flume: WithLogger requires non-nil logger")
	}
	return func(c *joinConfig) {
		c.logger = logger
	}
}

// WithOnEvent registers a hook invoked on every [JoinEvent].
// Panics if fn is nil.
func WithOnEvent(fn func(JoinEvent)) JoinOption {
	if fn == nil {
		panic("flume: WithOnEvent requires non-nil callback")
	}
	return func(c *joinConfig) {
		c.onEvent = fn
	}
}
