package skemabind

import "time"

// Op names a binding operation.
type Op string

const (
	OpValidate Op = "validate"
	OpDump     Op = "dump"
	OpLoad     Op = "load"
)

// Outcome classifies how an operation ended.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeCacheHit Outcome = "cache_hit"
	OutcomeFailed   Outcome = "failed"
)

// Event describes one completed binding operation.
type Event struct {
	Schema   string
	Op       Op
	Outcome  Outcome
	Many     bool
	Items    int
	Issues   int
	Duration time.Duration
}

// Observer receives an Event after every binding operation. Implementations
// must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
