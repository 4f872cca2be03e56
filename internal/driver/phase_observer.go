package driver

import "time"

// PhaseStatus is the kind of a PhaseEvent.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// PhaseSkipped replaces start and end for phases that never ran
	// because loading reported errors.
	PhaseSkipped
)

func (s PhaseStatus) String() string {
	switch s {
	case PhaseStart:
		return "start"
	case PhaseEnd:
		return "end"
	case PhaseSkipped:
		return "skipped"
	}
	return "unknown"
}

// PhaseEvent is one pipeline boundary seen by Run. Elapsed and Err are
// only set on PhaseEnd.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// PhaseObserver receives the phase events of Run in order.
type PhaseObserver func(PhaseEvent)

func (o PhaseObserver) emit(ev PhaseEvent) {
	if o != nil {
		o(ev)
	}
}

func (o PhaseObserver) skip(names ...string) {
	for _, n := range names {
		o.emit(PhaseEvent{Name: n, Status: PhaseSkipped})
	}
}
