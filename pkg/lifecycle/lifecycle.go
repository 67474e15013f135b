package lifecycle

// State represents the phase of a command invocation.
type State int

const (
	StateIdle State = iota
	StateEntering
	StateRunning
	StateExiting
	StateDone
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateEntering:
		return "Entering"
	case StateRunning:
		return "Running"
	case StateExiting:
		return "Exiting"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// EventEmitter is called when the invocation state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(previous, current State, reason string)

// OnStateChange calls f.
func (f EmitterFunc) OnStateChange(previous, current State, reason string) {
	f(previous, current, reason)
}
