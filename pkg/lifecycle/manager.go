package lifecycle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/appcommands/pkg/log"
)

// ErrInvalidTransition is returned for a transition the state machine does not allow.
var ErrInvalidTransition = errors.New("lifecycle: invalid state transition")

var transitions = map[State][]State{
	StateIdle:     {StateEntering, StateFailed},
	StateEntering: {StateRunning, StateExiting, StateFailed},
	StateRunning:  {StateExiting, StateFailed},
	StateExiting:  {StateDone, StateFailed},
}

// Manager tracks the state of one invocation and the failures seen.
type Manager struct {
	mu           sync.RWMutex
	state        State
	err          error
	logger       log.Logger
	eventEmitter EventEmitter
}

// NewManager creates a manager in StateIdle. emitter may be nil.
func NewManager(logger log.Logger, emitter EventEmitter) *Manager {
	return &Manager{
		state:        StateIdle,
		logger:       log.OrNoop(logger),
		eventEmitter: emitter,
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Err returns the recorded failure.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// TransitionTo moves to newState if the transition is allowed.
func (m *Manager) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state

	if !allowed(oldState, newState) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldState, newState)
	}

	m.state = newState
	m.mu.Unlock()

	// Emit event outside of lock
	if m.eventEmitter != nil {
		m.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	m.logger.Debug("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)

	return nil
}

// Record keeps err as the invocation failure unless one is already recorded.
// It does not change state; teardown still runs before Finish.
func (m *Manager) Record(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err == nil {
		m.err = err
	}
}

// Append adds err to the recorded failure. Teardown failures go through
// Append so they are kept next to the failure that ended the body; the
// result matches each part with errors.Is and errors.As.
func (m *Manager) Append(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err == nil {
		m.err = err
		return
	}
	m.err = errors.Join(m.err, err)
}

// Finish moves to StateDone, or to StateFailed if a failure was recorded,
// and returns the recorded failure.
func (m *Manager) Finish(reason string) error {
	err := m.Err()
	target := StateDone
	if err != nil {
		target = StateFailed
		reason = err.Error()
	}
	if m.State() != target {
		_ = m.TransitionTo(target, reason)
	}
	return err
}

// Fail records err and moves straight to StateFailed.
func (m *Manager) Fail(err error) error {
	m.Record(err)
	if !m.State().Terminal() {
		_ = m.TransitionTo(StateFailed, err.Error())
	}
	return m.Err()
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
