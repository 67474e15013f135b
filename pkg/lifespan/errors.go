package lifespan

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation is matched by every ProtocolError.
	ErrProtocolViolation = errors.New("lifespan: protocol violation")

	// ErrApplicationExited is returned when the application returned without
	// an error before acknowledging a phase.
	ErrApplicationExited = errors.New("lifespan: application exited before acknowledging")

	// ErrNotEntered is returned by Exit when Enter did not complete.
	ErrNotEntered = errors.New("lifespan: exit called before a successful enter")

	// ErrAlreadyEntered is returned when Enter is called twice on one driver.
	ErrAlreadyEntered = errors.New("lifespan: already entered")
)

// ProtocolError reports a message type the handshake does not allow.
// It indicates that the hosted application does not honor the lifespan contract.
type ProtocolError struct {
	Phase   string
	Got     string
	Message string
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("lifespan: protocol violation during %s: unexpected message type %q", e.Phase, e.Got)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target is ErrProtocolViolation.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// StartupFailedError is returned when the application reported
// lifespan.startup.failed and then returned without an error of its own.
type StartupFailedError struct {
	Message string
}

func (e *StartupFailedError) Error() string {
	if e.Message == "" {
		return "lifespan: startup failed"
	}
	return "lifespan: startup failed: " + e.Message
}

// PanicError wraps a value recovered from a panicking application.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("lifespan: application panicked: %v", e.Value)
}
