package command

import (
	"context"
	"errors"
	"fmt"
)

// Error is an expected command failure. Its message is shown to the user
// without a stack trace and the process exits with status 1.
type Error struct {
	err error
}

// Errorf creates an expected failure. Use %w to keep a cause inspectable.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{err: fmt.Errorf(format, args...)}
}

// NewError creates an expected failure from msg.
func NewError(msg string) *Error {
	return &Error{err: errors.New(msg)}
}

func (e *Error) Error() string { return e.err.Error() }

func (e *Error) Unwrap() error { return e.err }

// ExitError requests a process exit status. Handlers pass it through
// without reporting it.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command: exit status %d", e.Code)
}

// PanicError carries a value recovered from a panicking command.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command: panic: %v", e.Value)
}

// IsCancellation reports whether err is made only of interrupts and exit
// requests, which unwind silently.
func IsCancellation(err error) bool {
	return err != nil && Unexpected(err) == nil
}

// Unexpected returns the parts of err that are neither interrupts nor exit
// requests, or nil if there are none. A joined error is split, so a shutdown
// failure joined to an exit request is still returned.
func Unexpected(err error) error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts := joined.Unwrap()
		var rest []error
		for _, part := range parts {
			if u := Unexpected(part); u != nil {
				rest = append(rest, u)
			}
		}
		switch len(rest) {
		case 0:
			return nil
		case 1:
			return rest[0]
		case len(parts):
			return err
		}
		return errors.Join(rest...)
	}
	var exit *ExitError
	if errors.Is(err, context.Canceled) || errors.As(err, &exit) {
		return nil
	}
	return err
}
