package cli

import (
	"errors"

	"github.com/bft-labs/appcommands/pkg/command"
)

var (
	// ErrUsage marks a malformed command line.
	ErrUsage = errors.New("cli: usage error")

	// ErrConfig marks an invalid configuration file or environment.
	ErrConfig = errors.New("cli: invalid configuration")
)

// Exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// UsageError wraps an error raised while parsing the command line.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Is reports ErrUsage.
func (e *UsageError) Is(target error) bool { return target == ErrUsage }

// ExitCode maps the result of Execute to a process exit status. An exit
// request keeps its code even when a shutdown failure is joined to it; an
// interrupt joined to a shutdown failure exits with ExitFailure.
func ExitCode(err error) int {
	var exit *command.ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.As(err, &exit):
		return exit.Code
	case command.Unexpected(err) != nil:
		return ExitFailure
	default:
		return ExitInterrupted
	}
}
