package command

import (
	"context"

	"github.com/bft-labs/appcommands/pkg/log"
)

// Handler wraps an invocation of the named command. Implementations may
// observe the error returned by next but must return it unchanged.
type Handler interface {
	Handle(ctx context.Context, name string, next func(ctx context.Context) error) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, name string, next func(ctx context.Context) error) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, name string, next func(ctx context.Context) error) error {
	return f(ctx, name, next)
}

// Reporter receives unexpected failures tagged with the command name.
type Reporter interface {
	Report(ctx context.Context, command string, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, command string, err error)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, command string, err error) {
	f(ctx, command, err)
}

// Chain composes handlers; the first one is the outermost.
func Chain(handlers ...Handler) Handler {
	return HandlerFunc(func(ctx context.Context, name string, next func(ctx context.Context) error) error {
		wrapped := next
		for i := len(handlers) - 1; i >= 0; i-- {
			h, inner := handlers[i], wrapped
			wrapped = func(ctx context.Context) error {
				return h.Handle(ctx, name, inner)
			}
		}
		return wrapped(ctx)
	})
}

// ReportHandler reports the unexpected part of a failure to r, then returns
// the failure unchanged. Interrupts and exit requests are not reported. A panic is reported as a PanicError and re-raised.
func ReportHandler(r Reporter) Handler {
	return HandlerFunc(func(ctx context.Context, name string, next func(ctx context.Context) error) error {
		defer func() {
			if p := recover(); p != nil {
				r.Report(ctx, name, &PanicError{Value: p})
				panic(p)
			}
		}()

		err := next(ctx)
		if unexpected := Unexpected(err); unexpected != nil {
			r.Report(ctx, name, unexpected)
		}
		return err
	})
}

// LogHandler logs unexpected failures at error level.
func LogHandler(logger log.Logger) Handler {
	return ReportHandler(ReporterFunc(func(ctx context.Context, command string, err error) {
		logger.Error("error while running command", log.Command(command), log.Err(err))
	}))
}

// Passthrough is a Handler that only calls next.
var Passthrough Handler = HandlerFunc(func(ctx context.Context, name string, next func(ctx context.Context) error) error {
	return next(ctx)
})
