// Package command runs one administrative command inside the lifespan of a
// hosted application.
//
// A Runner acquires the lifespan driver (or a no-op stand-in), runs the
// command's startup hook, activates health checks, invokes the command body
// and, on every exit path, runs the shutdown hook and releases the driver.
// An Error returned by the body is an expected failure: its message goes to
// the error sink and the invocation ends with an ExitError of code 1.
//
// Handlers wrap a whole invocation to observe unexpected failures without
// swallowing them:
//
//	h := command.Chain(command.LogHandler(logger), command.ReportHandler(sentry))
//	err := h.Handle(ctx, "migrate", func(ctx context.Context) error {
//	    return runner.Run(ctx, cmd, args)
//	})
package command
