// Package lifespan drives a hosted application's startup and shutdown
// sequence over the ASGI-style lifespan protocol.
//
// The application entry point (App) runs in its own goroutine and talks to
// the driver through two unbounded FIFO queues. The driver sends
// "lifespan.startup" and "lifespan.shutdown" and waits for the matching
// acknowledgement. When the application returns, a nil sentinel is queued so
// the driver can observe that the task ended and surface its error.
//
// # Usage
//
//	driver := lifespan.New(app, lifespan.WithLogger(logger))
//	if err := driver.Enter(ctx); err != nil {
//	    return err
//	}
//	defer driver.Exit(ctx)
//
// Applications written in Go can be built from hook lists with Hooks:
//
//	app := lifespan.Hooks{
//	    Startup:  []lifespan.Hook{openDB},
//	    Shutdown: []lifespan.Hook{closeDB},
//	}.App()
//
// Commands that do not coordinate with an application use Noop, which
// satisfies the same Driver contract without any messaging.
package lifespan
