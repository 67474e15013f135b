package lifespan

import (
	"context"
	"time"

	"github.com/bft-labs/appcommands/pkg/log"
	"github.com/bft-labs/appcommands/pkg/metrics"
)

// ReceiveFunc blocks until the driver sends the next message.
type ReceiveFunc func(ctx context.Context) (Message, error)

// SendFunc delivers a message to the driver. It never blocks.
type SendFunc func(ctx context.Context, msg Message) error

// App is a hosted application's lifespan entry point. It must answer
// lifespan.startup with lifespan.startup.complete or lifespan.startup.failed,
// and lifespan.shutdown with lifespan.shutdown.complete.
type App func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error

// Driver is the acquire/release contract shared by AppLifespan and Noop.
type Driver interface {
	// Enter performs the startup handshake.
	Enter(ctx context.Context) error

	// Exit performs the shutdown handshake and waits for the application
	// task to terminate.
	Exit(ctx context.Context) error
}

// Option configures an AppLifespan.
type Option func(*AppLifespan)

// WithLogger sets the logger used for handshake diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(l *AppLifespan) {
		l.logger = logger
	}
}

// WithMetrics records handshake durations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *AppLifespan) {
		l.metrics = m
	}
}

// WithJoinTimeout bounds how long a failed Enter waits for the canceled
// application task to return.
func WithJoinTimeout(d time.Duration) Option {
	return func(l *AppLifespan) {
		if d > 0 {
			l.joinTimeout = d
		}
	}
}

// DefaultJoinTimeout is the join bound used when WithJoinTimeout is not given.
const DefaultJoinTimeout = 5 * time.Second

// AppLifespan runs an App in the background and drives it through the
// startup and shutdown handshakes. A value is good for one Enter/Exit pair.
type AppLifespan struct {
	app         App
	logger      log.Logger
	metrics     *metrics.Metrics
	joinTimeout time.Duration

	inbound  *Queue[Message]
	outbound *Queue[*Message]

	// err is written by the task before the sentinel is queued and read
	// only after the sentinel or done has been observed.
	err     error
	done    chan struct{}
	cancel  context.CancelFunc
	entered bool
}

// New creates a driver for app.
func New(app App, opts ...Option) *AppLifespan {
	l := &AppLifespan{
		app:         app,
		logger:      log.NewNoopLogger(),
		joinTimeout: DefaultJoinTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enter starts the application task and performs the startup handshake.
//
// The task context is detached from ctx cancellation so that an interrupt
// during the command still leaves the application able to shut down; it is
// canceled once Exit returns or Enter fails. A failed Enter waits up to the
// join timeout for the task to return before reporting the failure.
func (l *AppLifespan) Enter(ctx context.Context) error {
	if l.done != nil {
		return ErrAlreadyEntered
	}

	l.inbound = NewQueue[Message]()
	l.outbound = NewQueue[*Message]()
	l.done = make(chan struct{})

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancel = cancel
	go l.run(taskCtx)

	start := time.Now()
	err := l.waitStartup(ctx)
	elapsed := time.Since(start)
	l.metrics.ObserveHandshake(metrics.PhaseStartup, elapsed, err)

	if err != nil {
		l.logger.Debug("lifespan startup failed", log.Err(err), log.Duration("elapsed", elapsed))
		l.cancel()
		l.join()
		return err
	}

	l.logger.Debug("lifespan startup complete", log.Duration("elapsed", elapsed))
	l.entered = true
	return nil
}

// Exit performs the shutdown handshake and waits for the application task
// to return. An error returned by the task after acknowledging shutdown is
// reported as well.
func (l *AppLifespan) Exit(ctx context.Context) error {
	if !l.entered {
		return ErrNotEntered
	}
	l.entered = false
	defer l.cancel()

	start := time.Now()
	err := l.waitShutdown(ctx)
	elapsed := time.Since(start)
	l.metrics.ObserveHandshake(metrics.PhaseShutdown, elapsed, err)

	if err != nil {
		l.logger.Debug("lifespan shutdown failed", log.Err(err), log.Duration("elapsed", elapsed))
		return err
	}
	l.logger.Debug("lifespan shutdown complete", log.Duration("elapsed", elapsed))
	return nil
}

// join waits for the canceled task to return.
func (l *AppLifespan) join() {
	timer := time.NewTimer(l.joinTimeout)
	defer timer.Stop()

	select {
	case <-l.done:
	case <-timer.C:
		l.logger.Warn("lifespan task still running after failed startup", log.Duration("waited", l.joinTimeout))
	}
}

// Done is closed once the application task has returned.
func (l *AppLifespan) Done() <-chan struct{} {
	return l.done
}

func (l *AppLifespan) run(ctx context.Context) {
	defer close(l.done)
	defer l.outbound.Put(nil)
	defer func() {
		if r := recover(); r != nil {
			l.err = &PanicError{Value: r}
		}
	}()

	l.err = l.app(ctx, NewScope(), l.inbound.Receive, l.send)
}

func (l *AppLifespan) send(_ context.Context, msg Message) error {
	l.outbound.Put(&msg)
	return nil
}

func (l *AppLifespan) waitStartup(ctx context.Context) error {
	l.inbound.Put(Message{Type: TypeStartup})

	msg, err := l.outbound.Receive(ctx)
	if err != nil {
		return err
	}
	if msg == nil {
		return l.taskError(ErrApplicationExited)
	}

	switch msg.Type {
	case TypeStartupComplete:
		return nil
	case TypeStartupFailed:
		next, err := l.outbound.Receive(ctx)
		if err != nil {
			return err
		}
		if next == nil {
			return l.taskError(&StartupFailedError{Message: msg.Message})
		}
		// Only the sentinel ends the task; anything else is diagnostic output.
		l.logger.Warn("lifespan startup reported failure",
			log.String("message", msg.Message),
			log.String("next", next.Type),
		)
		return nil
	default:
		return &ProtocolError{Phase: "startup", Got: msg.Type, Message: msg.Message}
	}
}

func (l *AppLifespan) waitShutdown(ctx context.Context) error {
	l.inbound.Put(Message{Type: TypeShutdown})

	msg, err := l.outbound.Receive(ctx)
	if err != nil {
		return err
	}
	if msg == nil {
		return l.taskError(ErrApplicationExited)
	}
	if msg.Type != TypeShutdownComplete {
		return &ProtocolError{Phase: "shutdown", Got: msg.Type, Message: msg.Message}
	}

	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// taskError returns the error that ended the task, or fallback if the task
// returned normally. Callers must have received the sentinel.
func (l *AppLifespan) taskError(fallback error) error {
	<-l.done
	if l.err != nil {
		return l.err
	}
	return fallback
}

// Noop satisfies Driver without exchanging any message.
type Noop struct{}

// Enter does nothing.
func (Noop) Enter(context.Context) error { return nil }

// Exit does nothing.
func (Noop) Exit(context.Context) error { return nil }

var (
	_ Driver = (*AppLifespan)(nil)
	_ Driver = Noop{}
)
