package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bft-labs/appcommands/pkg/healthcheck"
	"github.com/bft-labs/appcommands/pkg/lifecycle"
	"github.com/bft-labs/appcommands/pkg/lifespan"
	"github.com/bft-labs/appcommands/pkg/log"
	"github.com/bft-labs/appcommands/pkg/metrics"
)

// DefaultShutdownTimeout bounds the teardown of an invocation.
const DefaultShutdownTimeout = 30 * time.Second

// Config configures a Runner.
type Config struct {
	// Name identifies the command in logs, reports and metrics.
	Name string

	// App is the hosted application. Lifespan is only driven when App is
	// set and Lifespan is true.
	App      lifespan.App
	Lifespan bool

	Stdout io.Writer
	Stderr io.Writer

	// HealthcheckPort enables the health check responder. Zero disables it.
	HealthcheckPort int
	HealthcheckPath string
	CheckTimeout    time.Duration

	// NewResponder builds the health check responder. Health checks on a
	// non-zero port without a factory fail with a configuration error.
	NewResponder healthcheck.ResponderFactory

	// ShutdownTimeout bounds the shutdown hook plus the shutdown handshake.
	// Default: DefaultShutdownTimeout
	ShutdownTimeout time.Duration

	Logger       log.Logger
	Metrics      *metrics.Metrics
	EventEmitter lifecycle.EventEmitter
}

// DefaultConfig returns a Config for name with the HTTP responder and the
// default health check path.
func DefaultConfig(name string) Config {
	return Config{
		Name:            name,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		HealthcheckPath: healthcheck.DefaultPath,
		NewResponder:    healthcheck.NewHTTPResponder,
		ShutdownTimeout: DefaultShutdownTimeout,
		Logger:          log.NewNoopLogger(),
	}
}

// Runner executes one command invocation.
type Runner struct {
	cfg Config
}

// NewRunner creates a runner, filling unset output sinks, logger and
// timeouts with defaults.
func NewRunner(cfg Config) *Runner {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	cfg.Logger = log.OrNoop(cfg.Logger)
	if cfg.HealthcheckPath == "" {
		cfg.HealthcheckPath = healthcheck.DefaultPath
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Runner{cfg: cfg}
}

// Env returns the environment handed to the command.
func (r *Runner) Env() *Env {
	return &Env{
		Name:            r.cfg.Name,
		App:             r.cfg.App,
		Stdout:          r.cfg.Stdout,
		Stderr:          r.cfg.Stderr,
		Logger:          r.cfg.Logger,
		Lifespan:        r.cfg.Lifespan,
		HealthcheckPort: r.cfg.HealthcheckPort,
		HealthcheckPath: r.cfg.HealthcheckPath,
	}
}

// Run executes cmd. Once the lifespan driver has been entered, the shutdown
// hook and the shutdown handshake run exactly once whatever happens next,
// including a canceled ctx or a panic. The failure that ended the body is
// returned after teardown, joined with any shutdown failure so neither hides
// the other; an Error from the body becomes an ExitError with code 1 after
// its message is written to the error sink.
func (r *Runner) Run(ctx context.Context, cmd Command, args []string) (err error) {
	env := r.Env()
	m := lifecycle.NewManager(r.cfg.Logger, r.cfg.EventEmitter)
	defer func() {
		r.cfg.Metrics.ObserveInvocation(r.cfg.Name, resultOf(err))
	}()

	_ = m.TransitionTo(lifecycle.StateEntering, "acquire lifespan")
	driver := r.driver()
	if enterErr := driver.Enter(ctx); enterErr != nil {
		return m.Fail(enterErr)
	}

	hcCtx, stopResponder := context.WithCancel(ctx)
	defer stopResponder()

	defer func() {
		p := recover()
		if p != nil {
			m.Record(&PanicError{Value: p})
		}
		r.teardown(ctx, m, cmd, env, driver)
		err = m.Finish("teardown complete")
		if p != nil {
			panic(p)
		}
	}()

	if s, ok := cmd.(Starter); ok {
		if startErr := s.Startup(ctx, env); startErr != nil {
			m.Record(startErr)
			return
		}
	}

	if hcErr := r.activate(hcCtx, cmd); hcErr != nil {
		m.Record(hcErr)
		return
	}

	_ = m.TransitionTo(lifecycle.StateRunning, "command started")
	m.Record(r.translate(cmd.Handle(ctx, env, args)))
	return
}

func (r *Runner) driver() lifespan.Driver {
	if r.cfg.App != nil && r.cfg.Lifespan {
		return lifespan.New(r.cfg.App,
			lifespan.WithLogger(r.cfg.Logger),
			lifespan.WithMetrics(r.cfg.Metrics),
			lifespan.WithJoinTimeout(r.cfg.ShutdownTimeout),
		)
	}
	return lifespan.Noop{}
}

func (r *Runner) activate(ctx context.Context, cmd Command) error {
	provider, _ := cmd.(HealthChecker)
	a := &healthcheck.Activator{
		Port:         r.cfg.HealthcheckPort,
		Path:         r.cfg.HealthcheckPath,
		CheckTimeout: r.cfg.CheckTimeout,
		NewResponder: r.cfg.NewResponder,
		Logger:       r.cfg.Logger,
		Metrics:      r.cfg.Metrics,
	}
	_, err := a.Activate(ctx, provider)
	return err
}

// translate turns an expected failure into an exit request.
func (r *Runner) translate(err error) error {
	var cmdErr *Error
	if !errors.As(err, &cmdErr) {
		return err
	}
	fmt.Fprintln(r.cfg.Stderr, cmdErr.Error())
	return &ExitError{Code: 1}
}

// teardown runs the shutdown hook and releases the driver. It uses a
// context detached from ctx cancellation so an interrupt still shuts down.
func (r *Runner) teardown(ctx context.Context, m *lifecycle.Manager, cmd Command, env *Env, driver lifespan.Driver) {
	_ = m.TransitionTo(lifecycle.StateExiting, "teardown")

	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.ShutdownTimeout)
	defer cancel()

	if s, ok := cmd.(Stopper); ok {
		m.Append(r.safeShutdown(tctx, s, env))
	}
	m.Append(driver.Exit(tctx))
}

func (r *Runner) safeShutdown(ctx context.Context, s Stopper, env *Env) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()
	return s.Shutdown(ctx, env)
}

func resultOf(err error) string {
	var exit *ExitError
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case Unexpected(err) != nil:
		return metrics.ResultError
	case errors.As(err, &exit):
		return metrics.ResultCommandError
	default:
		return metrics.ResultCanceled
	}
}
