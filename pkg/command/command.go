package command

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"github.com/bft-labs/appcommands/pkg/healthcheck"
	"github.com/bft-labs/appcommands/pkg/lifespan"
	"github.com/bft-labs/appcommands/pkg/log"
)

// Env is what a running command sees of its invocation.
type Env struct {
	// Name is the command name the invocation was started with.
	Name string

	// App is the hosted application, if any.
	App lifespan.App

	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger

	Lifespan        bool
	HealthcheckPort int
	HealthcheckPath string
}

// Command is the body of an administrative command.
type Command interface {
	Handle(ctx context.Context, env *Env, args []string) error
}

// Starter is implemented by commands that need a hook after the lifespan
// startup handshake and before the body runs.
type Starter interface {
	Startup(ctx context.Context, env *Env) error
}

// Stopper is implemented by commands that need a hook after the body and
// before the lifespan shutdown handshake. It runs on every exit path.
type Stopper interface {
	Shutdown(ctx context.Context, env *Env) error
}

// HealthChecker is implemented by commands exposing health checks.
type HealthChecker = healthcheck.Provider

// FlagBinder is implemented by commands declaring their own flags.
type FlagBinder interface {
	BindFlags(fs *pflag.FlagSet)
}

// Helper is implemented by commands that describe themselves.
// An explicit help text in the command definition takes precedence.
type Helper interface {
	Help() string
}

// Funcs can be used to write partial stateless commands.
type Funcs struct {
	HandleFunc       func(ctx context.Context, env *Env, args []string) error
	StartupFunc      func(ctx context.Context, env *Env) error
	ShutdownFunc     func(ctx context.Context, env *Env) error
	HealthChecksFunc func(ctx context.Context) (map[string]healthcheck.Check, error)
}

func (f Funcs) Handle(ctx context.Context, env *Env, args []string) error {
	if f.HandleFunc == nil {
		return nil
	}
	return f.HandleFunc(ctx, env, args)
}

func (f Funcs) Startup(ctx context.Context, env *Env) error {
	if f.StartupFunc == nil {
		return nil
	}
	return f.StartupFunc(ctx, env)
}

func (f Funcs) Shutdown(ctx context.Context, env *Env) error {
	if f.ShutdownFunc == nil {
		return nil
	}
	return f.ShutdownFunc(ctx, env)
}

func (f Funcs) HealthChecks(ctx context.Context) (map[string]healthcheck.Check, error) {
	if f.HealthChecksFunc == nil {
		return nil, nil
	}
	return f.HealthChecksFunc(ctx)
}

var (
	_ Command       = Funcs{}
	_ Starter       = Funcs{}
	_ Stopper       = Funcs{}
	_ HealthChecker = Funcs{}
)
