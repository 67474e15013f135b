package demo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bft-labs/appcommands/pkg/cli"
	"github.com/bft-labs/appcommands/pkg/command"
	"github.com/bft-labs/appcommands/pkg/healthcheck"
)

// Definitions returns the demo commands.
func Definitions() []cli.Definition {
	return []cli.Definition{
		{
			Name:            "test-healthcheck",
			HealthcheckPort: 8000,
			New:             func() command.Command { return NewHealthcheckDemo() },
		},
		{
			Name: "watch",
			New:  func() command.Command { return NewWatch() },
		},
		{
			Name:           "fail",
			Help:           "Fail with the given message.",
			AllowExtraArgs: true,
			New:            func() command.Command { return Fail{} },
		},
	}
}

// HealthcheckDemo serves two slow health checks for a while.
type HealthcheckDemo struct {
	Duration     time.Duration
	DBLatency    time.Duration
	CacheLatency time.Duration
}

// NewHealthcheckDemo creates the command with its default timings.
func NewHealthcheckDemo() *HealthcheckDemo {
	return &HealthcheckDemo{
		Duration:     30 * time.Second,
		DBLatency:    300 * time.Millisecond,
		CacheLatency: 100 * time.Millisecond,
	}
}

func (c *HealthcheckDemo) Help() string { return "Test healthcheck server" }

func (c *HealthcheckDemo) BindFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&c.Duration, "duration", c.Duration, "how long to keep serving")
}

func (c *HealthcheckDemo) Handle(ctx context.Context, env *command.Env, args []string) error {
	fmt.Fprintf(env.Stdout, "Health check on port %d\n", env.HealthcheckPort)

	t := time.NewTimer(c.Duration)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *HealthcheckDemo) HealthChecks(ctx context.Context) (map[string]healthcheck.Check, error) {
	return map[string]healthcheck.Check{
		"db":    slowCheck(c.DBLatency),
		"cache": slowCheck(c.CacheLatency),
	}, nil
}

// slowCheck passes after d unless the probe is abandoned first.
func slowCheck(d time.Duration) healthcheck.Check {
	return func(ctx context.Context) bool {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			return true
		}
	}
}

// Fail always ends with an expected failure.
type Fail struct{}

func (Fail) Handle(ctx context.Context, env *command.Env, args []string) error {
	msg := strings.Join(args, " ")
	if msg == "" {
		msg = "failed as requested"
	}
	return command.NewError(msg)
}
