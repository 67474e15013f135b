package healthcheck

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single probe evaluation.
const DefaultCheckTimeout = 5 * time.Second

// Result is the outcome of evaluating every registered check.
type Result struct {
	Healthy bool
	Checks  map[string]bool
}

// Checker evaluates the checks of a Registry concurrently.
type Checker struct {
	registry *Registry
	timeout  time.Duration
}

// NewChecker creates a checker over registry. A non-positive timeout uses
// DefaultCheckTimeout.
func NewChecker(registry *Registry, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Checker{registry: registry, timeout: timeout}
}

// Run evaluates all checks. The result is healthy only if every check
// returned true; a check that panics or outlives the timeout counts as failed.
func (c *Checker) Run(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	names := c.registry.Names()
	results := make([]bool, len(names))

	var g errgroup.Group
	for i, name := range names {
		i, check := i, c.registry.get(name)
		g.Go(func() error {
			results[i] = runCheck(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Healthy: true, Checks: make(map[string]bool, len(names))}
	for i, name := range names {
		res.Checks[name] = results[i]
		if !results[i] {
			res.Healthy = false
		}
	}
	return res
}

func runCheck(ctx context.Context, check Check) bool {
	done := make(chan bool, 1)
	go func() {
		ok := false
		defer func() {
			_ = recover()
			done <- ok
		}()
		ok = check(ctx)
	}()

	select {
	case ok := <-done:
		return ok
	case <-ctx.Done():
		return false
	}
}
