// Package demo is a small host application with a few administrative
// commands, used by the appcommands binary.
package demo

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/appcommands/pkg/lifespan"
	"github.com/bft-labs/appcommands/pkg/log"
)

// App is the demo host application. Its startup and shutdown handlers only
// track whether it is running.
type App struct {
	logger log.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
}

// NewApp creates the demo application. logger may be nil.
func NewApp(logger log.Logger) *App {
	return &App{logger: log.OrNoop(logger)}
}

// Lifespan returns the application's lifespan entry point.
func (a *App) Lifespan() lifespan.App {
	return lifespan.Hooks{
		Startup:  []lifespan.Hook{a.start},
		Shutdown: []lifespan.Hook{a.stop},
	}.App()
}

// Running reports whether startup completed and shutdown has not run yet.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *App) start(context.Context) error {
	a.mu.Lock()
	a.running = true
	a.startedAt = time.Now()
	a.mu.Unlock()

	a.logger.Info("application started")
	return nil
}

func (a *App) stop(context.Context) error {
	a.mu.Lock()
	uptime := time.Since(a.startedAt)
	a.running = false
	a.mu.Unlock()

	a.logger.Info("application stopped", log.Duration("uptime", uptime))
	return nil
}
