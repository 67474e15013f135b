package demo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/bft-labs/appcommands/pkg/command"
	"github.com/bft-labs/appcommands/pkg/healthcheck"
	"github.com/bft-labs/appcommands/pkg/log"
)

// Watch prints changes below a directory until interrupted. Changes are
// debounced so that an editor's write-rename sequence is reported once.
type Watch struct {
	Dir       string
	Debounce  time.Duration
	MaxEvents int

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewWatch creates the command watching the working directory.
func NewWatch() *Watch {
	return &Watch{
		Dir:      ".",
		Debounce: 100 * time.Millisecond,
	}
}

func (w *Watch) Help() string {
	return "Print file changes in a directory.\n\nExposes a \"watcher\" health check while the watch is active."
}

func (w *Watch) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&w.Dir, "dir", w.Dir, "directory to watch")
	fs.DurationVar(&w.Debounce, "debounce", w.Debounce, "quiet period before changes are reported")
	fs.IntVar(&w.MaxEvents, "max-events", w.MaxEvents, "exit after this many reported changes (0 watches until interrupted)")
}

// Startup opens the watcher so that the health check reflects it.
func (w *Watch) Startup(ctx context.Context, env *command.Env) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.Dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	env.Logger.Debug("watching directory", log.String("dir", w.Dir))
	return nil
}

func (w *Watch) Shutdown(ctx context.Context, env *command.Env) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

func (w *Watch) HealthChecks(ctx context.Context) (map[string]healthcheck.Check, error) {
	return map[string]healthcheck.Check{
		"watcher": func(context.Context) bool {
			w.mu.Lock()
			defer w.mu.Unlock()
			return w.watcher != nil
		},
	}, nil
}

func (w *Watch) Handle(ctx context.Context, env *command.Env, args []string) error {
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil {
		return command.NewError("watcher is not running")
	}

	fmt.Fprintf(env.Stdout, "Watching %s\n", w.Dir)

	pending := map[string]fsnotify.Op{}
	debounce := time.NewTimer(w.Debounce)
	debounce.Stop()
	var flush <-chan time.Time
	reported := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			pending[ev.Name] |= ev.Op
			debounce.Reset(w.Debounce)
			flush = debounce.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			env.Logger.Warn("watch error", log.Err(err))

		case <-flush:
			flush = nil
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(env.Stdout, "%s %s\n", pending[name], name)
			}
			reported += len(names)
			pending = map[string]fsnotify.Op{}

			if w.MaxEvents > 0 && reported >= w.MaxEvents {
				return nil
			}
		}
	}
}

var (
	_ command.Starter       = (*Watch)(nil)
	_ command.Stopper       = (*Watch)(nil)
	_ command.HealthChecker = (*Watch)(nil)
	_ command.FlagBinder    = (*Watch)(nil)
)
