package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bft-labs/appcommands/internal/cliconfig"
	"github.com/bft-labs/appcommands/pkg/command"
	"github.com/bft-labs/appcommands/pkg/healthcheck"
	"github.com/bft-labs/appcommands/pkg/lifecycle"
	"github.com/bft-labs/appcommands/pkg/lifespan"
	"github.com/bft-labs/appcommands/pkg/log"
	"github.com/bft-labs/appcommands/pkg/metrics"
)

const (
	flagConfig     = "config"
	flagNoLifespan = "no-lifespan"
)

// Options configures the command tree.
type Options struct {
	Use     string
	Short   string
	Long    string
	Example string
	Version string

	// App is the hosted application driven through the lifespan protocol.
	App lifespan.App

	Stdout io.Writer
	Stderr io.Writer

	// Logger replaces the zerolog logger built from --log-level.
	Logger log.Logger

	// Handlers form the exception handler chain, outermost first.
	// Default: a single handler logging unexpected failures.
	Handlers []command.Handler

	Metrics      *metrics.Metrics
	NewResponder healthcheck.ResponderFactory
	EventEmitter lifecycle.EventEmitter
}

// CLI is the cobra command tree built from a Registry.
type CLI struct {
	registry *Registry
	opts     Options
	root     *cobra.Command

	cfg        cliconfig.Config
	cfgPath    string
	noLifespan bool

	// invoked is set once a subcommand's RunE starts; errors returned
	// before that come from command line parsing.
	invoked bool

	// executed is set once the current tree has been run.
	executed bool
}

// New builds the command tree for reg.
func New(reg *Registry, opts Options) *CLI {
	if opts.Use == "" {
		opts.Use = "appcommands"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.NewResponder == nil {
		opts.NewResponder = healthcheck.NewHTTPResponder
	}

	c := &CLI{
		registry: reg,
		opts:     opts,
	}
	c.build()
	return c
}

// build creates a fresh tree, flag state and command instances.
func (c *CLI) build() {
	opts := c.opts
	c.cfg = cliconfig.DefaultConfig()
	c.cfgPath = ""
	c.noLifespan = false
	c.invoked = false
	c.executed = false

	root := &cobra.Command{
		Use:           opts.Use,
		Short:         opts.Short,
		Long:          opts.Long,
		Example:       opts.Example,
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, flagConfig, "", "path to config file (default: $HOME/.appcommands/config.toml)")
	pf.IntVar(&c.cfg.HealthcheckPort, cliconfig.FlagHealthcheck, c.cfg.HealthcheckPort, "serve health checks on this port (0 disables)")
	pf.StringVar(&c.cfg.HealthcheckPath, cliconfig.FlagHealthcheckPath, c.cfg.HealthcheckPath, "HTTP path of the health check endpoint")
	pf.BoolVar(&c.cfg.Lifespan, cliconfig.FlagLifespan, c.cfg.Lifespan, "run the application's startup and shutdown handlers")
	pf.BoolVar(&c.noLifespan, flagNoLifespan, false, "do not run the application's startup and shutdown handlers")
	pf.StringVar(&c.cfg.LogLevel, cliconfig.FlagLogLevel, c.cfg.LogLevel, fmt.Sprintf("log level (%s)", strings.Join(log.Levels, ", ")))
	pf.DurationVar(&c.cfg.ShutdownTimeout, cliconfig.FlagShutdownTimeout, c.cfg.ShutdownTimeout, "upper bound for the shutdown hook and handshake")
	pf.DurationVar(&c.cfg.CheckTimeout, cliconfig.FlagCheckTimeout, c.cfg.CheckTimeout, "upper bound for a single health check")
	root.MarkFlagsMutuallyExclusive(cliconfig.FlagLifespan, flagNoLifespan)

	for _, def := range c.registry.Definitions() {
		root.AddCommand(c.subcommand(def))
	}

	c.root = root
}

// Root returns the cobra root command the next Execute runs. Every Execute
// after the first rebuilds the tree, so changes made through Root last for
// one run.
func (c *CLI) Root() *cobra.Command {
	return c.root
}

// Execute runs the command line args. Parsing failures are returned as
// UsageError. Each call runs on its own tree with new command instances, so
// no flag values or command state carry over from an earlier call.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	if c.executed {
		c.build()
	}
	c.executed = true

	c.root.SetArgs(args)
	err := c.root.ExecuteContext(ctx)
	if err != nil && !c.invoked {
		return &UsageError{Err: err}
	}
	return err
}

// Main executes os.Args with SIGINT and SIGTERM canceling the command
// context, prints usage and configuration errors and returns the exit code.
func (c *CLI) Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := c.Execute(ctx, os.Args[1:])
	if errors.Is(err, ErrUsage) || errors.Is(err, ErrConfig) {
		fmt.Fprintf(c.opts.Stderr, "Error: %v\n", err)
		if errors.Is(err, ErrUsage) {
			fmt.Fprintf(c.opts.Stderr, "Run '%s --help' for usage.\n", c.root.CommandPath())
		}
	}
	return ExitCode(err)
}

func (c *CLI) subcommand(def Definition) *cobra.Command {
	cmd := def.New()

	help := def.Help
	if h, ok := cmd.(command.Helper); ok && help == "" {
		help = h.Help()
	}
	short, _, _ := strings.Cut(strings.TrimSpace(help), "\n")

	sub := &cobra.Command{
		Use:   def.Name,
		Short: short,
		Long:  strings.TrimSpace(help),
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, args []string) error {
			c.invoked = true
			return c.run(cc, def, cmd, args)
		},
	}
	if def.AllowExtraArgs {
		sub.Args = cobra.ArbitraryArgs
		sub.Use = def.Name + " [args...]"
	}
	if b, ok := cmd.(command.FlagBinder); ok {
		b.BindFlags(sub.Flags())
	}
	return sub
}

func (c *CLI) run(cc *cobra.Command, def Definition, cmd command.Command, args []string) error {
	cfg, err := c.resolve(cc.Flags(), def)
	if err != nil {
		return err
	}

	logger := c.opts.Logger
	if logger == nil {
		z, err := log.NewZerologAdapter(c.opts.Stderr, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		logger = z
	}

	runner := command.NewRunner(command.Config{
		Name:            def.Name,
		App:             c.opts.App,
		Lifespan:        cfg.Lifespan,
		Stdout:          c.opts.Stdout,
		Stderr:          c.opts.Stderr,
		HealthcheckPort: cfg.HealthcheckPort,
		HealthcheckPath: cfg.HealthcheckPath,
		CheckTimeout:    cfg.CheckTimeout,
		NewResponder:    c.opts.NewResponder,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
		Metrics:         c.opts.Metrics,
		EventEmitter:    c.opts.EventEmitter,
	})

	handlers := c.opts.Handlers
	if len(handlers) == 0 {
		handlers = []command.Handler{command.LogHandler(logger)}
	}
	return command.Chain(handlers...).Handle(cc.Context(), def.Name, func(ctx context.Context) error {
		return runner.Run(ctx, cmd, args)
	})
}

// resolve layers definition defaults, the config file, the environment and
// explicitly set flags, in increasing order of precedence.
func (c *CLI) resolve(fs *pflag.FlagSet, def Definition) (cliconfig.Config, error) {
	changed := map[string]bool{}
	fs.Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfg := c.cfg
	if changed[flagNoLifespan] {
		cfg.Lifespan = !c.noLifespan
		changed[cliconfig.FlagLifespan] = true
	}

	cliconfig.ApplyCommandOverrides(&cfg, def.overrides(), changed)

	cfgFile := c.cfgPath
	if cfgFile == "" {
		if p := cliconfig.DefaultConfigPath(); p != "" && cliconfig.FileExists(p) {
			cfgFile = p
		}
	}
	if cfgFile != "" {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("%w: load %s: %w", ErrConfig, cfgFile, err)
		}
		if err := cliconfig.ApplyFileConfig(&cfg, fc, def.Name, changed); err != nil {
			return cfg, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return cfg, nil
}
