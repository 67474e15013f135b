package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/appcommands"
	"github.com/bft-labs/appcommands/internal/demo"
	"github.com/bft-labs/appcommands/pkg/cli"
	"github.com/bft-labs/appcommands/pkg/log"
	"github.com/bft-labs/appcommands/pkg/metrics"
)

const helpDescription = `
Run administrative commands inside the lifecycle of the demo application.

Highlights:
  - --lifespan runs the application's startup and shutdown handlers around the command.
  - --healthcheck PORT serves the command's health checks (and /metrics) while it runs.
  - Options come from $HOME/.appcommands/config.toml, APPCOMMANDS_* variables and flags.
`

var exampleUsage = strings.TrimSpace(`
  appcommands test-healthcheck --duration 10s
  appcommands watch --dir ./config --healthcheck 8080 --lifespan
  appcommands fail something broke
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	logger, err := log.NewZerologAdapter(os.Stderr, os.Getenv("APPCOMMANDS_LOG_LEVEL"))
	if err != nil {
		logger, _ = log.NewZerologAdapter(os.Stderr, "info")
	}

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitFailure)
	}

	app := demo.NewApp(logger)
	os.Exit(appcommands.Main(demo.Definitions(), appcommands.Options{
		Use:     "appcommands",
		Short:   "Run administrative commands inside the demo application's lifecycle",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		App:     app.Lifespan(),
		Metrics: m,
	}))
}
