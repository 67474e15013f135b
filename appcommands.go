// Package appcommands runs administrative commands inside the lifecycle of
// a host application.
//
// Each command runs between the application's startup and shutdown
// handlers, can expose health checks over HTTP while it runs, and reports
// unexpected failures through a chain of exception handlers.
//
// Example usage:
//
//	app := myapp.New()
//	os.Exit(appcommands.Main([]appcommands.Definition{
//	    {Name: "migrate", New: func() appcommands.Command { return &Migrate{} }},
//	}, appcommands.Options{App: app.Lifespan()}))
package appcommands

import (
	"fmt"
	"os"

	"github.com/bft-labs/appcommands/pkg/cli"
	"github.com/bft-labs/appcommands/pkg/command"
	"github.com/bft-labs/appcommands/pkg/lifespan"
)

// Command is the body of an administrative command.
type Command = command.Command

// Env is what a running command sees of its invocation.
type Env = command.Env

// Definition declares a command of the command line.
type Definition = cli.Definition

// Options configures the command line.
type Options = cli.Options

// App is a hosted application's lifespan entry point.
type App = lifespan.App

// Error is an expected command failure.
type Error = command.Error

// Errorf creates an expected command failure.
func Errorf(format string, args ...interface{}) *Error {
	return command.Errorf(format, args...)
}

// Main runs the command line built from defs and returns the process exit
// status. An invalid definition table exits with status 1.
func Main(defs []Definition, opts Options) int {
	reg, err := cli.NewRegistry(defs...)
	if err != nil {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.ExitFailure
	}
	return cli.New(reg, opts).Main()
}
