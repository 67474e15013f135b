package cli

import (
	"errors"
	"fmt"

	"github.com/bft-labs/appcommands/internal/cliconfig"
	"github.com/bft-labs/appcommands/pkg/command"
)

var (
	// ErrDuplicateCommand is returned when two definitions share a name.
	ErrDuplicateCommand = errors.New("cli: duplicate command")

	// ErrInvalidDefinition is returned for a definition without a name or constructor.
	ErrInvalidDefinition = errors.New("cli: invalid command definition")
)

// Definition declares an administrative command.
type Definition struct {
	Name string

	// Help overrides the text returned by a command implementing command.Helper.
	Help string

	// AllowExtraArgs passes positional arguments to the command. Without it
	// any positional argument is a usage error.
	AllowExtraArgs bool

	// Defaults for this command, overridden by the config file, the
	// environment and flags. A zero port leaves health checks disabled.
	HealthcheckPort int
	HealthcheckPath string
	Lifespan        *bool

	// New creates a command instance. It is called for every definition
	// each time the tree is built, once per Execute, and the instance serves
	// at most one invocation; its bound flags also supply the help output.
	New func() command.Command
}

func (d Definition) overrides() cliconfig.CommandOverrides {
	o := cliconfig.CommandOverrides{
		HealthcheckPath: d.HealthcheckPath,
		Lifespan:        d.Lifespan,
	}
	if d.HealthcheckPort != 0 {
		port := d.HealthcheckPort
		o.HealthcheckPort = &port
	}
	return o
}

// Registry is the explicit registration table of commands.
type Registry struct {
	defs   []Definition
	byName map[string]int
}

// NewRegistry creates a registry holding defs in order.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{byName: make(map[string]int)}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d to the table.
func (r *Registry) Register(d Definition) error {
	if d.Name == "" || d.New == nil {
		return fmt.Errorf("%w: name and constructor are required", ErrInvalidDefinition)
	}
	if _, ok := r.byName[d.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, d.Name)
	}
	r.byName[d.Name] = len(r.defs)
	r.defs = append(r.defs, d)
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Definitions returns the definitions in registration order.
func (r *Registry) Definitions() []Definition {
	return append([]Definition(nil), r.defs...)
}
