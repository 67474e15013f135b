package healthcheck

import (
	"context"
	"fmt"
	"sort"
)

// Check is a single named probe. It returns true when the checked resource
// is healthy and should honor ctx.
type Check func(ctx context.Context) bool

// Registry maps unique check names to checks. It is filled once before the
// responder starts and only read afterwards.
type Registry struct {
	checks map[string]Check
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Check)}
}

// Add registers check under name.
func (r *Registry) Add(name string, check Check) error {
	if name == "" || check == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCheck, name)
	}
	if _, ok := r.checks[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateCheck, name)
	}
	r.checks[name] = check
	return nil
}

// AddAll registers every check in checks.
func (r *Registry) AddAll(checks map[string]Check) error {
	for _, name := range sortedNames(checks) {
		if err := r.Add(name, checks[name]); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	return sortedNames(r.checks)
}

// Len returns the number of registered checks.
func (r *Registry) Len() int {
	return len(r.checks)
}

func (r *Registry) get(name string) Check {
	return r.checks[name]
}

func sortedNames(checks map[string]Check) []string {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
