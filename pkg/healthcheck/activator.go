package healthcheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/appcommands/pkg/log"
	"github.com/bft-labs/appcommands/pkg/metrics"
)

// Provider supplies the checks of a running command. The lookup may block.
type Provider interface {
	HealthChecks(ctx context.Context) (map[string]Check, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (map[string]Check, error)

// HealthChecks calls f.
func (f ProviderFunc) HealthChecks(ctx context.Context) (map[string]Check, error) {
	return f(ctx)
}

// Responder is a started-in-background probe endpoint.
type Responder interface {
	Start(ctx context.Context) error
}

// ResponderFactory builds the responder for a configuration.
type ResponderFactory func(cfg ServerConfig) Responder

// NewHTTPResponder is the default ResponderFactory.
func NewHTTPResponder(cfg ServerConfig) Responder {
	return NewServer(cfg)
}

// Activator starts the health check responder for one invocation.
type Activator struct {
	// Port to listen on. Zero disables health checks.
	Port int

	// Path of the probe endpoint. It must start with "/". Default: DefaultPath
	Path string

	// CheckTimeout bounds one probe. Default: DefaultCheckTimeout
	CheckTimeout time.Duration

	// NewResponder builds the responder. A nil factory with a non-zero
	// Port is a configuration error.
	NewResponder ResponderFactory

	Logger  log.Logger
	Metrics *metrics.Metrics
}

// Activate collects the checks from provider and starts the responder
// without waiting for it. It is a no-op when Port is zero. A nil provider
// registers no checks.
func (a *Activator) Activate(ctx context.Context, provider Provider) (Responder, error) {
	if a.Port == 0 {
		return nil, nil
	}
	if a.Port < 0 || a.Port > 65535 {
		return nil, &ConfigError{Missing: "a valid port", Reason: fmt.Sprintf("got %d", a.Port)}
	}
	if a.Path != "" && !strings.HasPrefix(a.Path, "/") {
		return nil, &ConfigError{Missing: "a path starting with /", Reason: fmt.Sprintf("got %q", a.Path)}
	}
	if a.NewResponder == nil {
		return nil, &ConfigError{Missing: "an HTTP responder", Reason: "no responder factory configured"}
	}

	logger := log.OrNoop(a.Logger)

	registry := NewRegistry()
	if provider != nil {
		checks, err := provider.HealthChecks(ctx)
		if err != nil {
			return nil, err
		}
		if err := registry.AddAll(checks); err != nil {
			return nil, err
		}
	}

	responder := a.NewResponder(ServerConfig{
		Addr:    fmt.Sprintf(":%d", a.Port),
		Path:    a.Path,
		Checker: NewChecker(registry, a.CheckTimeout),
		Logger:  logger,
		Metrics: a.Metrics,
	})
	if err := responder.Start(ctx); err != nil {
		return nil, err
	}

	logger.Debug("health checks activated",
		log.Int("port", a.Port),
		log.Int("checks", registry.Len()),
	)
	return responder, nil
}
