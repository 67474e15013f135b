package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/appcommands/pkg/log"
	"github.com/bft-labs/appcommands/pkg/metrics"
)

// DefaultPath is the probe path used when none is configured.
const DefaultPath = "/healthcheck"

// MetricsPath serves Prometheus metrics when metrics are enabled.
const MetricsPath = "/metrics"

// Status codes returned by the probe endpoint.
const (
	StatusHealthy   = http.StatusOK
	StatusUnhealthy = http.StatusInternalServerError
)

// shutdownTimeout bounds the graceful stop of the responder.
const shutdownTimeout = 5 * time.Second

// ServerConfig configures a Server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// Path is the probe path. Default: DefaultPath
	Path string

	Checker *Checker
	Logger  log.Logger
	Metrics *metrics.Metrics
}

// Server is the HTTP responder answering health probes.
type Server struct {
	config   ServerConfig
	server   *http.Server
	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a responder. Call Start to bind and serve.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	cfg.Logger = log.OrNoop(cfg.Logger)
	if cfg.Checker == nil {
		cfg.Checker = NewChecker(NewRegistry(), 0)
	}

	s := &Server{config: cfg}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router serving the probe (and metrics) endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(s.config.Path, s.probe)
	if g := s.config.Metrics.Gatherer(); g != nil {
		r.Handle(MetricsPath, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return r
}

// Start binds the listen address and serves in the background. Bind errors
// are returned immediately. The server stops when ctx is done; it is not
// joined by the caller.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("healthcheck: listen %s: %w", s.config.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.config.Logger.Info("health check server listening",
		log.String("addr", ln.Addr().String()),
		log.String("path", s.config.Path),
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.config.Logger.Error("health check server failed", log.Err(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) probe(w http.ResponseWriter, r *http.Request) {
	res := s.config.Checker.Run(r.Context())
	s.config.Metrics.ObserveProbe(res.Healthy)

	status := StatusHealthy
	if !res.Healthy {
		status = StatusUnhealthy
		s.config.Logger.Warn("health check failed", log.Any("checks", res.Checks))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res.Checks); err != nil {
		s.config.Logger.Debug("write health check response", log.Err(err))
	}
}
