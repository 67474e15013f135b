// Package metrics exposes Prometheus collectors for command invocations,
// lifespan handshakes and health probes.
//
// Methods handle a nil receiver, so a nil *Metrics disables collection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Invocation results.
const (
	ResultSuccess      = "success"
	ResultCommandError = "command_error"
	ResultError        = "error"
	ResultCanceled     = "canceled"
)

// Handshake phases.
const (
	PhaseStartup  = "startup"
	PhaseShutdown = "shutdown"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	// Invocations counts finished command invocations.
	// Labels: command, result=[success, command_error, error, canceled]
	Invocations *prometheus.CounterVec

	// Handshakes tracks lifespan handshake latency.
	// Labels: phase=[startup, shutdown], outcome=[ok, failed]
	Handshakes *prometheus.HistogramVec

	// Probes counts health probes answered by the responder.
	// Labels: result=[healthy, unhealthy]
	Probes *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
// A nil reg gets a fresh private registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appcommands_invocations_total",
				Help: "Total command invocations by command and result",
			},
			[]string{"command", "result"},
		),
		Handshakes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "appcommands_lifespan_handshake_seconds",
				Help:    "Lifespan handshake duration by phase and outcome",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"phase", "outcome"},
		),
		Probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appcommands_healthcheck_probes_total",
				Help: "Total health probes answered by result",
			},
			[]string{"result"},
		),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.Invocations, m.Handshakes, m.Probes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Gatherer returns the registry the collectors were registered on.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.gatherer
}

// ObserveInvocation records a finished invocation.
func (m *Metrics) ObserveInvocation(command, result string) {
	if m == nil {
		return
	}
	m.Invocations.WithLabelValues(command, result).Inc()
}

// ObserveHandshake records the duration of a lifespan handshake.
func (m *Metrics) ObserveHandshake(phase string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.Handshakes.WithLabelValues(phase, outcome).Observe(d.Seconds())
}

// ObserveProbe records a health probe result.
func (m *Metrics) ObserveProbe(healthy bool) {
	if m == nil {
		return
	}
	result := "healthy"
	if !healthy {
		result = "unhealthy"
	}
	m.Probes.WithLabelValues(result).Inc()
}
