// Package servnest embeds the supervision core of a desktop launcher for a
// locally hosted web service: it spawns one server process, classifies its
// merged output into tagged events, polls the service URL for readiness and
// hands everything to a single consumer loop.
package servnest

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/servnest/servnest/internal/config"
	"github.com/servnest/servnest/internal/event"
	"github.com/servnest/servnest/internal/health"
	"github.com/servnest/servnest/internal/history"
	"github.com/servnest/servnest/internal/history/factory"
	"github.com/servnest/servnest/internal/metrics"
	iapi "github.com/servnest/servnest/internal/server"
	"github.com/servnest/servnest/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = supervisor.Spec

type Status = supervisor.Status

type State = supervisor.State

const (
	StateStopped  = supervisor.StateStopped
	StateStarting = supervisor.StateStarting
	StateRunning  = supervisor.StateRunning
)

type Event = event.Event

type Severity = event.Severity

const (
	SevInfo   = event.SevInfo
	SevOK     = event.SevOK
	SevWarn   = event.SevWarn
	SevError  = event.SevError
	SevAccent = event.SevAccent
	SevTeal   = event.SevTeal
	SevDim    = event.SevDim
)

type ProbeConfig = health.Config

type HistorySink = history.Sink

type Config = cfg.Config

// RecentEvents feeds the control API's /events endpoint.
type RecentEvents = iapi.RecentEvents

// Supervisor is a thin facade over the internal supervisor.
// It provides a stable public API for embedding.
type Supervisor struct{ inner *supervisor.Supervisor }

// New builds a supervisor for one server. Nothing is spawned until Start.
func New(spec Spec) *Supervisor {
	return &Supervisor{inner: supervisor.New(spec)}
}

func (s *Supervisor) Start() error  { return s.inner.Start() }
func (s *Supervisor) Stop() error   { return s.inner.Stop() }
func (s *Supervisor) Running() bool { return s.inner.Running() }
func (s *Supervisor) State() State  { return s.inner.State() }
func (s *Supervisor) Status() Status {
	return s.inner.Status()
}

// Drain must be called from a single goroutine on a fixed tick; it returns
// the queued events and applies their lifecycle signals.
func (s *Supervisor) Drain() []Event { return s.inner.Drain() }

// StartupCheck probes once for an instance that is already listening.
func (s *Supervisor) StartupCheck(ctx context.Context) { s.inner.StartupCheck(ctx) }

// Close stops the child (if alive) and cancels background polling.
func (s *Supervisor) Close() { s.inner.Close() }

// LoadConfig reads a TOML launcher configuration.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config { return cfg.Default() }

// NewHistorySink builds a lifecycle audit sink from a DSN
// (sqlite://, postgres://, clickhouse://, or a plain file path).
func NewHistorySink(dsn string) (HistorySink, error) { return factory.NewSinkFromDSN(dsn) }

// NewHTTPServer starts the local control API on addr using the given supervisor.
func NewHTTPServer(addr, basePath string, s *Supervisor, recent RecentEvents) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, s, recent)
}

// NewHTTPHandler returns the control API as a mountable http.Handler.
func NewHTTPHandler(basePath string, s *Supervisor, recent RecentEvents) http.Handler {
	return iapi.NewRouter(s, recent, basePath).Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the
// default registry. It returns any immediate listen error; otherwise the
// server runs until the process exits.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return srv.ListenAndServe()
}
