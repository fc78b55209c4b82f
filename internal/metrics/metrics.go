package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	spawns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "servnest",
			Subsystem: "server",
			Name:      "spawns_total",
			Help:      "Number of successful child spawns.",
		},
	)
	spawnFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "servnest",
			Subsystem: "server",
			Name:      "spawn_failures_total",
			Help:      "Number of spawn attempts rejected by the OS or a missing target.",
		},
	)
	exits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servnest",
			Subsystem: "server",
			Name:      "exits_total",
			Help:      "Number of observed child exits by outcome (clean/nonzero).",
		}, []string{"outcome"},
	)
	eventsBySeverity = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servnest",
			Subsystem: "log",
			Name:      "events_total",
			Help:      "Classified output events by severity tag.",
		}, []string{"severity"},
	)
	probeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servnest",
			Subsystem: "health",
			Name:      "probe_attempts_total",
			Help:      "Readiness probe attempts by outcome (up/down).",
		}, []string{"outcome"},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servnest",
			Subsystem: "server",
			Name:      "state_transitions_total",
			Help:      "State machine transitions between readiness states.",
		}, []string{"from", "to"},
	)
	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "servnest",
			Subsystem: "server",
			Name:      "current_state",
			Help:      "Current readiness state (1 = active state, 0 = inactive).",
		}, []string{"state"},
	)
	readyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "servnest",
			Subsystem: "health",
			Name:      "ready_duration_seconds",
			Help:      "Seconds from spawn until the first successful readiness probe.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{spawns, spawnFailures, exits, eventsBySeverity, probeAttempts, stateTransitions, currentState, readyDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the
// DefaultGatherer. The caller wires the route and server.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncSpawn() {
	if regOK.Load() {
		spawns.Inc()
	}
}

func IncSpawnFailure() {
	if regOK.Load() {
		spawnFailures.Inc()
	}
}

func IncExit(clean bool) {
	if regOK.Load() {
		outcome := "nonzero"
		if clean {
			outcome = "clean"
		}
		exits.WithLabelValues(outcome).Inc()
	}
}

func IncEvent(severity string) {
	if regOK.Load() {
		eventsBySeverity.WithLabelValues(severity).Inc()
	}
}

func IncProbe(up bool) {
	if regOK.Load() {
		outcome := "down"
		if up {
			outcome = "up"
		}
		probeAttempts.WithLabelValues(outcome).Inc()
	}
}

func RecordStateTransition(from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(from, to).Inc()
	}
}

func SetCurrentState(state string, active bool) {
	if regOK.Load() {
		var value float64
		if active {
			value = 1
		}
		currentState.WithLabelValues(state).Set(value)
	}
}

func ObserveReadyDuration(seconds float64) {
	if regOK.Load() {
		readyDuration.Observe(seconds)
	}
}
