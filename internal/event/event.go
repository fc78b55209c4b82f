package event

import "time"

// Severity tags a log line for presentation. The values mirror the
// highlight groups of the launcher's log pane.
type Severity string

const (
	SevInfo   Severity = "info"
	SevOK     Severity = "ok"
	SevWarn   Severity = "warn"
	SevError  Severity = "error"
	SevAccent Severity = "accent"
	SevTeal   Severity = "teal"
	SevDim    Severity = "dim"
)

// Signal marks an event that carries a lifecycle notification in addition
// to (or instead of) display text. Background tasks never mutate supervisor
// state directly; they attach a Signal and the consumer applies it when the
// queue is drained.
type Signal int

const (
	SignalNone Signal = iota
	// SignalReady is attached by the health poller on the first successful probe.
	SignalReady
	// SignalExit is attached to the terminal event once the child's exit code
	// has been collected.
	SignalExit
	// SignalAlreadyRunning is attached by the startup check when a service is
	// discovered listening before any child was spawned.
	SignalAlreadyRunning
)

// Event is one entry bound for the presentation layer. Immutable once created.
// Episode ties a lifecycle signal to the start/stop cycle that produced it:
// signals can sit undrained across a restart, and the consumer must ignore
// ones that belong to a cycle that is already over. Plain display events
// leave it zero.
type Event struct {
	At       time.Time
	Text     string
	Severity Severity
	Signal   Signal
	Episode  uint64
}

// New builds a plain display event stamped with the current time.
func New(text string, sev Severity) Event {
	return Event{At: time.Now(), Text: text, Severity: sev}
}

// NewSignal builds an event that also carries a lifecycle signal.
func NewSignal(text string, sev Severity, sig Signal) Event {
	return Event{At: time.Now(), Text: text, Severity: sev, Signal: sig}
}
