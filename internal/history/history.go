package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventSpawn EventType = "spawn"
	EventReady EventType = "ready"
	EventExit  EventType = "exit"
)

// Event is one lifecycle record for the supervised server: a spawn, the
// first successful readiness probe, or an observed exit.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	PID        int       `json:"pid"`
	Command    string    `json:"command"`
	URL        string    `json:"url"`
	ExitCode   int       `json:"exit_code"` // meaningful only for exit events
	Detail     string    `json:"detail,omitempty"`
}

// Sink is a destination for lifecycle events (local audit file, analytics
// database). Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
