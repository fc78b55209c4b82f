package client

import "time"

// Status mirrors the supervisor snapshot served by GET /status.
type Status struct {
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	URL       string    `json:"url"`
}

// Event mirrors one entry served by GET /events.
type Event struct {
	At       time.Time `json:"at"`
	Text     string    `json:"text"`
	Severity string    `json:"severity"`
}
