package supervisor

import (
	"github.com/servnest/servnest/internal/event"
)

// State is the launcher-visible readiness state of the supervised server.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
)

// stateMachine holds the readiness state and applies lifecycle signals.
// Signal-driven transitions happen only on the consumer side, inside Drain;
// the one direct move is Stopped->Starting performed by Start itself, which
// runs on the caller (presentation) goroutine.
//
//	stopped  --start ok-->        starting
//	starting --probe success-->   running
//	starting --exit observed-->   stopped  (fast failure)
//	running  --exit observed-->   stopped
//	stopped  --found listening--> running  (pre-existing instance)
//
// Anything else is ignored: a late probe success after the child died, or a
// duplicate exit, leaves the state untouched.
type stateMachine struct {
	state State
}

func (m *stateMachine) apply(sig event.Signal) (from, to State, changed bool) {
	from = m.state
	to = from
	switch sig {
	case event.SignalReady:
		if from == StateStarting {
			to = StateRunning
		}
	case event.SignalExit:
		if from == StateStarting || from == StateRunning {
			to = StateStopped
		}
	case event.SignalAlreadyRunning:
		if from == StateStopped {
			to = StateRunning
		}
	}
	if to != from {
		m.state = to
		changed = true
	}
	return from, to, changed
}
