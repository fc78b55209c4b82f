package supervisor

import (
	"testing"

	"github.com/servnest/servnest/internal/event"
	"github.com/stretchr/testify/assert"
)

func TestStateMachineTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    State
		sig     event.Signal
		to      State
		changed bool
	}{
		{"starting ready", StateStarting, event.SignalReady, StateRunning, true},
		{"starting exit is fast failure", StateStarting, event.SignalExit, StateStopped, true},
		{"running exit", StateRunning, event.SignalExit, StateStopped, true},
		{"stopped already-running shortcut", StateStopped, event.SignalAlreadyRunning, StateRunning, true},
		{"stopped ignores ready", StateStopped, event.SignalReady, StateStopped, false},
		{"stopped ignores exit", StateStopped, event.SignalExit, StateStopped, false},
		{"running ignores late ready", StateRunning, event.SignalReady, StateRunning, false},
		{"running ignores already-running", StateRunning, event.SignalAlreadyRunning, StateRunning, false},
		{"starting ignores already-running", StateStarting, event.SignalAlreadyRunning, StateStarting, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := stateMachine{state: tc.from}
			from, to, changed := m.apply(tc.sig)
			assert.Equal(t, tc.from, from)
			assert.Equal(t, tc.to, to)
			assert.Equal(t, tc.changed, changed)
			assert.Equal(t, tc.to, m.state)
		})
	}
}

func TestStateMachineReadyOnlyOnce(t *testing.T) {
	m := stateMachine{state: StateStarting}
	_, _, changed := m.apply(event.SignalReady)
	assert.True(t, changed)
	_, _, changed = m.apply(event.SignalReady)
	assert.False(t, changed, "a second probe success must not transition again")
}
