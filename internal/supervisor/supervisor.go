package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/servnest/servnest/internal/browser"
	"github.com/servnest/servnest/internal/event"
	"github.com/servnest/servnest/internal/health"
	"github.com/servnest/servnest/internal/history"
	"github.com/servnest/servnest/internal/logger"
	"github.com/servnest/servnest/internal/metrics"
)

// ErrSpawn marks a start attempt the OS rejected outright (missing target,
// permission, bad workdir). It is the only failure Start returns; everything
// later is reported through the event queue instead.
var ErrSpawn = errors.New("spawn failed")

// Spec describes the one server a Supervisor manages.
type Spec struct {
	Name        string        // display / log-file name, e.g. "ai-build"
	Command     string        // executable to run
	Args        []string      // fixed args, e.g. ["ai_build.py", "gui"]
	WorkDir     string        // working directory for the child
	Env         []string      // extra KEY=VALUE entries appended to the inherited env
	URL         string        // base URL the server listens on once ready
	Probe       health.Config // readiness probe timings; URL defaults to Spec.URL
	QueueCap    int           // event queue capacity (0 = default)
	OpenBrowser bool          // open URL once on the first successful probe
	Log         logger.Config // rotating file copy of the child's combined output
	History     history.Sink  // optional lifecycle audit destination
}

// Status is a point-in-time snapshot for the control API and CLI.
type Status struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	URL       string    `json:"url"`
}

// Supervisor owns one child server process: it spawns it with merged
// stdout/stderr, reads and classifies its output, polls the URL for
// readiness, and feeds everything to a single consumer through the event
// queue. At most one child is alive at any time.
//
// Producers (output reader, health poller, startup check) only push events.
// All state transitions driven by their signals, and the browser-open side
// effect, happen inside Drain on the consumer goroutine. Each Start opens a
// new episode; signal events are stamped with the episode that produced
// them and Drain ignores signals from episodes that are already over.
type Supervisor struct {
	mu            sync.Mutex
	spec          Spec
	queue         *event.Queue
	sm            stateMachine
	cmd           *exec.Cmd
	pid           int
	startedAt     time.Time
	waitDone      chan struct{} // closed by the reader once the exit code is collected
	browserOpened bool          // one open per lifecycle episode
	episode       uint64        // incremented by every successful Start
	open          browser.Opener

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a Supervisor in the Stopped state. Nothing is spawned yet.
func New(spec Spec) *Supervisor {
	if spec.Probe.URL == "" {
		spec.Probe.URL = spec.URL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		spec:   spec,
		queue:  event.NewQueue(spec.QueueCap),
		sm:     stateMachine{state: StateStopped},
		open:   browser.Open,
		ctx:    ctx,
		cancel: cancel,
	}
}

// StartupCheck probes the URL once to detect an instance that was already
// running before this launcher came up. On success it queues a signal that
// moves the state machine Stopped->Running without spawning anything.
// Intended to run in its own goroutine right after New.
func (s *Supervisor) StartupCheck(ctx context.Context) {
	checker := health.NewChecker(s.spec.Probe)
	if checker.Once(ctx) {
		ev := event.NewSignal(
			fmt.Sprintf("✓ server already running at %s", s.spec.URL),
			event.SevOK, event.SignalAlreadyRunning)
		ev.Episode = s.currentEpisode()
		s.queue.Push(ev)
	}
}

// Start spawns the child with stdout and stderr merged into one stream and
// launches the output reader and readiness poller. If a child is already
// alive the call is a no-op that queues a warning. A spawn rejection queues
// an error event and returns ErrSpawn wrapped around the OS error; state is
// left unchanged so the user can fix the path and retry.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.aliveLocked() {
		s.mu.Unlock()
		s.queue.Push(event.New("server is already running; start ignored", event.SevWarn))
		return nil
	}
	spec := s.spec
	s.mu.Unlock()

	cmd := exec.Command(spec.Command, spec.Args...)
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	configureSysProcAttr(cmd)

	// One pipe carries both channels so line interleaving matches what a
	// terminal would have shown.
	pr, pw, err := os.Pipe()
	if err != nil {
		s.queue.Push(event.New("failed to start server: "+err.Error(), event.SevError))
		metrics.IncSpawnFailure()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		s.queue.Push(event.New("failed to start server: "+err.Error(), event.SevError))
		metrics.IncSpawnFailure()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	// The child holds its own copy of the write end now.
	_ = pw.Close()

	s.mu.Lock()
	s.cmd = cmd
	s.pid = cmd.Process.Pid
	s.startedAt = time.Now()
	s.waitDone = make(chan struct{})
	s.browserOpened = false
	s.episode++
	gen := s.episode
	waitDone := s.waitDone
	from := s.sm.state
	s.sm.state = StateStarting
	s.mu.Unlock()

	metrics.IncSpawn()
	metrics.RecordStateTransition(string(from), string(StateStarting))
	setStateGauges(StateStarting)
	s.record(history.EventSpawn, 0, "")

	s.queue.Push(event.New(fmt.Sprintf("command : %s", cmd.String()), event.SevDim))
	if spec.WorkDir != "" {
		s.queue.Push(event.New(fmt.Sprintf("workdir : %s", spec.WorkDir), event.SevDim))
	}
	s.queue.Push(event.New(fmt.Sprintf("url     : %s", spec.URL), event.SevDim))

	logW, lerr := spec.Log.Writer(spec.Name)
	if lerr != nil {
		slog.Warn("could not open server log file", "error", lerr)
	}

	go s.readOutput(pr, cmd, logW, waitDone, gen)
	go s.pollReady(gen, s.startedAt)
	return nil
}

// Stop requests graceful termination of the current child. It never blocks
// for the exit: the reader observes it and queues the terminal event. When
// no child is alive Stop is a no-op. A refusal from the OS is reported as an
// error event; there is no forced-kill escalation.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	alive := s.aliveLocked()
	pid := s.pid
	s.mu.Unlock()
	if !alive {
		return nil
	}
	if err := terminate(pid); err != nil {
		s.queue.Push(event.New("failed to stop server: "+err.Error(), event.SevError))
		return err
	}
	s.queue.Push(event.New("server stop requested", event.SevDim))
	return nil
}

// Running reports whether a child was spawned and its exit has not been
// observed yet. It never blocks.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aliveLocked()
}

// State returns the current readiness state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sm.state
}

// Status returns a snapshot for the control API.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Name:    s.spec.Name,
		State:   s.sm.state,
		Running: s.aliveLocked(),
		URL:     s.spec.URL,
	}
	if st.Running {
		st.PID = s.pid
		st.StartedAt = s.startedAt
	}
	return st
}

// Drain removes every queued event, applies any lifecycle signals to the
// state machine, performs the resulting side effects, and returns the events
// for display. It must be called from a single goroutine, the presentation
// layer's drain tick.
func (s *Supervisor) Drain() []event.Event {
	evs := s.queue.Drain()
	for i := range evs {
		if evs[i].Signal != event.SignalNone {
			s.applySignal(evs[i].Signal, evs[i].Episode)
		}
	}
	return evs
}

// Close cancels the readiness poller and releases the supervisor. The child,
// if alive, is asked to stop first.
func (s *Supervisor) Close() {
	_ = s.Stop()
	s.cancel()
}

func (s *Supervisor) aliveLocked() bool {
	if s.cmd == nil || s.waitDone == nil {
		return false
	}
	select {
	case <-s.waitDone:
		return false
	default:
		return true
	}
}

func (s *Supervisor) currentEpisode() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episode
}

func (s *Supervisor) applySignal(sig event.Signal, episode uint64) {
	s.mu.Lock()
	if episode != s.episode {
		// The signal was queued by an earlier episode and a restart has
		// happened since; applying it would tear down the current child.
		s.mu.Unlock()
		return
	}
	from, to, changed := s.sm.apply(sig)
	openURL := ""
	if changed {
		if sig == event.SignalReady && !s.browserOpened && s.spec.OpenBrowser {
			s.browserOpened = true
			openURL = s.spec.URL
		}
		if to == StateStopped {
			s.cmd = nil
			s.pid = 0
		}
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	metrics.RecordStateTransition(string(from), string(to))
	setStateGauges(to)
	if openURL != "" {
		s.open(openURL)
	}
}

// pollReady waits for the first successful probe or the deadline. Success
// queues the up event with its signal; the deadline queues a single warning
// and leaves the state alone; the server may legitimately still be loading
// and the log pane is the place to investigate.
func (s *Supervisor) pollReady(gen uint64, startedAt time.Time) {
	checker := health.NewChecker(s.spec.Probe)
	if checker.Wait(s.ctx) {
		if s.currentEpisode() != gen {
			// A restart happened while this poller was waiting; the new
			// episode has its own poller.
			return
		}
		metrics.ObserveReadyDuration(time.Since(startedAt).Seconds())
		s.record(history.EventReady, 0, "")
		ev := event.NewSignal(
			fmt.Sprintf("✓ server ready at %s", s.spec.URL),
			event.SevOK, event.SignalReady)
		ev.Episode = gen
		s.queue.Push(ev)
		return
	}
	if s.ctx.Err() != nil || s.currentEpisode() != gen {
		return
	}
	deadline := s.spec.Probe.Normalized().Deadline
	s.queue.Push(event.New(
		fmt.Sprintf("server did not respond within %s; it may still be starting, check the log", deadline),
		event.SevWarn))
}

// readOutput drains the combined stream line by line, classifies every
// non-empty line and queues it. A mid-stream read error is treated the same
// as end-of-stream. Once the stream ends it collects the exit code, closes
// waitDone, and queues the terminal event carrying the exit signal.
func (s *Supervisor) readOutput(pr *os.File, cmd *exec.Cmd, logW io.WriteCloser, waitDone chan struct{}, gen uint64) {
	scanLines(pr, func(line string) {
		if logW != nil {
			_, _ = logW.Write([]byte(line + "\n"))
		}
		if line == "" {
			return
		}
		sev := event.Classify(line)
		metrics.IncEvent(string(sev))
		s.queue.Push(event.New(line, sev))
	})
	_ = pr.Close()
	if logW != nil {
		_ = logW.Close()
	}

	err := cmd.Wait()
	code := exitCodeOf(err)
	close(waitDone)
	metrics.IncExit(code == 0)
	if code == 0 {
		s.record(history.EventExit, 0, "")
		ev := event.NewSignal("server exited cleanly (exit code 0)", event.SevOK, event.SignalExit)
		ev.Episode = gen
		s.queue.Push(ev)
	} else {
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		s.record(history.EventExit, code, detail)
		ev := event.NewSignal(
			fmt.Sprintf("server exited with code %d", code),
			event.SevWarn, event.SignalExit)
		ev.Episode = gen
		s.queue.Push(ev)
	}
}

func (s *Supervisor) record(t history.EventType, exitCode int, detail string) {
	s.mu.Lock()
	sink := s.spec.History
	pid := s.pid
	cmdStr := s.spec.Command
	url := s.spec.URL
	s.mu.Unlock()
	if sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	e := history.Event{
		Type:       t,
		OccurredAt: time.Now().UTC(),
		PID:        pid,
		Command:    cmdStr,
		URL:        url,
		ExitCode:   exitCode,
		Detail:     detail,
	}
	if err := sink.Send(ctx, e); err != nil {
		slog.Warn("history sink rejected event", "type", string(t), "error", err)
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

func setStateGauges(active State) {
	for _, st := range []State{StateStopped, StateStarting, StateRunning} {
		metrics.SetCurrentState(string(st), st == active)
	}
}
