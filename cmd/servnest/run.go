package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/servnest/servnest"
)

// eventRing keeps the most recent drained events for the /events endpoint.
type eventRing struct {
	mu   sync.Mutex
	buf  []servnest.Event
	max  int
	next int
	full bool
}

func newEventRing(max int) *eventRing {
	if max <= 0 {
		max = 1000
	}
	return &eventRing{buf: make([]servnest.Event, max), max: max}
}

func (r *eventRing) Add(evs ...servnest.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range evs {
		r.buf[r.next] = e
		r.next = (r.next + 1) % r.max
		if r.next == 0 {
			r.full = true
		}
	}
}

// Recent returns up to n events, oldest first.
func (r *eventRing) Recent(n int) []servnest.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := r.next
	if r.full {
		size = r.max
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]servnest.Event, 0, n)
	start := r.next - n
	if start < 0 {
		start += r.max
	}
	for i := 0; i < n; i++ {
		out = append(out, r.buf[(start+i)%r.max])
	}
	return out
}

// ANSI escape sequences for console rendering, one per severity.
const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
	ansiGray   = "\x1b[90m"
)

func colorFor(sev servnest.Severity) string {
	switch sev {
	case servnest.SevError:
		return ansiRed
	case servnest.SevOK:
		return ansiGreen
	case servnest.SevWarn:
		return ansiYellow
	case servnest.SevAccent:
		return ansiBlue
	case servnest.SevTeal:
		return ansiCyan
	case servnest.SevDim:
		return ansiGray
	default:
		return ""
	}
}

func renderLine(at time.Time, text string, sev servnest.Severity) string {
	ts := at.Format("15:04:05")
	if c := colorFor(sev); c != "" {
		return fmt.Sprintf("%s%s%s %s%s%s", ansiGray, ts, ansiReset, c, text, ansiReset)
	}
	return fmt.Sprintf("%s%s%s %s", ansiGray, ts, ansiReset, text)
}

// runLauncher is the run command body: it wires the supervisor, optional
// control API and metrics endpoint, then drains events on a fixed tick
// until the process is interrupted.
func runLauncher(c *servnest.Config) error {
	command, err := c.ResolveCommand()
	if err != nil {
		return err
	}

	if err := servnest.RegisterMetricsDefault(); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	var sink servnest.HistorySink
	if c.History.DSN != "" {
		sink, err = servnest.NewHistorySink(c.History.DSN)
		if err != nil {
			return fmt.Errorf("open history sink: %w", err)
		}
		defer func() { _ = sink.Close() }()
	}

	sup := servnest.New(servnest.Spec{
		Name:        c.Name,
		Command:     command,
		Args:        c.Args,
		WorkDir:     c.WorkDir,
		Env:         c.Env,
		URL:         c.URL,
		Probe:       c.ProbeFor(c.URL),
		QueueCap:    c.QueueCap,
		OpenBrowser: c.OpenBrowser,
		Log:         c.Log,
		History:     sink,
	})
	defer sup.Close()

	ring := newEventRing(0)

	if c.API.Listen != "" {
		srv, err := servnest.NewHTTPServer(c.API.Listen, "/api", sup, ring.Recent)
		if err != nil {
			return fmt.Errorf("control api: %w", err)
		}
		defer func() { _ = srv.Close() }()
		slog.Info("control api listening", "addr", c.API.Listen)
	}
	if c.Metrics.Listen != "" {
		go func() {
			if err := servnest.ServeMetrics(c.Metrics.Listen); err != nil {
				slog.Warn("metrics endpoint failed", "addr", c.Metrics.Listen, "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup.StartupCheck(ctx)
	drainOnce(sup, ring)

	if sup.State() == servnest.StateStopped {
		if err := sup.Start(); err != nil {
			drainOnce(sup, ring)
			return err
		}
	}

	tick := time.NewTicker(c.DrainTick)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := sup.Stop(); err != nil {
				slog.Warn("stop failed", "err", err)
			}
			drainOnce(sup, ring)
			return nil
		case <-tick.C:
			drainOnce(sup, ring)
		}
	}
}

func drainOnce(sup *servnest.Supervisor, ring *eventRing) {
	evs := sup.Drain()
	if len(evs) == 0 {
		return
	}
	ring.Add(evs...)
	for _, e := range evs {
		fmt.Println(renderLine(e.At, e.Text, e.Severity))
	}
}
