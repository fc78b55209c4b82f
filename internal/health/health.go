package health

import (
	"context"
	"net/http"
	"time"

	"github.com/servnest/servnest/internal/metrics"
)

// Default probe timings. The server is local, so probes are cheap; the
// deadline only exists to stop polling a server that never came up.
const (
	DefaultInterval = 500 * time.Millisecond
	DefaultTimeout  = 1 * time.Second
	DefaultDeadline = 30 * time.Second
)

// Config describes one readiness-probe target. Interval, Timeout and
// Deadline are explicit so tests can run the full poll loop in milliseconds.
type Config struct {
	URL      string
	Interval time.Duration // pause between attempts
	Timeout  time.Duration // per-probe HTTP timeout
	Deadline time.Duration // overall polling budget
}

// Normalized returns a copy with zero fields replaced by defaults.
func (c Config) Normalized() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Deadline <= 0 {
		c.Deadline = DefaultDeadline
	}
	return c
}

// Checker probes a local HTTP URL. Any response at all counts as up;
// connection refused, reset and timeout are the same kind of "not yet".
type Checker struct {
	cfg    Config
	client *http.Client
}

func NewChecker(cfg Config) *Checker {
	cfg = cfg.Normalized()
	return &Checker{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Once issues a single probe. Used at startup to detect an instance that is
// already listening before anything was spawned.
func (c *Checker) Once(ctx context.Context) bool {
	up := c.probe(ctx)
	metrics.IncProbe(up)
	return up
}

func (c *Checker) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// Wait polls until the first successful probe or until the deadline elapses,
// whichever comes first. It returns true exactly when the service answered.
// Cancelling ctx ends the wait early with false.
func (c *Checker) Wait(ctx context.Context) bool {
	deadline := time.NewTimer(c.cfg.Deadline)
	defer deadline.Stop()
	tick := time.NewTicker(c.cfg.Interval)
	defer tick.Stop()

	for {
		if c.Once(ctx) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
		}
	}
}
