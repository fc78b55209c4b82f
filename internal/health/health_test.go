package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker(Config{URL: srv.URL})
	assert.True(t, c.Once(context.Background()))

	down := NewChecker(Config{URL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.False(t, down.Once(context.Background()))
}

// A 500 still proves something is listening, which is all the probe asks.
func TestOnceAnyStatusCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewChecker(Config{URL: srv.URL})
	assert.True(t, c.Once(context.Background()))
}

func TestWaitSucceedsOnceServerAppears(t *testing.T) {
	var up atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !up.Load() {
			// simulate a socket that exists but a server still booting by
			// hijacking and dropping the connection
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	go func() {
		time.Sleep(60 * time.Millisecond)
		up.Store(true)
	}()

	c := NewChecker(Config{
		URL:      srv.URL,
		Interval: 20 * time.Millisecond,
		Timeout:  200 * time.Millisecond,
		Deadline: 2 * time.Second,
	})
	start := time.Now()
	assert.True(t, c.Wait(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitDeadline(t *testing.T) {
	c := NewChecker(Config{
		URL:      "http://127.0.0.1:1",
		Interval: 10 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
		Deadline: 120 * time.Millisecond,
	})
	start := time.Now()
	assert.False(t, c.Wait(context.Background()))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestWaitCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewChecker(Config{
		URL:      "http://127.0.0.1:1",
		Interval: 10 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
		Deadline: 10 * time.Second,
	})
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	assert.False(t, c.Wait(ctx))
}

func TestNormalizedDefaults(t *testing.T) {
	c := Config{URL: "http://127.0.0.1:5000"}.Normalized()
	assert.Equal(t, DefaultInterval, c.Interval)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, DefaultDeadline, c.Deadline)
}
