package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ai-build","state":"running","running":true,"pid":99,"url":"http://127.0.0.1:5000"}`))
	})
	mux.HandleFunc("POST /api/start", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("POST /api/stop", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"termination refused"}`))
	})
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"text":"alpha","severity":"info"},{"text":"✓ ready","severity":"ok"}]`))
	})
	return httptest.NewServer(mux)
}

func TestClientStatus(t *testing.T) {
	srv := newAPIStub(t)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api"})
	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "running", st.State)
	assert.Equal(t, 99, st.PID)
	assert.True(t, st.Running)
}

func TestClientStartAndEvents(t *testing.T) {
	srv := newAPIStub(t)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api"})
	require.NoError(t, c.Start(context.Background()))

	evs, err := c.Events(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "ok", evs[1].Severity)
}

func TestClientSurfacesAPIError(t *testing.T) {
	srv := newAPIStub(t)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api"})
	err := c.Stop(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "termination refused")
}

func TestClientUnreachable(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1/api"})
	_, err := c.Status(context.Background())
	assert.Error(t, err)
}
