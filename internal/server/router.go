package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servnest/servnest/internal/event"
	"github.com/servnest/servnest/internal/supervisor"
)

// Controller is the slice of the supervisor the control API needs. The CLI
// and tests provide fakes.
type Controller interface {
	Start() error
	Stop() error
	Status() supervisor.Status
}

// RecentEvents returns up to n of the most recently drained events, oldest
// first. The presentation loop owns the backing ring; handlers only get
// snapshots.
type RecentEvents func(n int) []event.Event

// Router provides embeddable HTTP handlers for the local control API.
// Endpoints:
//
//	GET  {basePath}/status
//	POST {basePath}/start
//	POST {basePath}/stop
//	GET  {basePath}/events?n=100
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	ctrl     Controller
	recent   RecentEvents
	basePath string
}

// NewRouter constructs a Router with a configurable basePath.
// Example basePath: "/api" results in /api/status, /api/start, /api/stop.
func NewRouter(ctrl Controller, recent RecentEvents, basePath string) *Router {
	return &Router{ctrl: ctrl, recent: recent, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.GET("/events", r.handleEvents)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, ctrl Controller, recent RecentEvents) (*http.Server, error) {
	r := NewRouter(ctrl, recent, basePath)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// EventJSON is the wire form of one drained event.
type EventJSON struct {
	At       time.Time `json:"at"`
	Text     string    `json:"text"`
	Severity string    `json:"severity"`
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.ctrl.Status())
}

func (r *Router) handleStart(c *gin.Context) {
	if err := r.ctrl.Start(); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	if err := r.ctrl.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleEvents(c *gin.Context) {
	n := 100
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, errorResp{Error: "n must be a positive integer"})
			return
		}
		n = v
	}
	var out []EventJSON
	if r.recent != nil {
		for _, e := range r.recent(n) {
			out = append(out, EventJSON{At: e.At, Text: e.Text, Severity: string(e.Severity)})
		}
	}
	if out == nil {
		out = []EventJSON{}
	}
	c.JSON(http.StatusOK, out)
}

func sanitizeBase(basePath string) string {
	bp := strings.TrimSpace(basePath)
	if bp == "" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimRight(bp, "/")
}
