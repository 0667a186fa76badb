// Package httpapi exposes the timeline over HTTP/JSON. Every route under
// /api except login requires an authorized session; /healthz and /metrics
// are open.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// Authorizer decides whether a request may use the API.
type Authorizer interface {
	Authorize(r *http.Request) error
}

// Sessions issues and clears session cookies in addition to authorizing
// requests.
type Sessions interface {
	Authorizer
	Login(clientID, clientSecret string) (string, time.Time, error)
	SessionCookie(token string, expires time.Time) *http.Cookie
	ClearCookie() *http.Cookie
}

// HealthFunc reports whether the backing store is usable.
type HealthFunc func(ctx context.Context) error

// Server routes HTTP requests to the timeline.
type Server struct {
	timeline types.Timeline
	sessions Sessions
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
	health   HealthFunc
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry sets the registry that request metrics are registered with
// and /metrics serves.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithHealthCheck sets the probe behind /healthz.
func WithHealthCheck(fn HealthFunc) Option {
	return func(s *Server) { s.health = fn }
}

// WithClock overrides the clock used for the default day window.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer builds the API over timeline, gated by sessions.
func NewServer(timeline types.Timeline, sessions Sessions, opts ...Option) *Server {
	s := &Server{
		timeline: timeline,
		sessions: sessions,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)
	return s
}

// Handler returns the root handler with logging and metrics applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/logout", s.handleLogout)
	mux.Handle("GET /api/session", s.authorized(s.handleSession))

	mux.Handle("GET /api/blocks", s.authorized(s.handleListBlocks))
	mux.Handle("POST /api/blocks", s.authorized(s.handleInsertBlock))
	mux.Handle("GET /api/blocks/{id}", s.authorized(s.handleGetBlock))
	mux.Handle("PUT /api/blocks/{id}", s.authorized(s.handleUpdateBlock))
	mux.Handle("DELETE /api/blocks/{id}", s.authorized(s.handleDeleteBlock))
	mux.Handle("GET /api/blocks/next_before/{timestamp}", s.authorized(s.handleBlockBefore))

	mux.Handle("GET /api/entries", s.authorized(s.handleListEntries))
	mux.Handle("POST /api/entries", s.authorized(s.handleInsertEntry))
	mux.Handle("GET /api/entries/{id}", s.authorized(s.handleGetEntry))
	mux.Handle("PUT /api/entries/{id}", s.authorized(s.handleUpdateEntry))
	mux.Handle("DELETE /api/entries/{id}", s.authorized(s.handleDeleteEntry))
	mux.Handle("GET /api/entries/next_before/{timestamp}", s.authorized(s.handleEntryBefore))

	mux.Handle("GET /api/projects", s.authorized(s.handleListProjects))
	mux.Handle("POST /api/projects", s.authorized(s.handleInsertProject))
	mux.Handle("GET /api/projects/{id}", s.authorized(s.handleGetProject))
	mux.Handle("PUT /api/projects/{id}", s.authorized(s.handleUpdateProject))
	mux.Handle("GET /api/colors", s.authorized(s.handleListColors))
	mux.Handle("GET /api/tags", s.authorized(s.handleListTags))
	mux.Handle("POST /api/tags", s.authorized(s.handleInsertTag))
	mux.Handle("PUT /api/tags/{id}", s.authorized(s.handleUpdateTag))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return s.instrument(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
