package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/brandloom/agentforge/pkg/agentloop"
	"github.com/brandloom/agentforge/pkg/jobtracker"
	"github.com/brandloom/agentforge/pkg/memory"
	"github.com/brandloom/agentforge/pkg/observability"
	"github.com/brandloom/agentforge/pkg/searchindex"
	"github.com/brandloom/agentforge/pkg/session"
)

// DefaultRequestTimeout is the wall-clock budget the Request
// Coordinator enforces on a single /agent/chat call absent an
// explicit override (spec §4.10).
const DefaultRequestTimeout = 5 * time.Minute

// CORSConfig mirrors the teacher's optional CORS config (pkg/server
// http.go's corsMiddleware): nil means the permissive development
// default, like the teacher's nil-Cors case.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// Config holds the Request Coordinator's own settings, distinct from
// the per-tenant Config resolved by the config layer.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	CORS           *CORSConfig
	AutoIndex      bool
}

// Deps bundles every component the route handlers dispatch to.
type Deps struct {
	Loop              *agentloop.Loop
	Sessions          session.Store
	Counter           session.TokenCounter
	Memory            memory.Store
	SearchIndex       *searchindex.Manager
	Library           searchindex.Library
	Jobs              *jobtracker.Tracker
	SystemInstruction string

	// Observability may be nil (observability.NoopManager()), in which
	// case HTTPMiddleware records nothing and the /metrics route
	// reports 503, matching the teacher's "metrics not enabled" noop
	// path.
	Observability *observability.Manager
}

// Server is the Request Coordinator (C10): it owns the route table of
// spec §6 and the http.Server lifecycle, grounded on the teacher's
// HTTPServer (pkg/server/http.go)'s Start/Shutdown shape.
type Server struct {
	cfg  Config
	deps Deps

	httpServer *http.Server
}

// New builds a Server.
func New(cfg Config, deps Deps) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if deps.Observability == nil {
		deps.Observability = observability.NoopManager()
	}
	return &Server{cfg: cfg, deps: deps}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/agent/chat", s.handleChat)
	mux.HandleFunc("/agent/media-search", s.handleMediaSearch)
	mux.HandleFunc("/session/delete", s.handleSessionDelete)
	mux.HandleFunc("/session/delete-last", s.handleSessionDeleteLast)
	mux.HandleFunc("/session/stats/", s.handleSessionStats)
	mux.HandleFunc("/memory/delete", s.handleMemoryDelete)
	mux.HandleFunc("/search-settings/", s.handleSearchSettings)
	mux.Handle(s.deps.Observability.MetricsEndpoint(), s.deps.Observability.MetricsHandler())
	return mux
}

// chain applies middleware in the teacher's order: CORS innermost,
// then request logging, then observability outermost — so a span
// covers the full request including CORS preflight handling.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.corsMiddleware(h)
	h = s.loggingMiddleware(h)
	h = observability.HTTPMiddleware(s.deps.Observability.Tracer(), s.deps.Observability.Metrics())(h)
	return h
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully (spec §4.10), mirroring the teacher's goroutine + select
// pattern in HTTPServer.Start.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.chain(s.routes()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // NDJSON responses can run for the full request timeout
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server, grounded on the
// teacher's 5s-timeout Shutdown (pkg/server/http.go).
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
