// Package api exposes the tracking pipeline over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/groundtrack/groundtrack/internal/auth"
	"github.com/groundtrack/groundtrack/internal/catalog"
	"github.com/groundtrack/groundtrack/internal/health"
	"github.com/groundtrack/groundtrack/internal/metrics"
	"github.com/groundtrack/groundtrack/internal/tle"
	"github.com/groundtrack/groundtrack/internal/track"
)

// Limits bounds the work one track request may ask for.
type Limits struct {
	MaxSamples     int
	MaxStepSeconds int
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	store      *tle.Store
	tracker    *track.Tracker
	limits     Limits

	// Catalog index rebuilt lazily when the store's dataset changes.
	catMu sync.Mutex
	catDS *tle.Dataset
	cat   *catalog.Catalog
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, store *tle.Store, tracker *track.Tracker, limits Limits) *Server {
	s := &Server{
		logger:  logger,
		store:   store,
		tracker: tracker,
		limits:  limits,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(store))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/satellites", s.handleSatellites)
	mux.HandleFunc("GET /api/v1/track/{catnum}", s.handleTrack)
	mux.HandleFunc("GET /api/v1/passes/{catnum}", s.handlePasses)

	// Middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// catalog returns the index for the current dataset, rebuilding it only
// when the store has swapped datasets. Returns nil before the first load.
func (s *Server) catalog() *catalog.Catalog {
	ds := s.store.Get()
	if ds == nil {
		return nil
	}
	s.catMu.Lock()
	defer s.catMu.Unlock()
	if s.catDS != ds {
		s.cat = catalog.New(ds)
		s.catDS = ds
	}
	return s.cat
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
