// Package api exposes scan orchestration over HTTP. Ownership comes from
// the X-User-ID header set by the authenticating proxy in front of this
// service; every data route is scoped to that owner.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudpillar/cloudpillar/telemetry"
)

// Server handles the HTTP surface of the scan service.
type Server struct {
	scans  ScanService
	logger *telemetry.Logger
}

// NewServer creates the HTTP server over the given scan service.
func NewServer(scans ScanService) *Server {
	return &Server{
		scans:  scans,
		logger: telemetry.NewLogger("api"),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	if telemetry.PrometheusRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/scans", func(r chi.Router) {
		r.Use(s.requireOwner)
		r.Post("/", s.handleCreateScan)
		r.Get("/", s.handleListScans)
		r.Get("/{scanID}", s.handleGetScan)
		r.Delete("/{scanID}", s.handleDeleteScan)
	})

	return r
}

// requestLogger logs one line per request after it finishes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.WithContext(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
