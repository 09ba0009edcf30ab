package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/rainfall-badyears/internal/adapter/catalog"
	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Catalog lists the series available for analysis.
type Catalog interface {
	Countries() ([]string, error)
	Seasons(country string) ([]string, error)
	Regions(country, season string) ([]catalog.Entry, error)
}

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.Report, error)
}

// Server exposes the catalog and analysis API alongside health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	catalog    Catalog
	analyzer   Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1 API routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, cat Catalog, analyzer Analyzer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		catalog:  cat,
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/countries", s.handleCountries)
	mux.HandleFunc("GET /v1/countries/{country}/seasons", s.handleSeasons)
	mux.HandleFunc("GET /v1/countries/{country}/seasons/{season}/regions", s.handleRegions)
	mux.HandleFunc("POST /v1/analyses", s.handleAnalyze)
	mux.HandleFunc("POST /v1/analyses/export", s.handleExport)
	mux.HandleFunc("POST /v1/analyses/chart", s.handleChart)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
