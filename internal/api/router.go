// internal/api/router.go
//
// Package api builds the HTTP surface: a chi router over the run and
// analysis handlers.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AI-Template-SDK/senso-visibility/internal/api/handler"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

// Dependencies holds everything the routes need.
type Dependencies struct {
	Orchestrator    services.RunOrchestrator
	AnalysisService services.AnalysisService
	ReportService   services.ReportService
	RunRepo         interfaces.QueryRunRepository
	ResponseRepo    interfaces.ResponseRepository
	HealthChecks    map[string]handler.HealthCheck
	Logger          *slog.Logger
}

// NewRouter builds the chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/api/health", handler.NewHealthHandler(deps.HealthChecks))

	r.Route("/api/queries", func(r chi.Router) {
		r.Post("/run", handler.NewCreateRunHandler(deps.Orchestrator, deps.Logger))
		r.Post("/run-predefined", handler.NewCreatePredefinedRunHandler(deps.Orchestrator, deps.Logger))
		r.Get("/runs", handler.NewListRunsHandler(deps.RunRepo))
		r.Get("/runs/{runID}", handler.NewGetRunHandler(deps.RunRepo, deps.ResponseRepo))
		r.Get("/runs/{runID}/status", handler.NewRunStatusHandler(deps.RunRepo))
		r.Delete("/runs/{runID}", handler.NewDeleteRunHandler(deps.RunRepo, deps.ReportService, deps.Logger))
	})

	r.Route("/api/analysis", func(r chi.Router) {
		r.Get("/runs/{runID}/summary", handler.NewSummaryHandler(deps.ReportService))
		r.Get("/runs/{runID}/mention-rates-by-provider", handler.NewProviderRatesHandler(deps.ReportService))
		r.Get("/runs/{runID}/gaps", handler.NewGapsHandler(deps.ReportService))
		r.Get("/runs/{runID}/competitors", handler.NewCompetitorAnalysisHandler(deps.ReportService))
		r.Get("/runs/{runID}/citations", handler.NewCitationsHandler(deps.ReportService))
		r.Post("/runs/{runID}/reanalyze", handler.NewReanalyzeHandler(deps.AnalysisService, deps.ReportService, deps.Logger))
		r.Get("/time-series", handler.NewTimeSeriesHandler(deps.ReportService))
		r.Get("/dashboard-stats", handler.NewDashboardStatsHandler(deps.ReportService))
	})

	return r
}

// requestLogger logs one line per request with latency and status.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
