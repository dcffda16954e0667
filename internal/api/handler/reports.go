// internal/api/handler/reports.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/AI-Template-SDK/senso-visibility/internal/api/response"
	"github.com/AI-Template-SDK/senso-visibility/internal/reports"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

const defaultTimeSeriesDays = 30

// parseFilter reads the branded filter query parameter, defaulting to all.
func parseFilter(r *http.Request) (string, bool) {
	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = reports.FilterAll
	}
	return filter, reports.ValidFilter(filter)
}

// NewSummaryHandler returns the handler for
// GET /api/analysis/runs/{runID}/summary.
func NewSummaryHandler(svc services.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}
		filter, ok := parseFilter(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "filter must be all, branded or non_branded")
			return
		}

		summary, err := svc.Summary(r.Context(), runID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, summary)
	}
}

// NewProviderRatesHandler returns the handler for
// GET /api/analysis/runs/{runID}/mention-rates-by-provider.
func NewProviderRatesHandler(svc services.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}
		filter, ok := parseFilter(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "filter must be all, branded or non_branded")
			return
		}

		rates, err := svc.MentionRatesByProvider(r.Context(), runID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if rates == nil {
			rates = []reports.ProviderMentionRate{}
		}
		response.JSON(w, rates)
	}
}

// NewGapsHandler returns the handler for GET /api/analysis/runs/{runID}/gaps.
func NewGapsHandler(svc services.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}
		filter, ok := parseFilter(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "filter must be all, branded or non_branded")
			return
		}

		report, err := svc.Gaps(r.Context(), runID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, report)
	}
}

// NewCompetitorAnalysisHandler returns the handler for
// GET /api/analysis/runs/{runID}/competitors.
func NewCompetitorAnalysisHandler(svc services.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}
		filter, ok := parseFilter(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "filter must be all, branded or non_branded")
			return
		}

		analysis, err := svc.CompetitorAnalysis(r.Context(), runID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, analysis)
	}
}

// NewCitationsHandler returns the handler for
// GET /api/analysis/runs/{runID}/citations.
func NewCitationsHandler(svc services.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}

		report, err := svc.Citations(r.Context(), runID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, report)
	}
}

// NewTimeSeriesHandler returns the handler for GET /api/analysis/time-series.
func NewTimeSeriesHandler(svc services.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseClientID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "client_id query parameter must be a UUID")
			return
		}
		filter, ok := parseFilter(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "filter must be all, branded or non_branded")
			return
		}

		days, _ := strconv.Atoi(r.URL.Query().Get("days"))
		if days <= 0 {
			days = defaultTimeSeriesDays
		}

		series, err := svc.TimeSeries(r.Context(), clientID, days, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, series)
	}
}

// NewDashboardStatsHandler returns the handler for
// GET /api/analysis/dashboard-stats.
func NewDashboardStatsHandler(svc services.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseClientID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "client_id query parameter must be a UUID")
			return
		}

		stats, err := svc.DashboardStats(r.Context(), clientID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, stats)
	}
}
