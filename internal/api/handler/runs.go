// internal/api/handler/runs.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/api/response"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

const (
	defaultRunPageLimit = 20
	maxRunPageLimit     = 100
)

type createRunRequest struct {
	ClientID string            `json:"client_id"`
	Name     string            `json:"name"`
	Queries  []string          `json:"queries"`
	Models   []models.RunModel `json:"models"`
}

// writeServiceError maps service-layer failures onto the error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var cfgErr *services.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		response.Error(w, http.StatusUnprocessableEntity, "INVALID_CONFIGURATION", cfgErr.Reason)
	case errors.Is(err, interfaces.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
	}
}

func parseClientID(r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("client_id")
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseRunID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// startRun launches run execution in the background. The request context is
// not used: execution outlives the HTTP request.
func startRun(orch services.RunOrchestrator, runID uuid.UUID, logger *slog.Logger) {
	go func() {
		if err := orch.ExecuteRun(context.Background(), runID); err != nil {
			logger.Error("execute run", "run_id", runID, "error", err)
		}
	}()
}

// NewCreateRunHandler returns the handler for POST /api/queries/run.
func NewCreateRunHandler(orch services.RunOrchestrator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
			return
		}
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "client_id must be a UUID")
			return
		}
		if len(req.Queries) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "queries is required")
			return
		}

		run, err := orch.SubmitCustomRun(r.Context(), clientID, req.Name, req.Queries, req.Models)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		startRun(orch, run.QueryRunID, logger)
		response.Accepted(w, run)
	}
}

// NewCreatePredefinedRunHandler returns the handler for
// POST /api/queries/run-predefined.
func NewCreatePredefinedRunHandler(orch services.RunOrchestrator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
			return
		}
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "client_id must be a UUID")
			return
		}

		run, err := orch.SubmitPredefinedRun(r.Context(), clientID, req.Name, req.Models)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		startRun(orch, run.QueryRunID, logger)
		response.Accepted(w, run)
	}
}

// NewListRunsHandler returns the handler for GET /api/queries/runs.
func NewListRunsHandler(runs interfaces.QueryRunRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseClientID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "client_id query parameter must be a UUID")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = defaultRunPageLimit
		}
		if limit > maxRunPageLimit {
			limit = maxRunPageLimit
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset < 0 {
			offset = 0
		}

		page, err := runs.ListByClient(r.Context(), clientID, limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		total, err := runs.CountByClient(r.Context(), clientID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.Collection(w, page, response.PaginationMeta{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: offset+len(page) < total,
		})
	}
}

type runDetail struct {
	*models.QueryRun
	Responses []*models.Response `json:"responses"`
}

// NewGetRunHandler returns the handler for GET /api/queries/runs/{runID}.
func NewGetRunHandler(runs interfaces.QueryRunRepository, responses interfaces.ResponseRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}

		run, err := runs.GetByID(r.Context(), runID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		runResponses, err := responses.ListByRun(r.Context(), runID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if runResponses == nil {
			runResponses = []*models.Response{}
		}

		response.JSON(w, runDetail{QueryRun: run, Responses: runResponses})
	}
}

type runStatus struct {
	QueryRunID       uuid.UUID `json:"query_run_id"`
	Status           string    `json:"status"`
	TotalQueries     int       `json:"total_queries"`
	CompletedQueries int       `json:"completed_queries"`
	Progress         float64   `json:"progress"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
}

// NewRunStatusHandler returns the handler for
// GET /api/queries/runs/{runID}/status, the polling endpoint.
func NewRunStatusHandler(runs interfaces.QueryRunRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}

		run, err := runs.GetByID(r.Context(), runID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.JSON(w, runStatus{
			QueryRunID:       run.QueryRunID,
			Status:           run.Status,
			TotalQueries:     run.TotalQueries,
			CompletedQueries: run.CompletedQueries,
			Progress:         run.Progress(),
			ErrorMessage:     run.ErrorMessage,
		})
	}
}

// NewDeleteRunHandler returns the handler for DELETE /api/queries/runs/{runID}.
// Cached reports for the run are dropped alongside the rows.
func NewDeleteRunHandler(runs interfaces.QueryRunRepository, reports services.ReportService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}

		if err := runs.Delete(r.Context(), runID); err != nil {
			writeServiceError(w, err)
			return
		}
		if err := reports.InvalidateRun(r.Context(), runID); err != nil {
			logger.Warn("invalidate deleted run reports", "run_id", runID, "error", err)
		}
		response.NoContent(w)
	}
}

// NewReanalyzeHandler returns the handler for
// POST /api/analysis/runs/{runID}/reanalyze.
func NewReanalyzeHandler(analysis services.AnalysisService, reports services.ReportService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(r)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run id must be a UUID")
			return
		}

		count, err := analysis.ReanalyzeRun(r.Context(), runID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		// Stale cached reports must not outlive the rows they were built from.
		if err := reports.InvalidateRun(r.Context(), runID); err != nil {
			logger.Warn("invalidate reanalyzed run reports", "run_id", runID, "error", err)
		}

		response.JSON(w, map[string]int{"responses_reanalyzed": count})
	}
}
