// internal/repositories/interfaces/interfaces.go
//
// Package interfaces declares the persistence contracts the services depend
// on. The postgresql package provides the real implementations; tests supply
// in-memory fakes.
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ClientRepository reads client records. Clients are managed outside the
// engine, the core never writes them.
type ClientRepository interface {
	GetByID(ctx context.Context, clientID uuid.UUID) (*models.Client, error)
	GetBySlug(ctx context.Context, slug string) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
}

// CompetitorRepository reads a client's competitor set.
type CompetitorRepository interface {
	ListActiveByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Competitor, error)
}

// PredefinedQueryRepository reads a client's saved query library.
type PredefinedQueryRepository interface {
	ListActiveByClient(ctx context.Context, clientID uuid.UUID) ([]*models.PredefinedQuery, error)
}

// QueryRunRepository owns the query_runs, run_models and run_queries tables.
type QueryRunRepository interface {
	// Create persists the run, its model list and its queries in one
	// transaction.
	Create(ctx context.Context, run *models.QueryRun, queries []*models.RunQuery) error
	GetByID(ctx context.Context, runID uuid.UUID) (*models.QueryRun, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*models.QueryRun, error)
	CountByClient(ctx context.Context, clientID uuid.UUID) (int, error)
	ListQueries(ctx context.Context, runID uuid.UUID) ([]*models.RunQuery, error)

	// MarkRunning transitions pending -> running. It is a no-op returning
	// ErrNotFound when the run is missing or not pending.
	MarkRunning(ctx context.Context, runID uuid.UUID) error

	// IncrementCompleted atomically bumps completed_queries by one.
	IncrementCompleted(ctx context.Context, runID uuid.UUID) error

	// Finalize transitions running -> completed|failed and stamps
	// completed_at. Terminal runs are never updated again.
	Finalize(ctx context.Context, runID uuid.UUID, status string, errorMessage *string) error

	// Delete removes the run and everything hanging off it.
	Delete(ctx context.Context, runID uuid.UUID) error
}

// ResponseRepository owns the responses table.
type ResponseRepository interface {
	Create(ctx context.Context, response *models.Response) error
	GetByID(ctx context.Context, responseID uuid.UUID) (*models.Response, error)
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.Response, error)
}

// AnalysisRepository owns response_analyses and its child tables.
type AnalysisRepository interface {
	// Create persists the analysis with its competitor mentions and
	// citations in one transaction.
	Create(ctx context.Context, analysis *models.ResponseAnalysis) error

	// DeleteByResponse removes an existing analysis so a response can be
	// re-analyzed.
	DeleteByResponse(ctx context.Context, responseID uuid.UUID) error

	GetByResponse(ctx context.Context, responseID uuid.UUID) (*models.ResponseAnalysis, error)
}

// APIUsageRepository owns the api_usage ledger.
type APIUsageRepository interface {
	Create(ctx context.Context, usage *models.APIUsage) error
	SumCostByClient(ctx context.Context, clientID uuid.UUID, from, to time.Time) (float64, error)
}

// AnalyticsRepository loads the joined response/analysis rows the reporting
// engine aggregates over.
type AnalyticsRepository interface {
	ListAnalyzedResponses(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*models.AnalyzedResponse, error)
	ListAnalyzedResponsesByRun(ctx context.Context, runID uuid.UUID) ([]*models.AnalyzedResponse, error)
}
