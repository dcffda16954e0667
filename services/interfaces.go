// services/interfaces.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/reports"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/postgresql"
)

// RepositoryManager manages all database repositories
type RepositoryManager struct {
	db                  *sqlx.DB
	ClientRepo          interfaces.ClientRepository
	CompetitorRepo      interfaces.CompetitorRepository
	PredefinedQueryRepo interfaces.PredefinedQueryRepository
	QueryRunRepo        interfaces.QueryRunRepository
	ResponseRepo        interfaces.ResponseRepository
	AnalysisRepo        interfaces.AnalysisRepository
	APIUsageRepo        interfaces.APIUsageRepository
	AnalyticsRepo       interfaces.AnalyticsRepository
}

// NewRepositoryManager creates a new repository manager with all repositories
func NewRepositoryManager(db *sqlx.DB) *RepositoryManager {
	return &RepositoryManager{
		db:                  db,
		ClientRepo:          postgresql.NewClientRepo(db),
		CompetitorRepo:      postgresql.NewCompetitorRepo(db),
		PredefinedQueryRepo: postgresql.NewPredefinedQueryRepo(db),
		QueryRunRepo:        postgresql.NewQueryRunRepo(db),
		ResponseRepo:        postgresql.NewResponseRepo(db),
		AnalysisRepo:        postgresql.NewAnalysisRepo(db),
		APIUsageRepo:        postgresql.NewAPIUsageRepo(db),
		AnalyticsRepo:       postgresql.NewAnalyticsRepo(db),
	}
}

// CostService prices one provider call from its token usage.
type CostService interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int) float64
}

// RunOrchestrator owns the run lifecycle: validated submission, concurrent
// execution against every (query, provider/model) pair, and finalization.
type RunOrchestrator interface {
	// SubmitCustomRun validates and persists a pending run over ad-hoc
	// query texts. Branded flags are computed from the text at submission.
	SubmitCustomRun(ctx context.Context, clientID uuid.UUID, name string, queryTexts []string, runModels []models.RunModel) (*models.QueryRun, error)

	// SubmitPredefinedRun builds the run from the client's active
	// predefined query library.
	SubmitPredefinedRun(ctx context.Context, clientID uuid.UUID, name string, runModels []models.RunModel) (*models.QueryRun, error)

	// ExecuteRun drives a pending run to a terminal status. It blocks until
	// every call has produced its terminal response; callers run it in a
	// goroutine.
	ExecuteRun(ctx context.Context, runID uuid.UUID) error
}

// AnalysisService derives ResponseAnalysis rows from response text.
type AnalysisService interface {
	// AnalyzeResponse computes and persists the analysis for one
	// successful response.
	AnalyzeResponse(ctx context.Context, client *models.Client, competitors []*models.Competitor, response *models.Response) (*models.ResponseAnalysis, error)

	// ReanalyzeRun recomputes every analysis in a run against the client's
	// current alias and competitor lists. Returns the number of responses
	// re-analyzed.
	ReanalyzeRun(ctx context.Context, runID uuid.UUID) (int, error)
}

// CompetitorAnalysis pairs the leaderboard with the win/loss tally.
type CompetitorAnalysis struct {
	Leaderboard []reports.Standing   `json:"leaderboard"`
	WinLoss     reports.WinLossTally `json:"win_loss"`
}

// DashboardStats is the headline numbers for a client's dashboard.
type DashboardStats struct {
	TotalRuns         int        `json:"total_runs"`
	LastRunAt         *time.Time `json:"last_run_at,omitempty"`
	LastRunStatus     string     `json:"last_run_status,omitempty"`
	MentionRate30d    float64    `json:"mention_rate_30d"`
	TotalResponses30d int        `json:"total_responses_30d"`
	TotalCost30d      float64    `json:"total_cost_30d"`
}

// ReportService computes read-side reports, cached where the underlying run
// is terminal.
type ReportService interface {
	Summary(ctx context.Context, runID uuid.UUID, filter string) (*reports.Summary, error)
	MentionRatesByProvider(ctx context.Context, runID uuid.UUID, filter string) ([]reports.ProviderMentionRate, error)
	Gaps(ctx context.Context, runID uuid.UUID, filter string) (*reports.GapReport, error)
	CompetitorAnalysis(ctx context.Context, runID uuid.UUID, filter string) (*CompetitorAnalysis, error)
	TimeSeries(ctx context.Context, clientID uuid.UUID, days int, filter string) (*reports.TimeSeries, error)
	Citations(ctx context.Context, runID uuid.UUID) (*reports.CitationReport, error)
	DashboardStats(ctx context.Context, clientID uuid.UUID) (*DashboardStats, error)

	// InvalidateRun drops every cached report for the run.
	InvalidateRun(ctx context.Context, runID uuid.UUID) error
}
