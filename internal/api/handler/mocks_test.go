package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/reports"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errNotStubbed = errors.New("not stubbed")

// --- orchestrator mock ---

type mockOrchestrator struct {
	submitCustomFn     func(ctx context.Context, clientID uuid.UUID, name string, queryTexts []string, runModels []models.RunModel) (*models.QueryRun, error)
	submitPredefinedFn func(ctx context.Context, clientID uuid.UUID, name string, runModels []models.RunModel) (*models.QueryRun, error)
	executed           chan uuid.UUID
}

func newMockOrchestrator() *mockOrchestrator {
	return &mockOrchestrator{executed: make(chan uuid.UUID, 8)}
}

func (m *mockOrchestrator) SubmitCustomRun(ctx context.Context, clientID uuid.UUID, name string, queryTexts []string, runModels []models.RunModel) (*models.QueryRun, error) {
	if m.submitCustomFn == nil {
		return nil, errNotStubbed
	}
	return m.submitCustomFn(ctx, clientID, name, queryTexts, runModels)
}

func (m *mockOrchestrator) SubmitPredefinedRun(ctx context.Context, clientID uuid.UUID, name string, runModels []models.RunModel) (*models.QueryRun, error) {
	if m.submitPredefinedFn == nil {
		return nil, errNotStubbed
	}
	return m.submitPredefinedFn(ctx, clientID, name, runModels)
}

func (m *mockOrchestrator) ExecuteRun(ctx context.Context, runID uuid.UUID) error {
	m.executed <- runID
	return nil
}

// --- analysis mock ---

type mockAnalysisService struct {
	reanalyzeFn func(ctx context.Context, runID uuid.UUID) (int, error)
}

func (m *mockAnalysisService) AnalyzeResponse(context.Context, *models.Client, []*models.Competitor, *models.Response) (*models.ResponseAnalysis, error) {
	return nil, errNotStubbed
}

func (m *mockAnalysisService) ReanalyzeRun(ctx context.Context, runID uuid.UUID) (int, error) {
	if m.reanalyzeFn == nil {
		return 0, errNotStubbed
	}
	return m.reanalyzeFn(ctx, runID)
}

// --- report service mock ---

type mockReportService struct {
	summaryFn     func(ctx context.Context, runID uuid.UUID, filter string) (*reports.Summary, error)
	timeSeriesFn  func(ctx context.Context, clientID uuid.UUID, days int, filter string) (*reports.TimeSeries, error)
	dashboardFn   func(ctx context.Context, clientID uuid.UUID) (*services.DashboardStats, error)
	invalidated   []uuid.UUID
	invalidateErr error
}

func (m *mockReportService) Summary(ctx context.Context, runID uuid.UUID, filter string) (*reports.Summary, error) {
	if m.summaryFn == nil {
		return nil, errNotStubbed
	}
	return m.summaryFn(ctx, runID, filter)
}

func (m *mockReportService) MentionRatesByProvider(context.Context, uuid.UUID, string) ([]reports.ProviderMentionRate, error) {
	return nil, nil
}

func (m *mockReportService) Gaps(context.Context, uuid.UUID, string) (*reports.GapReport, error) {
	return &reports.GapReport{}, nil
}

func (m *mockReportService) CompetitorAnalysis(context.Context, uuid.UUID, string) (*services.CompetitorAnalysis, error) {
	return &services.CompetitorAnalysis{}, nil
}

func (m *mockReportService) TimeSeries(ctx context.Context, clientID uuid.UUID, days int, filter string) (*reports.TimeSeries, error) {
	if m.timeSeriesFn == nil {
		return &reports.TimeSeries{}, nil
	}
	return m.timeSeriesFn(ctx, clientID, days, filter)
}

func (m *mockReportService) Citations(context.Context, uuid.UUID) (*reports.CitationReport, error) {
	return &reports.CitationReport{}, nil
}

func (m *mockReportService) DashboardStats(ctx context.Context, clientID uuid.UUID) (*services.DashboardStats, error) {
	if m.dashboardFn == nil {
		return nil, errNotStubbed
	}
	return m.dashboardFn(ctx, clientID)
}

func (m *mockReportService) InvalidateRun(_ context.Context, runID uuid.UUID) error {
	m.invalidated = append(m.invalidated, runID)
	return m.invalidateErr
}

// --- repository mocks ---

type mockRunRepo struct {
	getByIDFn       func(ctx context.Context, runID uuid.UUID) (*models.QueryRun, error)
	listByClientFn  func(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*models.QueryRun, error)
	countByClientFn func(ctx context.Context, clientID uuid.UUID) (int, error)
	deleteFn        func(ctx context.Context, runID uuid.UUID) error
}

func (m *mockRunRepo) Create(context.Context, *models.QueryRun, []*models.RunQuery) error {
	return errNotStubbed
}

func (m *mockRunRepo) GetByID(ctx context.Context, runID uuid.UUID) (*models.QueryRun, error) {
	if m.getByIDFn == nil {
		return nil, errNotStubbed
	}
	return m.getByIDFn(ctx, runID)
}

func (m *mockRunRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*models.QueryRun, error) {
	if m.listByClientFn == nil {
		return nil, errNotStubbed
	}
	return m.listByClientFn(ctx, clientID, limit, offset)
}

func (m *mockRunRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	if m.countByClientFn == nil {
		return 0, errNotStubbed
	}
	return m.countByClientFn(ctx, clientID)
}

func (m *mockRunRepo) ListQueries(context.Context, uuid.UUID) ([]*models.RunQuery, error) {
	return nil, errNotStubbed
}

func (m *mockRunRepo) MarkRunning(context.Context, uuid.UUID) error { return errNotStubbed }

func (m *mockRunRepo) IncrementCompleted(context.Context, uuid.UUID) error { return errNotStubbed }

func (m *mockRunRepo) Finalize(context.Context, uuid.UUID, string, *string) error {
	return errNotStubbed
}

func (m *mockRunRepo) Delete(ctx context.Context, runID uuid.UUID) error {
	if m.deleteFn == nil {
		return errNotStubbed
	}
	return m.deleteFn(ctx, runID)
}

type mockResponseRepo struct {
	listByRunFn func(ctx context.Context, runID uuid.UUID) ([]*models.Response, error)
}

func (m *mockResponseRepo) Create(context.Context, *models.Response) error { return errNotStubbed }

func (m *mockResponseRepo) GetByID(context.Context, uuid.UUID) (*models.Response, error) {
	return nil, errNotStubbed
}

func (m *mockResponseRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.Response, error) {
	if m.listByRunFn == nil {
		return nil, nil
	}
	return m.listByRunFn(ctx, runID)
}

// --- sample data ---

func sampleRun(status string) *models.QueryRun {
	return &models.QueryRun{
		QueryRunID:       uuid.New(),
		ClientID:         uuid.New(),
		Name:             "weekly check",
		RunType:          "custom",
		Status:           status,
		Models:           []models.RunModel{{Provider: "openai", Model: "gpt-4.1"}},
		TotalQueries:     4,
		CompletedQueries: 2,
		CreatedAt:        time.Now().UTC(),
	}
}
