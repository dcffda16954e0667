// services/report_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/cache"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/reports"
)

// Report cache TTLs. Run-scoped reports only change on re-analysis; the
// client time-series moves as new runs land, so it gets a short TTL.
const (
	runReportTTL   = time.Hour
	timeSeriesTTL  = 5 * time.Minute
	dashboardDays  = 30
	defaultRunDays = 30
)

type reportService struct {
	repos  *RepositoryManager
	cache  cache.Cache
	tz     *time.Location
	logger *slog.Logger
	now    func() time.Time
}

// NewReportService creates the report service. timezone names the reporting
// timezone for calendar-day bucketing.
func NewReportService(repos *RepositoryManager, c cache.Cache, timezone string, logger *slog.Logger) (ReportService, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reporting timezone %q: %w", timezone, err)
	}
	return &reportService{
		repos:  repos,
		cache:  c,
		tz:     loc,
		logger: logger,
		now:    time.Now,
	}, nil
}

// loadRunRows loads the run's analyzed responses with the branded filter
// applied, and reports whether the run is terminal (cacheable).
func (s *reportService) loadRunRows(ctx context.Context, runID uuid.UUID, filter string) ([]*models.AnalyzedResponse, bool, error) {
	if !reports.ValidFilter(filter) {
		return nil, false, fmt.Errorf("invalid branded filter %q", filter)
	}
	run, err := s.repos.QueryRunRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, false, fmt.Errorf("load run: %w", err)
	}
	rows, err := s.repos.AnalyticsRepo.ListAnalyzedResponsesByRun(ctx, runID)
	if err != nil {
		return nil, false, fmt.Errorf("load analyzed responses: %w", err)
	}
	return reports.FilterRows(rows, filter), run.IsTerminal(), nil
}

// getCached fills out from the cache when possible. Cache failures are
// logged and treated as misses, never surfaced.
func (s *reportService) getCached(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("report cache read", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("report cache decode", "key", key, "error", err)
		return false
	}
	return true
}

func (s *reportService) putCached(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		s.logger.Warn("report cache write", "key", key, "error", err)
	}
}

func (s *reportService) Summary(ctx context.Context, runID uuid.UUID, filter string) (*reports.Summary, error) {
	key := cache.SummaryKey(runID, filter)
	var cached reports.Summary
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	rows, cacheable, err := s.loadRunRows(ctx, runID, filter)
	if err != nil {
		return nil, err
	}
	summary := reports.ComputeSummary(rows)
	if cacheable {
		s.putCached(ctx, key, summary, runReportTTL)
	}
	return &summary, nil
}

func (s *reportService) MentionRatesByProvider(ctx context.Context, runID uuid.UUID, filter string) ([]reports.ProviderMentionRate, error) {
	rows, _, err := s.loadRunRows(ctx, runID, filter)
	if err != nil {
		return nil, err
	}
	return reports.ComputeMentionRatesByProvider(rows), nil
}

func (s *reportService) Gaps(ctx context.Context, runID uuid.UUID, filter string) (*reports.GapReport, error) {
	key := cache.GapsKey(runID, filter)
	var cached reports.GapReport
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	rows, cacheable, err := s.loadRunRows(ctx, runID, filter)
	if err != nil {
		return nil, err
	}
	report := reports.ComputeGaps(rows)
	if cacheable {
		s.putCached(ctx, key, report, runReportTTL)
	}
	return &report, nil
}

func (s *reportService) CompetitorAnalysis(ctx context.Context, runID uuid.UUID, filter string) (*CompetitorAnalysis, error) {
	key := cache.CompetitorKey(runID, filter)
	var cached CompetitorAnalysis
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	run, err := s.repos.QueryRunRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	client, err := s.repos.ClientRepo.GetByID(ctx, run.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	competitors, err := s.repos.CompetitorRepo.ListActiveByClient(ctx, run.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load competitors: %w", err)
	}

	rows, cacheable, err := s.loadRunRows(ctx, runID, filter)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(competitors))
	for _, c := range competitors {
		names = append(names, c.Name)
	}

	analysis := &CompetitorAnalysis{
		Leaderboard: reports.ComputeLeaderboard(rows, client.BrandName, names),
		WinLoss:     reports.ComputeWinLoss(rows),
	}
	if cacheable {
		s.putCached(ctx, key, analysis, runReportTTL)
	}
	return analysis, nil
}

func (s *reportService) TimeSeries(ctx context.Context, clientID uuid.UUID, days int, filter string) (*reports.TimeSeries, error) {
	if !reports.ValidFilter(filter) {
		return nil, fmt.Errorf("invalid branded filter %q", filter)
	}
	if days < 1 {
		days = defaultRunDays
	}

	key := cache.TimeSeriesKey(clientID, days, filter)
	var cached reports.TimeSeries
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	now := s.now().UTC()
	from := now.In(s.tz).AddDate(0, 0, -days)
	rows, err := s.repos.AnalyticsRepo.ListAnalyzedResponses(ctx, clientID, from, now.Add(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("load analyzed responses: %w", err)
	}

	series := reports.ComputeTimeSeries(reports.FilterRows(rows, filter), days, s.tz, now)
	s.putCached(ctx, key, series, timeSeriesTTL)
	return &series, nil
}

func (s *reportService) Citations(ctx context.Context, runID uuid.UUID) (*reports.CitationReport, error) {
	key := cache.CitationKey(runID)
	var cached reports.CitationReport
	if s.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	rows, cacheable, err := s.loadRunRows(ctx, runID, reports.FilterAll)
	if err != nil {
		return nil, err
	}
	report := reports.ComputeCitations(rows)
	if cacheable {
		s.putCached(ctx, key, report, runReportTTL)
	}
	return &report, nil
}

func (s *reportService) DashboardStats(ctx context.Context, clientID uuid.UUID) (*DashboardStats, error) {
	stats := &DashboardStats{}

	total, err := s.repos.QueryRunRepo.CountByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	stats.TotalRuns = total

	latest, err := s.repos.QueryRunRepo.ListByClient(ctx, clientID, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	if len(latest) > 0 {
		stats.LastRunAt = &latest[0].CreatedAt
		stats.LastRunStatus = latest[0].Status
	}

	now := s.now().UTC()
	from := now.AddDate(0, 0, -dashboardDays)
	rows, err := s.repos.AnalyticsRepo.ListAnalyzedResponses(ctx, clientID, from, now.Add(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("load analyzed responses: %w", err)
	}
	summary := reports.ComputeSummary(rows)
	stats.MentionRate30d = summary.OverallMentionRate
	stats.TotalResponses30d = summary.TotalResponses

	cost, err := s.repos.APIUsageRepo.SumCostByClient(ctx, clientID, from, now.Add(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("sum usage cost: %w", err)
	}
	stats.TotalCost30d = cost

	return stats, nil
}

func (s *reportService) InvalidateRun(ctx context.Context, runID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeleteByPrefix(ctx, cache.RunReportPrefix(runID))
}
