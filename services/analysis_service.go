// services/analysis_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AI-Template-SDK/senso-visibility/internal/analyzer"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

type analysisService struct {
	repos  *RepositoryManager
	logger *slog.Logger
}

// NewAnalysisService creates the analysis service.
func NewAnalysisService(repos *RepositoryManager, logger *slog.Logger) AnalysisService {
	return &analysisService{repos: repos, logger: logger}
}

func (s *analysisService) AnalyzeResponse(ctx context.Context, client *models.Client, competitors []*models.Competitor, response *models.Response) (*models.ResponseAnalysis, error) {
	if response.Status != models.ResponseStatusSuccess || response.ResponseText == nil {
		return nil, fmt.Errorf("response %s has no text to analyze", response.ResponseID)
	}

	in := analyzer.Input{
		Text:         *response.ResponseText,
		Brand:        analyzer.Entity{Name: client.BrandName, Aliases: client.BrandAliases},
		BrandDomains: client.WebsiteDomains,
	}
	for _, c := range competitors {
		in.Competitors = append(in.Competitors, analyzer.Entity{Name: c.Name, Aliases: c.Aliases})
	}

	result := analyzer.Analyze(in)

	analysis := &models.ResponseAnalysis{
		AnalysisID:       uuid.New(),
		ResponseID:       response.ResponseID,
		BrandMentioned:   result.BrandMentioned,
		BrandPosition:    result.BrandPosition,
		BrandContext:     result.BrandContext,
		BrandFirstOffset: result.BrandFirstOffset,
		AnalyzedAt:       time.Now().UTC(),
	}
	for _, c := range result.Competitors {
		analysis.CompetitorMentions = append(analysis.CompetitorMentions, models.CompetitorMention{
			MentionID:   uuid.New(),
			AnalysisID:  analysis.AnalysisID,
			Name:        c.Name,
			Position:    c.Position,
			Context:     c.Context,
			FirstOffset: c.FirstOffset,
		})
	}
	for _, c := range result.Citations {
		analysis.Citations = append(analysis.Citations, models.Citation{
			CitationID:    uuid.New(),
			AnalysisID:    analysis.AnalysisID,
			URL:           c.URL,
			Domain:        c.Domain,
			IsBrandDomain: c.IsBrandDomain,
		})
	}

	if err := s.repos.AnalysisRepo.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}
	return analysis, nil
}

// ReanalyzeRun recomputes every analysis in the run against the client's
// current configuration. Individual failures are logged and skipped so one
// malformed response never blocks the rest.
func (s *analysisService) ReanalyzeRun(ctx context.Context, runID uuid.UUID) (int, error) {
	run, err := s.repos.QueryRunRepo.GetByID(ctx, runID)
	if err != nil {
		return 0, fmt.Errorf("load run: %w", err)
	}
	client, err := s.repos.ClientRepo.GetByID(ctx, run.ClientID)
	if err != nil {
		return 0, fmt.Errorf("load client: %w", err)
	}
	competitors, err := s.repos.CompetitorRepo.ListActiveByClient(ctx, run.ClientID)
	if err != nil {
		return 0, fmt.Errorf("load competitors: %w", err)
	}
	responses, err := s.repos.ResponseRepo.ListByRun(ctx, runID)
	if err != nil {
		return 0, fmt.Errorf("load responses: %w", err)
	}

	count := 0
	for _, response := range responses {
		if response.Status != models.ResponseStatusSuccess || response.ResponseText == nil {
			continue
		}
		if err := s.repos.AnalysisRepo.DeleteByResponse(ctx, response.ResponseID); err != nil {
			s.logger.Warn("drop stale analysis", "response_id", response.ResponseID, "error", err)
			continue
		}
		if _, err := s.AnalyzeResponse(ctx, client, competitors, response); err != nil {
			s.logger.Warn("reanalyze response", "response_id", response.ResponseID, "error", err)
			continue
		}
		count++
	}

	s.logger.Info("run reanalyzed", "run_id", runID, "responses", count)
	return count, nil
}
