// internal/repositories/postgresql/analysis_repo.go
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
)

type analysisRepo struct {
	db *sqlx.DB
}

// NewAnalysisRepo creates an AnalysisRepository backed by PostgreSQL.
func NewAnalysisRepo(db *sqlx.DB) interfaces.AnalysisRepository {
	return &analysisRepo{db: db}
}

func (r *analysisRepo) Create(ctx context.Context, analysis *models.ResponseAnalysis) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create analysis: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO response_analyses (analysis_id, response_id, brand_mentioned, brand_position,
			brand_context, brand_first_offset, analyzed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		analysis.AnalysisID, analysis.ResponseID, analysis.BrandMentioned, analysis.BrandPosition,
		analysis.BrandContext, analysis.BrandFirstOffset, analysis.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	for _, m := range analysis.CompetitorMentions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO competitor_mentions (mention_id, analysis_id, name, position, context, first_offset)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			m.MentionID, m.AnalysisID, m.Name, m.Position, m.Context, m.FirstOffset)
		if err != nil {
			return fmt.Errorf("insert competitor mention: %w", err)
		}
	}

	for _, c := range analysis.Citations {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO citations (citation_id, analysis_id, url, domain, is_brand_domain)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.CitationID, c.AnalysisID, c.URL, c.Domain, c.IsBrandDomain)
		if err != nil {
			return fmt.Errorf("insert citation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepo) DeleteByResponse(ctx context.Context, responseID uuid.UUID) error {
	// Mentions and citations cascade.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM response_analyses WHERE response_id = $1`, responseID)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	return nil
}

func (r *analysisRepo) GetByResponse(ctx context.Context, responseID uuid.UUID) (*models.ResponseAnalysis, error) {
	var analysis models.ResponseAnalysis
	err := r.db.GetContext(ctx, &analysis,
		`SELECT analysis_id, response_id, brand_mentioned, brand_position, brand_context,
			brand_first_offset, analyzed_at
		 FROM response_analyses WHERE response_id = $1`, responseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	err = r.db.SelectContext(ctx, &analysis.CompetitorMentions,
		`SELECT mention_id, analysis_id, name, position, context, first_offset
		 FROM competitor_mentions WHERE analysis_id = $1 ORDER BY first_offset`,
		analysis.AnalysisID)
	if err != nil {
		return nil, fmt.Errorf("load competitor mentions: %w", err)
	}

	err = r.db.SelectContext(ctx, &analysis.Citations,
		`SELECT citation_id, analysis_id, url, domain, is_brand_domain
		 FROM citations WHERE analysis_id = $1`,
		analysis.AnalysisID)
	if err != nil {
		return nil, fmt.Errorf("load citations: %w", err)
	}
	return &analysis, nil
}
