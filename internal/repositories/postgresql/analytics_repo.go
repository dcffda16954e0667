// internal/repositories/postgresql/analytics_repo.go
package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
)

type analyticsRepo struct {
	db *sqlx.DB
}

// NewAnalyticsRepo creates an AnalyticsRepository backed by PostgreSQL.
func NewAnalyticsRepo(db *sqlx.DB) interfaces.AnalyticsRepository {
	return &analyticsRepo{db: db}
}

const analyzedResponseQuery = `
	SELECT r.response_id, r.query_run_id, r.run_query_id, rq.query_text, rq.branded,
		r.provider, r.model, r.created_at,
		a.brand_mentioned, a.brand_position, a.brand_context
	FROM responses r
	JOIN run_queries rq ON rq.run_query_id = r.run_query_id
	JOIN response_analyses a ON a.response_id = r.response_id
	JOIN query_runs qr ON qr.query_run_id = r.query_run_id
	WHERE r.status = 'success'`

func (r *analyticsRepo) ListAnalyzedResponses(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*models.AnalyzedResponse, error) {
	var rows []*models.AnalyzedResponse
	err := r.db.SelectContext(ctx, &rows,
		analyzedResponseQuery+`
		 AND qr.client_id = $1 AND r.created_at >= $2 AND r.created_at < $3
		 ORDER BY r.created_at`,
		clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list analyzed responses: %w", err)
	}
	if err := r.attachChildren(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepo) ListAnalyzedResponsesByRun(ctx context.Context, runID uuid.UUID) ([]*models.AnalyzedResponse, error) {
	var rows []*models.AnalyzedResponse
	err := r.db.SelectContext(ctx, &rows,
		analyzedResponseQuery+`
		 AND r.query_run_id = $1
		 ORDER BY r.created_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("list analyzed responses by run: %w", err)
	}
	if err := r.attachChildren(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// attachChildren loads competitor mentions and citations for every row in two
// batched queries keyed by response_id.
func (r *analyticsRepo) attachChildren(ctx context.Context, rows []*models.AnalyzedResponse) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(rows))
	byResponse := make(map[uuid.UUID]*models.AnalyzedResponse, len(rows))
	for i, row := range rows {
		ids[i] = row.ResponseID
		byResponse[row.ResponseID] = row
	}

	query, args, err := sqlx.In(
		`SELECT a.response_id, m.mention_id, m.analysis_id, m.name, m.position, m.context, m.first_offset
		 FROM competitor_mentions m
		 JOIN response_analyses a ON a.analysis_id = m.analysis_id
		 WHERE a.response_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build mentions query: %w", err)
	}
	mentionRows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("load mentions: %w", err)
	}
	defer mentionRows.Close()
	for mentionRows.Next() {
		var responseID uuid.UUID
		var m models.CompetitorMention
		if err := mentionRows.Scan(&responseID, &m.MentionID, &m.AnalysisID, &m.Name, &m.Position, &m.Context, &m.FirstOffset); err != nil {
			return fmt.Errorf("scan mention: %w", err)
		}
		if row, ok := byResponse[responseID]; ok {
			row.CompetitorMentions = append(row.CompetitorMentions, m)
		}
	}
	if err := mentionRows.Err(); err != nil {
		return fmt.Errorf("load mentions: %w", err)
	}

	query, args, err = sqlx.In(
		`SELECT a.response_id, c.citation_id, c.analysis_id, c.url, c.domain, c.is_brand_domain
		 FROM citations c
		 JOIN response_analyses a ON a.analysis_id = c.analysis_id
		 WHERE a.response_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build citations query: %w", err)
	}
	citationRows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("load citations: %w", err)
	}
	defer citationRows.Close()
	for citationRows.Next() {
		var responseID uuid.UUID
		var c models.Citation
		if err := citationRows.Scan(&responseID, &c.CitationID, &c.AnalysisID, &c.URL, &c.Domain, &c.IsBrandDomain); err != nil {
			return fmt.Errorf("scan citation: %w", err)
		}
		if row, ok := byResponse[responseID]; ok {
			row.Citations = append(row.Citations, c)
		}
	}
	if err := citationRows.Err(); err != nil {
		return fmt.Errorf("load citations: %w", err)
	}
	return nil
}
