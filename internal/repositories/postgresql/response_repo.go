// internal/repositories/postgresql/response_repo.go
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

type responseRepo struct {
	db *sqlx.DB
}

// NewResponseRepo creates a ResponseRepository backed by PostgreSQL.
func NewResponseRepo(db *sqlx.DB) interfaces.ResponseRepository {
	return &responseRepo{db: db}
}

const responseColumns = `response_id, query_run_id, run_query_id, provider, model, status,
	response_text, error_message, latency_ms, input_tokens, output_tokens, total_cost, created_at`

func (r *responseRepo) Create(ctx context.Context, response *models.Response) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO responses (response_id, query_run_id, run_query_id, provider, model, status,
			response_text, error_message, latency_ms, input_tokens, output_tokens, total_cost, created_at)
		 VALUES (:response_id, :query_run_id, :run_query_id, :provider, :model, :status,
			:response_text, :error_message, :latency_ms, :input_tokens, :output_tokens, :total_cost, :created_at)`,
		response)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (r *responseRepo) GetByID(ctx context.Context, responseID uuid.UUID) (*models.Response, error) {
	var response models.Response
	err := r.db.GetContext(ctx, &response,
		`SELECT `+responseColumns+` FROM responses WHERE response_id = $1`, responseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	return &response, nil
}

func (r *responseRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]*models.Response, error) {
	var responses []*models.Response
	err := r.db.SelectContext(ctx, &responses,
		`SELECT `+responseColumns+` FROM responses
		 WHERE query_run_id = $1
		 ORDER BY created_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}
