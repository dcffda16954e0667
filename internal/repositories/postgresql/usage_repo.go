// internal/repositories/postgresql/usage_repo.go
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

type apiUsageRepo struct {
	db *sqlx.DB
}

// NewAPIUsageRepo creates an APIUsageRepository backed by PostgreSQL.
func NewAPIUsageRepo(db *sqlx.DB) interfaces.APIUsageRepository {
	return &apiUsageRepo{db: db}
}

func (r *apiUsageRepo) Create(ctx context.Context, usage *models.APIUsage) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO api_usage (usage_id, client_id, query_run_id, provider, model,
			input_tokens, output_tokens, total_cost, latency_ms, status, error_message, created_at)
		 VALUES (:usage_id, :client_id, :query_run_id, :provider, :model,
			:input_tokens, :output_tokens, :total_cost, :latency_ms, :status, :error_message, :created_at)`,
		usage)
	if err != nil {
		return fmt.Errorf("insert api usage: %w", err)
	}
	return nil
}

func (r *apiUsageRepo) SumCostByClient(ctx context.Context, clientID uuid.UUID, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(total_cost), 0) FROM api_usage
		 WHERE client_id = $1 AND created_at >= $2 AND created_at < $3`,
		clientID, from, to)
	if err != nil {
		return 0, fmt.Errorf("sum api usage cost: %w", err)
	}
	return total, nil
}
