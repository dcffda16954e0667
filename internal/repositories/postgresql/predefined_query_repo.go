// internal/repositories/postgresql/predefined_query_repo.go
package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
)

type predefinedQueryRepo struct {
	db *sqlx.DB
}

// NewPredefinedQueryRepo creates a PredefinedQueryRepository backed by
// PostgreSQL.
func NewPredefinedQueryRepo(db *sqlx.DB) interfaces.PredefinedQueryRepository {
	return &predefinedQueryRepo{db: db}
}

func (r *predefinedQueryRepo) ListActiveByClient(ctx context.Context, clientID uuid.UUID) ([]*models.PredefinedQuery, error) {
	var queries []*models.PredefinedQuery
	err := r.db.SelectContext(ctx, &queries,
		`SELECT query_id, client_id, query_text, category, branded, order_index, is_active, created_at
		 FROM predefined_queries
		 WHERE client_id = $1 AND is_active = true
		 ORDER BY order_index`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list predefined queries: %w", err)
	}
	return queries, nil
}
