// internal/repositories/postgresql/competitor_repo.go
package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
)

type competitorRepo struct {
	db *sqlx.DB
}

// NewCompetitorRepo creates a CompetitorRepository backed by PostgreSQL.
func NewCompetitorRepo(db *sqlx.DB) interfaces.CompetitorRepository {
	return &competitorRepo{db: db}
}

func (r *competitorRepo) ListActiveByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Competitor, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT competitor_id, client_id, name, aliases, website, is_active, created_at
		 FROM competitors
		 WHERE client_id = $1 AND is_active = true
		 ORDER BY name`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	var competitors []*models.Competitor
	for rows.Next() {
		var c models.Competitor
		err := rows.Scan(
			&c.CompetitorID,
			&c.ClientID,
			&c.Name,
			pq.Array(&c.Aliases),
			&c.Website,
			&c.IsActive,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		competitors = append(competitors, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	return competitors, nil
}
