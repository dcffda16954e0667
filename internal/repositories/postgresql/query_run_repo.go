// internal/repositories/postgresql/query_run_repo.go
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

type queryRunRepo struct {
	db *sqlx.DB
}

// NewQueryRunRepo creates a QueryRunRepository backed by PostgreSQL.
func NewQueryRunRepo(db *sqlx.DB) interfaces.QueryRunRepository {
	return &queryRunRepo{db: db}
}

func (r *queryRunRepo) Create(ctx context.Context, run *models.QueryRun, queries []*models.RunQuery) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO query_runs (query_run_id, client_id, name, run_type, status, total_queries, completed_queries, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7)`,
		run.QueryRunID, run.ClientID, run.Name, run.RunType, run.Status, run.TotalQueries, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, m := range run.Models {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_models (query_run_id, provider, model, sort_order) VALUES ($1, $2, $3, $4)`,
			run.QueryRunID, m.Provider, m.Model, i)
		if err != nil {
			return fmt.Errorf("insert run model: %w", err)
		}
	}

	for _, q := range queries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_queries (run_query_id, query_run_id, query_text, branded, order_index)
			 VALUES ($1, $2, $3, $4, $5)`,
			q.RunQueryID, q.QueryRunID, q.QueryText, q.Branded, q.OrderIndex)
		if err != nil {
			return fmt.Errorf("insert run query: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create run: %w", err)
	}
	return nil
}

const runColumns = `query_run_id, client_id, name, run_type, status, total_queries,
	completed_queries, error_message, created_at, completed_at`

func (r *queryRunRepo) GetByID(ctx context.Context, runID uuid.UUID) (*models.QueryRun, error) {
	var run models.QueryRun
	err := r.db.GetContext(ctx, &run,
		`SELECT `+runColumns+` FROM query_runs WHERE query_run_id = $1`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	err = r.db.SelectContext(ctx, &run.Models,
		`SELECT provider, model FROM run_models WHERE query_run_id = $1 ORDER BY sort_order`, runID)
	if err != nil {
		return nil, fmt.Errorf("load run models: %w", err)
	}
	return &run, nil
}

func (r *queryRunRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*models.QueryRun, error) {
	var runs []*models.QueryRun
	err := r.db.SelectContext(ctx, &runs,
		`SELECT `+runColumns+` FROM query_runs
		 WHERE client_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (r *queryRunRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM query_runs WHERE client_id = $1`, clientID)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

func (r *queryRunRepo) ListQueries(ctx context.Context, runID uuid.UUID) ([]*models.RunQuery, error) {
	var queries []*models.RunQuery
	err := r.db.SelectContext(ctx, &queries,
		`SELECT run_query_id, query_run_id, query_text, branded, order_index
		 FROM run_queries
		 WHERE query_run_id = $1
		 ORDER BY order_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run queries: %w", err)
	}
	return queries, nil
}

func (r *queryRunRepo) MarkRunning(ctx context.Context, runID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE query_runs SET status = $1 WHERE query_run_id = $2 AND status = $3`,
		models.RunStatusRunning, runID, models.RunStatusPending)
	if err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}
	return requireRowAffected(result)
}

func (r *queryRunRepo) IncrementCompleted(ctx context.Context, runID uuid.UUID) error {
	// Atomic in SQL so concurrent workers never lose an increment.
	_, err := r.db.ExecContext(ctx,
		`UPDATE query_runs SET completed_queries = completed_queries + 1 WHERE query_run_id = $1`,
		runID)
	if err != nil {
		return fmt.Errorf("increment completed: %w", err)
	}
	return nil
}

func (r *queryRunRepo) Finalize(ctx context.Context, runID uuid.UUID, status string, errorMessage *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE query_runs
		 SET status = $1, error_message = $2, completed_at = NOW()
		 WHERE query_run_id = $3 AND status = $4`,
		status, errorMessage, runID, models.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	return requireRowAffected(result)
}

func (r *queryRunRepo) Delete(ctx context.Context, runID uuid.UUID) error {
	// Child tables cascade on delete.
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM query_runs WHERE query_run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return requireRowAffected(result)
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
