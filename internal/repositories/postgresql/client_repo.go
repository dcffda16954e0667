// internal/repositories/postgresql/client_repo.go
//
// Package postgresql implements the repository interfaces on PostgreSQL via
// sqlx. Array columns go through pq.Array; lookups that match nothing return
// interfaces.ErrNotFound.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/repositories/interfaces"
)

type clientRepo struct {
	db *sqlx.DB
}

// NewClientRepo creates a ClientRepository backed by PostgreSQL.
func NewClientRepo(db *sqlx.DB) interfaces.ClientRepository {
	return &clientRepo{db: db}
}

const clientColumns = `client_id, name, slug, brand_name, brand_aliases, website_domains,
	primary_color, is_active, created_at, updated_at`

func (r *clientRepo) GetByID(ctx context.Context, clientID uuid.UUID) (*models.Client, error) {
	row := r.db.QueryRowxContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE client_id = $1`, clientID)
	return r.scanClient(ctx, row)
}

func (r *clientRepo) GetBySlug(ctx context.Context, slug string) (*models.Client, error) {
	row := r.db.QueryRowxContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE slug = $1`, slug)
	return r.scanClient(ctx, row)
}

func (r *clientRepo) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE is_active = true ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClientRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	for _, client := range clients {
		if err := r.loadDefaultModels(ctx, client); err != nil {
			return nil, err
		}
	}
	return clients, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClientRow(row rowScanner) (*models.Client, error) {
	var client models.Client
	err := row.Scan(
		&client.ClientID,
		&client.Name,
		&client.Slug,
		&client.BrandName,
		pq.Array(&client.BrandAliases),
		pq.Array(&client.WebsiteDomains),
		&client.PrimaryColor,
		&client.IsActive,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) scanClient(ctx context.Context, row rowScanner) (*models.Client, error) {
	client, err := scanClientRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if err := r.loadDefaultModels(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepo) loadDefaultModels(ctx context.Context, client *models.Client) error {
	err := r.db.SelectContext(ctx, &client.DefaultModels,
		`SELECT provider, model FROM client_models WHERE client_id = $1 ORDER BY sort_order`,
		client.ClientID)
	if err != nil {
		return fmt.Errorf("load client models: %w", err)
	}
	return nil
}
