package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/signalforge/signalforge/internal/domain"
)

const destinationColumns = `
	id, workspace_id, kind, enabled, settings,
	last_sync_at, last_error, created_at, updated_at`

type destinationRepository struct {
	db *sql.DB
}

// NewDestinationRepository creates a new PostgreSQL destination repository
func NewDestinationRepository(db *sql.DB) domain.DestinationRepository {
	return &destinationRepository{db: db}
}

func (r *destinationRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Destination, error) {
	query := `
		SELECT ` + destinationColumns + `
		FROM destinations
		WHERE workspace_id = $1 AND id = $2
	`

	row := r.db.QueryRowContext(ctx, query, workspaceID, id)
	destination, err := domain.ScanDestination(row)

	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "destination", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get destination: %w", err)
	}

	return destination, nil
}

func (r *destinationRepository) GetEnabled(ctx context.Context, workspaceID, kind string) (*domain.Destination, error) {
	query := `
		SELECT ` + destinationColumns + `
		FROM destinations
		WHERE workspace_id = $1 AND kind = $2 AND enabled = TRUE
		ORDER BY created_at ASC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query, workspaceID, kind)
	destination, err := domain.ScanDestination(row)

	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "destination", ID: kind}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled destination: %w", err)
	}

	return destination, nil
}

func (r *destinationRepository) List(ctx context.Context) ([]*domain.Destination, error) {
	query := `
		SELECT ` + destinationColumns + `
		FROM destinations
		ORDER BY workspace_id, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}
	defer rows.Close()

	var destinations []*domain.Destination
	for rows.Next() {
		destination, err := domain.ScanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		destinations = append(destinations, destination)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating destination rows: %w", err)
	}

	return destinations, nil
}

func (r *destinationRepository) Upsert(ctx context.Context, destination *domain.Destination) error {
	query := `
		INSERT INTO destinations (
			id, workspace_id, kind, enabled, settings,
			last_sync_at, last_error, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			enabled = EXCLUDED.enabled,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		destination.ID,
		destination.WorkspaceID,
		destination.Kind,
		destination.Enabled,
		destination.Settings,
		destination.LastSyncAt,
		destination.LastError,
		destination.CreatedAt,
		destination.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert destination: %w", err)
	}
	return nil
}

func (r *destinationRepository) UpdateSyncStatus(ctx context.Context, workspaceID, id string, lastSyncAt *time.Time, lastError *string) error {
	query := `
		UPDATE destinations
		SET last_sync_at = COALESCE($3, last_sync_at),
			last_error = $4,
			updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, workspaceID, id, lastSyncAt, lastError)
	if err != nil {
		return fmt.Errorf("failed to update destination sync status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "destination", ID: id}
	}
	return nil
}
