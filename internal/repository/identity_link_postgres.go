package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/signalforge/signalforge/internal/domain"
)

type identityLinkRepository struct {
	db *sql.DB
}

// NewIdentityLinkRepository creates a new PostgreSQL identity link repository
func NewIdentityLinkRepository(db *sql.DB) domain.IdentityLinkRepository {
	return &identityLinkRepository{db: db}
}

func (r *identityLinkRepository) conn(tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *identityLinkRepository) Upsert(ctx context.Context, tx *sql.Tx, link *domain.IdentityLink) error {
	if err := link.Validate(); err != nil {
		return err
	}

	// A value observed again for the same identity is a no-op; a value
	// re-observed for a different identity is repointed at the new owner.
	query := `
		INSERT INTO identity_links (
			id, workspace_id, unified_user_id, identity_type, identity_value,
			source, confidence, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (workspace_id, identity_type, identity_value) DO UPDATE SET
			unified_user_id = EXCLUDED.unified_user_id,
			source = EXCLUDED.source,
			confidence = EXCLUDED.confidence
	`

	_, err := r.conn(tx).ExecContext(ctx, query,
		link.ID,
		link.WorkspaceID,
		link.UnifiedUserID,
		link.IdentityType,
		link.IdentityValue,
		link.Source,
		link.Confidence,
		link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert identity link: %w", err)
	}
	return nil
}

func (r *identityLinkRepository) ListByUser(ctx context.Context, workspaceID, unifiedUserID string) ([]*domain.IdentityLink, error) {
	query := `
		SELECT id, workspace_id, unified_user_id, identity_type, identity_value,
			source, confidence, created_at
		FROM identity_links
		WHERE workspace_id = $1 AND unified_user_id = $2
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, unifiedUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list identity links: %w", err)
	}
	defer rows.Close()

	var links []*domain.IdentityLink
	for rows.Next() {
		var link domain.IdentityLink
		if err := rows.Scan(
			&link.ID,
			&link.WorkspaceID,
			&link.UnifiedUserID,
			&link.IdentityType,
			&link.IdentityValue,
			&link.Source,
			&link.Confidence,
			&link.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan identity link: %w", err)
		}
		links = append(links, &link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identity link rows: %w", err)
	}

	return links, nil
}

func (r *identityLinkRepository) DeleteForUser(ctx context.Context, workspaceID, unifiedUserID string) error {
	query := `DELETE FROM identity_links WHERE workspace_id = $1 AND unified_user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, workspaceID, unifiedUserID); err != nil {
		return fmt.Errorf("failed to delete identity links: %w", err)
	}
	return nil
}
