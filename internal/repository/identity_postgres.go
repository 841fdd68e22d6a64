package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/signalforge/signalforge/internal/domain"
)

const unifiedIdentityColumns = `
	id, workspace_id, anonymous_ids, emails, customer_ids,
	primary_email, phone, traits, computed,
	first_seen_at, last_seen_at, created_at, updated_at`

// queryer abstracts *sql.DB and *sql.Tx so lookups work inside and outside
// the resolver's transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type identityRepository struct {
	db *sql.DB
}

// NewIdentityRepository creates a new PostgreSQL identity repository
func NewIdentityRepository(db *sql.DB) domain.IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) conn(tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *identityRepository) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *identityRepository) AcquireEmailLock(ctx context.Context, tx *sql.Tx, workspaceID, email string) error {
	// Transaction-scoped advisory lock serializing resolutions for one
	// (workspace, email) pair. Released automatically at commit/rollback.
	query := `SELECT pg_advisory_xact_lock(hashtext($1))`

	if _, err := r.conn(tx).ExecContext(ctx, query, workspaceID+":"+email); err != nil {
		return fmt.Errorf("failed to acquire email lock: %w", err)
	}
	return nil
}

func (r *identityRepository) GetByID(ctx context.Context, tx *sql.Tx, workspaceID, id string) (*domain.UnifiedIdentity, error) {
	query := `
		SELECT ` + unifiedIdentityColumns + `
		FROM unified_identities
		WHERE workspace_id = $1 AND id = $2
	`

	row := r.conn(tx).QueryRowContext(ctx, query, workspaceID, id)
	identity, err := domain.ScanUnifiedIdentity(row)

	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "identity", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return identity, nil
}

func (r *identityRepository) GetByAnonymousID(ctx context.Context, tx *sql.Tx, workspaceID, anonymousID string) (*domain.UnifiedIdentity, error) {
	return r.getByIdentifier(ctx, tx, workspaceID, "anonymous_ids", anonymousID)
}

func (r *identityRepository) GetByEmail(ctx context.Context, tx *sql.Tx, workspaceID, email string) (*domain.UnifiedIdentity, error) {
	return r.getByIdentifier(ctx, tx, workspaceID, "emails", email)
}

func (r *identityRepository) GetByCustomerID(ctx context.Context, tx *sql.Tx, workspaceID, customerID string) (*domain.UnifiedIdentity, error) {
	return r.getByIdentifier(ctx, tx, workspaceID, "customer_ids", customerID)
}

// getByIdentifier looks up an identity by membership in one of the JSONB
// identifier sets, using the GIN containment operator. Ties break on the
// oldest record so repeated lookups are deterministic.
func (r *identityRepository) getByIdentifier(ctx context.Context, tx *sql.Tx, workspaceID, column, value string) (*domain.UnifiedIdentity, error) {
	query := fmt.Sprintf(`
		SELECT `+unifiedIdentityColumns+`
		FROM unified_identities
		WHERE workspace_id = $1 AND %s @> to_jsonb(ARRAY[$2::text])
		ORDER BY created_at ASC
		LIMIT 1
	`, column)

	row := r.conn(tx).QueryRowContext(ctx, query, workspaceID, value)
	identity, err := domain.ScanUnifiedIdentity(row)

	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "identity", ID: value}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity by %s: %w", column, err)
	}

	return identity, nil
}

func (r *identityRepository) Create(ctx context.Context, tx *sql.Tx, identity *domain.UnifiedIdentity) error {
	query := `
		INSERT INTO unified_identities (
			id, workspace_id, anonymous_ids, emails, customer_ids,
			primary_email, phone, traits, computed,
			first_seen_at, last_seen_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.conn(tx).ExecContext(ctx, query,
		identity.ID,
		identity.WorkspaceID,
		identity.AnonymousIDs,
		identity.Emails,
		identity.CustomerIDs,
		identity.PrimaryEmail,
		identity.Phone,
		identity.Traits,
		identity.Computed,
		identity.FirstSeenAt,
		identity.LastSeenAt,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

func (r *identityRepository) Update(ctx context.Context, tx *sql.Tx, identity *domain.UnifiedIdentity) error {
	query := `
		UPDATE unified_identities
		SET anonymous_ids = $3,
			emails = $4,
			customer_ids = $5,
			primary_email = $6,
			phone = $7,
			traits = $8,
			computed = $9,
			last_seen_at = $10,
			updated_at = $11
		WHERE workspace_id = $1 AND id = $2
	`

	result, err := r.conn(tx).ExecContext(ctx, query,
		identity.WorkspaceID,
		identity.ID,
		identity.AnonymousIDs,
		identity.Emails,
		identity.CustomerIDs,
		identity.PrimaryEmail,
		identity.Phone,
		identity.Traits,
		identity.Computed,
		identity.LastSeenAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update identity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "identity", ID: identity.ID}
	}
	return nil
}

func (r *identityRepository) UpdateComputed(ctx context.Context, workspaceID, id string, computed domain.ComputedTraits) error {
	query := `
		UPDATE unified_identities
		SET computed = $3, updated_at = $4
		WHERE workspace_id = $1 AND id = $2
	`

	result, err := r.db.ExecContext(ctx, query, workspaceID, id, computed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update computed traits: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "identity", ID: id}
	}
	return nil
}

// Merge reassigns every dependent row from loser to winner, then removes the
// loser. Link rows that would collide with a winner-owned row are deleted
// instead of repointed. Must run inside the resolver's transaction.
func (r *identityRepository) Merge(ctx context.Context, tx *sql.Tx, workspaceID, winnerID, loserID string) error {
	conn := r.conn(tx)

	steps := []struct {
		name  string
		query string
	}{
		{"reassign events", `
			UPDATE events
			SET unified_user_id = $2
			WHERE workspace_id = $1 AND unified_user_id = $3`},
		{"drop colliding links", `
			DELETE FROM identity_links l
			WHERE l.workspace_id = $1 AND l.unified_user_id = $3
			AND EXISTS (
				SELECT 1 FROM identity_links w
				WHERE w.workspace_id = $1 AND w.unified_user_id = $2
				AND w.identity_type = l.identity_type
				AND w.identity_value = l.identity_value
			)`},
		{"reassign links", `
			UPDATE identity_links
			SET unified_user_id = $2
			WHERE workspace_id = $1 AND unified_user_id = $3`},
		{"reassign sync jobs", `
			UPDATE sync_jobs
			SET unified_user_id = $2, updated_at = NOW()
			WHERE workspace_id = $1 AND unified_user_id = $3`},
		{"delete loser", `
			DELETE FROM unified_identities
			WHERE workspace_id = $1 AND id = $3`},
	}

	for _, step := range steps {
		if _, err := conn.ExecContext(ctx, step.query, workspaceID, winnerID, loserID); err != nil {
			return fmt.Errorf("merge failed to %s: %w", step.name, err)
		}
	}
	return nil
}

func (r *identityRepository) Delete(ctx context.Context, workspaceID, id string) error {
	query := `DELETE FROM unified_identities WHERE workspace_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, workspaceID, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "identity", ID: id}
	}
	return nil
}

func (r *identityRepository) ListStale(ctx context.Context, workspaceID string, updatedBefore time.Time, limit int) ([]*domain.UnifiedIdentity, error) {
	query, args, err := sq.
		Select("id", "workspace_id", "anonymous_ids", "emails", "customer_ids",
			"primary_email", "phone", "traits", "computed",
			"first_seen_at", "last_seen_at", "created_at", "updated_at").
		From("unified_identities").
		Where(sq.Eq{"workspace_id": workspaceID}).
		Where(sq.Lt{"updated_at": updatedBefore}).
		OrderBy("updated_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stale identities query: %w", err)
	}

	return r.list(ctx, query, args)
}

func (r *identityRepository) ListRecentlyUpdated(ctx context.Context, workspaceID string, since time.Time, limit int) ([]*domain.UnifiedIdentity, error) {
	query, args, err := sq.
		Select("id", "workspace_id", "anonymous_ids", "emails", "customer_ids",
			"primary_email", "phone", "traits", "computed",
			"first_seen_at", "last_seen_at", "created_at", "updated_at").
		From("unified_identities").
		Where(sq.Eq{"workspace_id": workspaceID}).
		Where(sq.GtOrEq{"updated_at": since}).
		OrderBy("updated_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent identities query: %w", err)
	}

	return r.list(ctx, query, args)
}

func (r *identityRepository) list(ctx context.Context, query string, args []interface{}) ([]*domain.UnifiedIdentity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var identities []*domain.UnifiedIdentity
	for rows.Next() {
		identity, err := domain.ScanUnifiedIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identity rows: %w", err)
	}

	return identities, nil
}
