package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/signalforge/signalforge/internal/domain"
)

const eventColumns = `
	id, workspace_id, unified_user_id, anonymous_id, event_type, event_name,
	properties, event_time, source, dedupe_key, status, created_at`

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Insert(ctx context.Context, event *domain.Event) (bool, error) {
	// The unique (workspace_id, dedupe_key) constraint is the dedupe
	// mechanism: a conflicting insert affects zero rows and is reported as
	// a duplicate, never an error.
	query := `
		INSERT INTO events (
			id, workspace_id, unified_user_id, anonymous_id, event_type, event_name,
			properties, event_time, source, dedupe_key, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (workspace_id, dedupe_key) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.WorkspaceID,
		event.UnifiedUserID,
		event.AnonymousID,
		event.EventType,
		event.EventName,
		event.Properties,
		event.EventTime,
		event.Source,
		event.DedupeKey,
		event.Status,
		event.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 0, nil
}

func (r *eventRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE workspace_id = $1 AND id = $2
	`

	row := r.db.QueryRowContext(ctx, query, workspaceID, id)
	event, err := domain.ScanEvent(row)

	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "event", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

func (r *eventRepository) ListByUser(ctx context.Context, workspaceID, unifiedUserID string, limit int) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE workspace_id = $1 AND unified_user_id = $2
		ORDER BY event_time DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, unifiedUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := domain.ScanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

func (r *eventRepository) RelinkAnonymousEvents(ctx context.Context, tx *sql.Tx, workspaceID, anonymousID, unifiedUserID string) (int64, error) {
	var conn queryer = r.db
	if tx != nil {
		conn = tx
	}

	query := `
		UPDATE events
		SET unified_user_id = $3
		WHERE workspace_id = $1 AND anonymous_id = $2
		AND (unified_user_id IS NULL OR unified_user_id <> $3)
	`

	result, err := conn.ExecContext(ctx, query, workspaceID, anonymousID, unifiedUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to relink anonymous events: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, workspaceID, id, status string) error {
	query := `UPDATE events SET status = $3 WHERE workspace_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, workspaceID, id, status)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "event", ID: id}
	}
	return nil
}

func (r *eventRepository) AssignUser(ctx context.Context, workspaceID, id, unifiedUserID string) error {
	query := `UPDATE events SET unified_user_id = $3 WHERE workspace_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, workspaceID, id, unifiedUserID)
	if err != nil {
		return fmt.Errorf("failed to assign event user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "event", ID: id}
	}
	return nil
}

func (r *eventRepository) ListAbandonmentCandidates(ctx context.Context, workspaceID, eventType string, cutoff time.Time, limit int) ([]string, error) {
	// A candidate's latest cart/checkout event is older than the cutoff
	// and was not followed by an order or by an already-derived
	// abandonment event of the same kind.
	abandonedType := eventType + "_abandoned"

	query := `
		SELECT e.unified_user_id
		FROM events e
		WHERE e.workspace_id = $1
		AND e.event_type = $2
		AND e.unified_user_id IS NOT NULL
		AND e.event_time < $3
		AND NOT EXISTS (
			SELECT 1 FROM events later
			WHERE later.workspace_id = e.workspace_id
			AND later.unified_user_id = e.unified_user_id
			AND later.event_type = ANY($4)
			AND later.event_time > e.event_time
		)
		GROUP BY e.unified_user_id
		LIMIT $5
	`

	rows, err := r.db.QueryContext(ctx, query,
		workspaceID, eventType, cutoff,
		pq.Array([]string{domain.EventTypeOrder, abandonedType}),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list abandonment candidates: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate rows: %w", err)
	}

	return userIDs, nil
}

func (r *eventRepository) BackfillUnlinkedEvents(ctx context.Context, workspaceID string, since time.Time) (int64, error) {
	// Events that still carry only an anonymous id get attached to the
	// identity that has since claimed that id via its identity link.
	query := `
		UPDATE events e
		SET unified_user_id = l.unified_user_id
		FROM identity_links l
		WHERE e.workspace_id = $1
		AND e.unified_user_id IS NULL
		AND e.anonymous_id IS NOT NULL
		AND e.created_at >= $2
		AND l.workspace_id = e.workspace_id
		AND l.identity_type = $3
		AND l.identity_value = e.anonymous_id
	`

	result, err := r.db.ExecContext(ctx, query, workspaceID, since, domain.IdentityTypeAnonymous)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill unlinked events: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
