package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/signalforge/signalforge/internal/domain"
)

const syncJobColumns = `
	id, workspace_id, destination_id, unified_user_id, event_id,
	job_type, status, reason, attempts, max_attempts, last_error,
	scheduled_at, started_at, completed_at, created_at, updated_at`

type syncJobRepository struct {
	db *sql.DB
}

// NewSyncJobRepository creates a new PostgreSQL sync job repository
func NewSyncJobRepository(db *sql.DB) domain.SyncJobRepository {
	return &syncJobRepository{db: db}
}

func (r *syncJobRepository) Insert(ctx context.Context, job *domain.SyncJob) error {
	query := `
		INSERT INTO sync_jobs (
			id, workspace_id, destination_id, unified_user_id, event_id,
			job_type, status, reason, attempts, max_attempts, last_error,
			scheduled_at, started_at, completed_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.WorkspaceID,
		job.DestinationID,
		job.UnifiedUserID,
		job.EventID,
		job.JobType,
		job.Status,
		job.Reason,
		job.Attempts,
		job.MaxAttempts,
		job.LastError,
		job.ScheduledAt,
		job.StartedAt,
		job.CompletedAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync job: %w", err)
	}
	return nil
}

func (r *syncJobRepository) HasActiveJob(ctx context.Context, workspaceID, unifiedUserID, jobType string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM sync_jobs
			WHERE workspace_id = $1 AND unified_user_id = $2 AND job_type = $3
			AND status IN ($4, $5)
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query,
		workspaceID, unifiedUserID, jobType,
		domain.SyncJobStatusPending, domain.SyncJobStatusRunning,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active jobs: %w", err)
	}
	return exists, nil
}

func (r *syncJobRepository) ListDue(ctx context.Context, workspaceID string, limit int) ([]*domain.SyncJob, error) {
	query := `
		SELECT ` + syncJobColumns + `
		FROM sync_jobs
		WHERE workspace_id = $1 AND status = $2
		AND scheduled_at <= NOW()
		AND attempts < max_attempts
		ORDER BY scheduled_at ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, domain.SyncJobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due sync jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.SyncJob
	for rows.Next() {
		job, err := domain.ScanSyncJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync job rows: %w", err)
	}

	return jobs, nil
}

func (r *syncJobRepository) MarkRunning(ctx context.Context, workspaceID, id string) (int, error) {
	// The status guard makes the claim race-safe: a job already claimed by
	// another worker pass affects zero rows.
	query := `
		UPDATE sync_jobs
		SET status = $3, attempts = attempts + 1, started_at = NOW(), updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2 AND status = $4
		RETURNING attempts
	`

	var attempts int
	err := r.db.QueryRowContext(ctx, query,
		workspaceID, id,
		domain.SyncJobStatusRunning, domain.SyncJobStatusPending,
	).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, &domain.ErrNotFound{Entity: "sync job", ID: id}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to mark sync job running: %w", err)
	}
	return attempts, nil
}

func (r *syncJobRepository) Complete(ctx context.Context, workspaceID, id, note string) error {
	query := `
		UPDATE sync_jobs
		SET status = $3, last_error = NULLIF($4, ''), completed_at = NOW(), updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	return r.execOne(ctx, id, "complete sync job", query, workspaceID, id, domain.SyncJobStatusCompleted, note)
}

func (r *syncJobRepository) ScheduleRetry(ctx context.Context, workspaceID, id string, nextAt time.Time, errMsg string) error {
	query := `
		UPDATE sync_jobs
		SET status = $3, scheduled_at = $4, last_error = $5, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	return r.execOne(ctx, id, "schedule sync job retry", query, workspaceID, id, domain.SyncJobStatusPending, nextAt, errMsg)
}

func (r *syncJobRepository) Fail(ctx context.Context, workspaceID, id, errMsg string) error {
	query := `
		UPDATE sync_jobs
		SET status = $3, last_error = $4, completed_at = NOW(), updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	return r.execOne(ctx, id, "fail sync job", query, workspaceID, id, domain.SyncJobStatusFailed, errMsg)
}

func (r *syncJobRepository) ReassignUser(ctx context.Context, tx *sql.Tx, workspaceID, fromUserID, toUserID string) error {
	var conn queryer = r.db
	if tx != nil {
		conn = tx
	}

	query := `
		UPDATE sync_jobs
		SET unified_user_id = $3, updated_at = NOW()
		WHERE workspace_id = $1 AND unified_user_id = $2
	`

	if _, err := conn.ExecContext(ctx, query, workspaceID, fromUserID, toUserID); err != nil {
		return fmt.Errorf("failed to reassign sync jobs: %w", err)
	}
	return nil
}

func (r *syncJobRepository) DeleteForUser(ctx context.Context, workspaceID, unifiedUserID string) error {
	query := `DELETE FROM sync_jobs WHERE workspace_id = $1 AND unified_user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, workspaceID, unifiedUserID); err != nil {
		return fmt.Errorf("failed to delete sync jobs: %w", err)
	}
	return nil
}

func (r *syncJobRepository) execOne(ctx context.Context, id, action, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrNotFound{Entity: "sync job", ID: id}
	}
	return nil
}
