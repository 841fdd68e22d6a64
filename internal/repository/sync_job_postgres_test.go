package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/internal/repository/testutil"
)

func TestSyncJobRepository_Insert(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSyncJobRepository(db)
	now := time.Now().UTC()
	job := &domain.SyncJob{
		ID:            "job-1",
		WorkspaceID:   "ws1",
		DestinationID: "dest-1",
		UnifiedUserID: "uid-1",
		JobType:       domain.JobTypeProfileUpsert,
		Status:        domain.SyncJobStatusPending,
		Reason:        domain.ReasonFirstSync,
		MaxAttempts:   domain.DefaultMaxAttempts,
		ScheduledAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mock.ExpectExec(`INSERT INTO sync_jobs`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Insert(context.Background(), job))

	mock.ExpectExec(`INSERT INTO sync_jobs`).
		WillReturnError(errors.New("database error"))
	err := repo.Insert(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert sync job")
}

func TestSyncJobRepository_HasActiveJob(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSyncJobRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ws1", "uid-1", domain.JobTypeProfileUpsert,
			domain.SyncJobStatusPending, domain.SyncJobStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasActiveJob(context.Background(), "ws1", "uid-1", domain.JobTypeProfileUpsert)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSyncJobRepository_ListDue(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSyncJobRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	rows := sqlmock.NewRows([]string{
		"id", "workspace_id", "destination_id", "unified_user_id", "event_id",
		"job_type", "status", "reason", "attempts", "max_attempts", "last_error",
		"scheduled_at", "started_at", "completed_at", "created_at", "updated_at",
	}).AddRow(
		"job-1", "ws1", "dest-1", "uid-1", "evt-1",
		domain.JobTypeEventTrack, domain.SyncJobStatusPending, domain.ReasonCartAbandoned,
		1, 5, "timeout",
		now, nil, nil, now, now,
	)

	mock.ExpectQuery(`SELECT (.+) FROM sync_jobs WHERE workspace_id = \$1 AND status = \$2`).
		WithArgs("ws1", domain.SyncJobStatusPending, 50).
		WillReturnRows(rows)

	jobs, err := repo.ListDue(context.Background(), "ws1", 50)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.Equal(t, 1, jobs[0].Attempts)
	require.NotNil(t, jobs[0].EventID)
	assert.Equal(t, "evt-1", *jobs[0].EventID)
	require.NotNil(t, jobs[0].LastError)
	assert.Equal(t, "timeout", *jobs[0].LastError)
}

func TestSyncJobRepository_MarkRunning(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSyncJobRepository(db)

	// Test case 1: Successful claim returns incremented attempts
	mock.ExpectQuery(`UPDATE sync_jobs`).
		WithArgs("ws1", "job-1", domain.SyncJobStatusRunning, domain.SyncJobStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(2))

	attempts, err := repo.MarkRunning(context.Background(), "ws1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	// Test case 2: Job already claimed elsewhere
	mock.ExpectQuery(`UPDATE sync_jobs`).
		WithArgs("ws1", "job-2", domain.SyncJobStatusRunning, domain.SyncJobStatusPending).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.MarkRunning(context.Background(), "ws1", "job-2")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestSyncJobRepository_CompleteAndRetryAndFail(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewSyncJobRepository(db)
	nextAt := time.Now().UTC().Add(2 * time.Minute)

	mock.ExpectExec(`UPDATE sync_jobs`).
		WithArgs("ws1", "job-1", domain.SyncJobStatusCompleted, "skipped: no email").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Complete(context.Background(), "ws1", "job-1", "skipped: no email"))

	mock.ExpectExec(`UPDATE sync_jobs`).
		WithArgs("ws1", "job-1", domain.SyncJobStatusPending, nextAt, "429 too many requests").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ScheduleRetry(context.Background(), "ws1", "job-1", nextAt, "429 too many requests"))

	mock.ExpectExec(`UPDATE sync_jobs`).
		WithArgs("ws1", "job-1", domain.SyncJobStatusFailed, "max attempts reached").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Fail(context.Background(), "ws1", "job-1", "max attempts reached"))

	mock.ExpectExec(`UPDATE sync_jobs`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Complete(context.Background(), "ws1", "missing", "")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}
