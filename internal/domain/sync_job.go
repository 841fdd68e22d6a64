package domain

import (
	"context"
	"database/sql"
	"math"
	"time"
)

//go:generate mockgen -destination mocks/mock_sync_job_repository.go -package mocks github.com/signalforge/signalforge/internal/domain SyncJobRepository
//go:generate mockgen -destination mocks/mock_sync_scheduler.go -package mocks github.com/signalforge/signalforge/internal/domain SyncScheduler

// Sync job types.
const (
	JobTypeProfileUpsert = "profile_upsert"
	JobTypeEventTrack    = "event_track"
)

// Sync job lifecycle: pending → running → {completed | pending-with-backoff
// | failed}.
const (
	SyncJobStatusPending   = "pending"
	SyncJobStatusRunning   = "running"
	SyncJobStatusCompleted = "completed"
	SyncJobStatusFailed    = "failed"
)

// Forced-sync reasons, in decreasing priority. First match wins.
const (
	ReasonCheckoutAbandoned = "checkout_abandoned"
	ReasonCartHighIntent    = "cart_high_intent"
	ReasonCartAbandoned     = "cart_abandoned"
	ReasonProductHighIntent = "product_high_intent"
	ReasonFirstSync         = "first_sync"
	ReasonOpportunistic     = "opportunistic"
)

// Intent thresholds for the forced-sync ladder.
const (
	CartHighIntentMinScore    = 50
	ProductHighIntentMinScore = 30
)

// DefaultMaxAttempts is the retry ceiling for a sync job.
const DefaultMaxAttempts = 5

// SyncJob is one unit of outbound work.
type SyncJob struct {
	ID            string     `json:"id"`
	WorkspaceID   string     `json:"workspace_id"`
	DestinationID string     `json:"destination_id"`
	UnifiedUserID string     `json:"unified_user_id"`
	EventID       *string    `json:"event_id,omitempty"`
	JobType       string     `json:"job_type"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	LastError     *string    `json:"last_error,omitempty"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NextRetryAt computes the exponential backoff schedule for a job that has
// just failed its attempts-th attempt: now + 2^attempts minutes.
func NextRetryAt(now time.Time, attempts int) time.Time {
	if attempts < 0 {
		attempts = 0
	}
	// Cap the exponent so a corrupted attempts value cannot overflow.
	if attempts > 10 {
		attempts = 10
	}
	return now.Add(time.Duration(math.Pow(2, float64(attempts))) * time.Minute)
}

// For database scanning
type dbSyncJob struct {
	ID            string
	WorkspaceID   string
	DestinationID string
	UnifiedUserID string
	EventID       sql.NullString
	JobType       string
	Status        string
	Reason        string
	Attempts      int
	MaxAttempts   int
	LastError     sql.NullString
	ScheduledAt   time.Time
	StartedAt     sql.NullTime
	CompletedAt   sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ScanSyncJob scans a sync job row
func ScanSyncJob(scanner interface {
	Scan(dest ...interface{}) error
}) (*SyncJob, error) {
	var dbj dbSyncJob
	if err := scanner.Scan(
		&dbj.ID,
		&dbj.WorkspaceID,
		&dbj.DestinationID,
		&dbj.UnifiedUserID,
		&dbj.EventID,
		&dbj.JobType,
		&dbj.Status,
		&dbj.Reason,
		&dbj.Attempts,
		&dbj.MaxAttempts,
		&dbj.LastError,
		&dbj.ScheduledAt,
		&dbj.StartedAt,
		&dbj.CompletedAt,
		&dbj.CreatedAt,
		&dbj.UpdatedAt,
	); err != nil {
		return nil, err
	}

	job := &SyncJob{
		ID:            dbj.ID,
		WorkspaceID:   dbj.WorkspaceID,
		DestinationID: dbj.DestinationID,
		UnifiedUserID: dbj.UnifiedUserID,
		JobType:       dbj.JobType,
		Status:        dbj.Status,
		Reason:        dbj.Reason,
		Attempts:      dbj.Attempts,
		MaxAttempts:   dbj.MaxAttempts,
		ScheduledAt:   dbj.ScheduledAt,
		CreatedAt:     dbj.CreatedAt,
		UpdatedAt:     dbj.UpdatedAt,
	}
	if dbj.EventID.Valid {
		job.EventID = &dbj.EventID.String
	}
	if dbj.LastError.Valid {
		job.LastError = &dbj.LastError.String
	}
	if dbj.StartedAt.Valid {
		t := dbj.StartedAt.Time
		job.StartedAt = &t
	}
	if dbj.CompletedAt.Valid {
		t := dbj.CompletedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

// SyncJobRepository persists the outbound job queue.
type SyncJobRepository interface {
	Insert(ctx context.Context, job *SyncJob) error

	// HasActiveJob reports whether a pending or running job of the given
	// type already exists for the identity. Best-effort: duplicate jobs
	// are tolerated because destination calls are idempotent.
	HasActiveJob(ctx context.Context, workspaceID, unifiedUserID, jobType string) (bool, error)

	// ListDue returns pending jobs whose scheduled_at has elapsed and
	// attempts < max_attempts, oldest first.
	ListDue(ctx context.Context, workspaceID string, limit int) ([]*SyncJob, error)

	// MarkRunning transitions the job to running and increments attempts,
	// returning the updated attempt count.
	MarkRunning(ctx context.Context, workspaceID, id string) (int, error)

	// Complete marks the job completed with an explanatory note ("" for a
	// plain success). Skips and blocked events complete with a note.
	Complete(ctx context.Context, workspaceID, id, note string) error

	// ScheduleRetry puts the job back to pending with the given schedule.
	ScheduleRetry(ctx context.Context, workspaceID, id string, nextAt time.Time, errMsg string) error

	// Fail marks the job terminally failed.
	Fail(ctx context.Context, workspaceID, id, errMsg string) error

	// ReassignUser repoints jobs during an identity merge. Runs inside the
	// caller's transaction.
	ReassignUser(ctx context.Context, tx *sql.Tx, workspaceID, fromUserID, toUserID string) error

	DeleteForUser(ctx context.Context, workspaceID, unifiedUserID string) error
}

// SyncScheduler decides whether an identity's current state warrants an
// outbound sync and enqueues the jobs.
type SyncScheduler interface {
	// ScheduleIfNeeded returns the number of jobs created and the reason
	// tag that applied ("" when nothing qualified). The event may be nil
	// for batch-triggered evaluation.
	ScheduleIfNeeded(ctx context.Context, workspaceID string, identity *UnifiedIdentity, event *Event) (int, string, error)
}
