package service

import (
	"context"
	"fmt"
	"time"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/pkg/logger"
)

// SyncWorker drains the sync job queue and delivers profiles and events to
// the destination. Every job resolves to exactly one terminal outcome per
// attempt: completed, rescheduled with backoff, or terminally failed.
type SyncWorker struct {
	syncJobRepo     domain.SyncJobRepository
	identityRepo    domain.IdentityRepository
	eventRepo       domain.EventRepository
	destinationRepo domain.DestinationRepository
	klaviyoClient   domain.KlaviyoClient
	pollInterval    time.Duration
	batchSize       int
	callTimeout     time.Duration
	logger          logger.Logger
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	syncJobRepo domain.SyncJobRepository,
	identityRepo domain.IdentityRepository,
	eventRepo domain.EventRepository,
	destinationRepo domain.DestinationRepository,
	klaviyoClient domain.KlaviyoClient,
	pollInterval time.Duration,
	batchSize int,
	callTimeout time.Duration,
	logger logger.Logger,
) *SyncWorker {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	return &SyncWorker{
		syncJobRepo:     syncJobRepo,
		identityRepo:    identityRepo,
		eventRepo:       eventRepo,
		destinationRepo: destinationRepo,
		klaviyoClient:   klaviyoClient,
		pollInterval:    pollInterval,
		batchSize:       batchSize,
		callTimeout:     callTimeout,
		logger:          logger,
	}
}

// Start runs the polling loop until the context is cancelled.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.WithField("poll_interval", w.pollInterval.String()).Info("sync worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sync worker stopped")
			return
		case <-ticker.C:
			if _, err := w.ProcessPendingJobs(ctx); err != nil {
				w.logger.WithField("error", err.Error()).Error("sync pass failed")
			}
		}
	}
}

// ProcessPendingJobs drains one batch of due jobs for every known
// destination's workspace, returning the number of jobs processed.
func (w *SyncWorker) ProcessPendingJobs(ctx context.Context) (int, error) {
	destinations, err := w.destinationRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list destinations: %w", err)
	}

	processed := 0
	seen := make(map[string]bool)
	for _, destination := range destinations {
		if seen[destination.WorkspaceID] {
			continue
		}
		seen[destination.WorkspaceID] = true

		jobs, err := w.syncJobRepo.ListDue(ctx, destination.WorkspaceID, w.batchSize)
		if err != nil {
			w.logger.WithFields(map[string]interface{}{
				"workspace_id": destination.WorkspaceID,
				"error":        err.Error(),
			}).Error("failed to list due jobs")
			continue
		}

		for _, job := range jobs {
			if ctx.Err() != nil {
				return processed, ctx.Err()
			}
			w.processJob(ctx, job)
			processed++
		}
	}
	return processed, nil
}

func (w *SyncWorker) processJob(ctx context.Context, job *domain.SyncJob) {
	log := w.logger.WithFields(map[string]interface{}{
		"workspace_id": job.WorkspaceID,
		"job_id":       job.ID,
		"job_type":     job.JobType,
		"reason":       job.Reason,
	})

	attempts, err := w.syncJobRepo.MarkRunning(ctx, job.WorkspaceID, job.ID)
	if err != nil {
		if domain.IsNotFound(err) {
			// Claimed by a concurrent pass.
			return
		}
		log.Error(fmt.Sprintf("failed to claim job: %v", err))
		return
	}

	if err := w.runJob(ctx, job); err != nil {
		w.handleFailure(ctx, job, attempts, err, log)
		return
	}
}

func (w *SyncWorker) runJob(ctx context.Context, job *domain.SyncJob) error {
	destination, err := w.destinationRepo.GetByID(ctx, job.WorkspaceID, job.DestinationID)
	if err != nil {
		return err
	}
	if reason := destination.Misconfigured(); reason != "" {
		return &domain.ErrDestinationDisabled{DestinationID: destination.ID, Reason: reason}
	}

	identity, err := w.identityRepo.GetByID(ctx, nil, job.WorkspaceID, job.UnifiedUserID)
	if err != nil {
		if domain.IsNotFound(err) {
			// Merged or deleted since scheduling; nothing to sync.
			return w.syncJobRepo.Complete(ctx, job.WorkspaceID, job.ID, "skipped: identity no longer exists")
		}
		return err
	}
	if !identity.HasEmail() {
		return w.syncJobRepo.Complete(ctx, job.WorkspaceID, job.ID, "skipped: no email")
	}

	switch job.JobType {
	case domain.JobTypeProfileUpsert:
		return w.syncProfile(ctx, job, destination, identity)
	case domain.JobTypeEventTrack:
		return w.syncEvent(ctx, job, destination, identity)
	default:
		return w.syncJobRepo.Fail(ctx, job.WorkspaceID, job.ID, "unknown job type: "+job.JobType)
	}
}

func (w *SyncWorker) syncProfile(ctx context.Context, job *domain.SyncJob, destination *domain.Destination, identity *domain.UnifiedIdentity) error {
	profile := &domain.DestinationProfile{
		Email:      *identity.PrimaryEmail,
		ExternalID: identity.ID,
		Properties: domain.DestinationProperties(identity),
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	if _, err := w.klaviyoClient.UpsertProfile(callCtx, destination.Settings, profile); err != nil {
		return err
	}

	// Persist what the destination now has so recomputation can diff
	// against it, and mark the fired rung only now that the delivery
	// actually happened: a terminally failed job must leave the trigger
	// armed for the next event.
	now := time.Now().UTC()
	computed := identity.Computed
	computed.SyncedSnapshot = domain.JSONMap(profile.Properties)
	computed.LastSyncedAt = &now
	markReasonSynced(&computed.Flags, job.Reason)
	if err := w.identityRepo.UpdateComputed(ctx, job.WorkspaceID, identity.ID, computed); err != nil {
		w.logger.WithField("error", err.Error()).Warn("failed to persist synced snapshot")
	}

	w.recordSuccess(ctx, job, destination)
	return w.syncJobRepo.Complete(ctx, job.WorkspaceID, job.ID, "")
}

// markReasonSynced records which forced trigger this delivery satisfied.
// Any successful profile delivery also completes the first sync.
func markReasonSynced(flags *domain.SyncFlags, reason string) {
	flags.FirstSyncCompleted = true
	switch reason {
	case domain.ReasonCheckoutAbandoned:
		flags.CheckoutAbandonedSynced = true
	case domain.ReasonCartHighIntent:
		flags.CartSynced = true
	case domain.ReasonCartAbandoned:
		flags.CartAbandonedSynced = true
	case domain.ReasonProductHighIntent:
		flags.ProductViewSynced = true
	}
}

func (w *SyncWorker) syncEvent(ctx context.Context, job *domain.SyncJob, destination *domain.Destination, identity *domain.UnifiedIdentity) error {
	if job.EventID == nil {
		return w.syncJobRepo.Fail(ctx, job.WorkspaceID, job.ID, "event job without event id")
	}

	event, err := w.eventRepo.GetByID(ctx, job.WorkspaceID, *job.EventID)
	if err != nil {
		if domain.IsNotFound(err) {
			return w.syncJobRepo.Complete(ctx, job.WorkspaceID, job.ID, "skipped: event no longer exists")
		}
		return err
	}

	metricName, forwardable := domain.MetricForEvent(event.EventType)
	if !forwardable {
		// The allow-list blocks low-value noise; the profile still syncs.
		return w.syncJobRepo.Complete(ctx, job.WorkspaceID, job.ID, "blocked: event type not forwarded")
	}

	destEvent := &domain.DestinationEvent{
		MetricName: metricName,
		Email:      *identity.PrimaryEmail,
		ExternalID: identity.ID,
		Properties: map[string]interface{}(event.Properties),
		Time:       event.EventTime,
		UniqueID:   event.ID,
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	if err := w.klaviyoClient.TrackEvent(callCtx, destination.Settings, destEvent); err != nil {
		return err
	}

	if err := w.eventRepo.UpdateStatus(ctx, job.WorkspaceID, event.ID, domain.EventStatusSynced); err != nil {
		w.logger.WithField("error", err.Error()).Warn("failed to mark event synced")
	}

	w.recordSuccess(ctx, job, destination)
	return w.syncJobRepo.Complete(ctx, job.WorkspaceID, job.ID, "")
}

func (w *SyncWorker) handleFailure(ctx context.Context, job *domain.SyncJob, attempts int, jobErr error, log logger.Logger) {
	// A disabled or misconfigured destination cannot recover by retrying.
	if _, disabled := jobErr.(*domain.ErrDestinationDisabled); disabled {
		log.Warn(fmt.Sprintf("job failed terminally: %v", jobErr))
		if err := w.syncJobRepo.Fail(ctx, job.WorkspaceID, job.ID, jobErr.Error()); err != nil {
			log.Error(fmt.Sprintf("failed to mark job failed: %v", err))
		}
		w.recordError(ctx, job, jobErr)
		return
	}

	maxAttempts := job.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}

	if attempts >= maxAttempts {
		log.Error(fmt.Sprintf("job failed after %d attempts: %v", attempts, jobErr))
		if err := w.syncJobRepo.Fail(ctx, job.WorkspaceID, job.ID, jobErr.Error()); err != nil {
			log.Error(fmt.Sprintf("failed to mark job failed: %v", err))
		}
		w.recordError(ctx, job, jobErr)
		return
	}

	nextAt := domain.NextRetryAt(time.Now().UTC(), attempts)
	log.Warn(fmt.Sprintf("job attempt %d failed, retrying at %s: %v", attempts, nextAt.Format(time.RFC3339), jobErr))
	if err := w.syncJobRepo.ScheduleRetry(ctx, job.WorkspaceID, job.ID, nextAt, jobErr.Error()); err != nil {
		log.Error(fmt.Sprintf("failed to schedule retry: %v", err))
	}
}

func (w *SyncWorker) recordSuccess(ctx context.Context, job *domain.SyncJob, destination *domain.Destination) {
	now := time.Now().UTC()
	if err := w.destinationRepo.UpdateSyncStatus(ctx, job.WorkspaceID, destination.ID, &now, nil); err != nil {
		w.logger.WithField("error", err.Error()).Warn("failed to record destination sync status")
	}
}

func (w *SyncWorker) recordError(ctx context.Context, job *domain.SyncJob, jobErr error) {
	msg := jobErr.Error()
	if err := w.destinationRepo.UpdateSyncStatus(ctx, job.WorkspaceID, job.DestinationID, nil, &msg); err != nil {
		w.logger.WithField("error", err.Error()).Warn("failed to record destination sync error")
	}
}
