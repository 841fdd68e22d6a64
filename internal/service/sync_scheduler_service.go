package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/pkg/logger"
)

// Identities touched within this window still qualify for a steady-state
// profile refresh when no forced rung applies.
const opportunisticWindow = time.Hour

// SyncSchedulerService decides when an identity's state is worth pushing to
// the destination. Identities without an email never sync: the destination
// cannot address them, and pushing ghost profiles pollutes its list.
type SyncSchedulerService struct {
	destinationRepo domain.DestinationRepository
	syncJobRepo     domain.SyncJobRepository
	maxAttempts     int
	logger          logger.Logger
}

// NewSyncSchedulerService creates a new sync scheduler
func NewSyncSchedulerService(
	destinationRepo domain.DestinationRepository,
	syncJobRepo domain.SyncJobRepository,
	maxAttempts int,
	logger logger.Logger,
) *SyncSchedulerService {
	if maxAttempts < 1 {
		maxAttempts = domain.DefaultMaxAttempts
	}
	return &SyncSchedulerService{
		destinationRepo: destinationRepo,
		syncJobRepo:     syncJobRepo,
		maxAttempts:     maxAttempts,
		logger:          logger,
	}
}

func (s *SyncSchedulerService) ScheduleIfNeeded(ctx context.Context, workspaceID string, identity *domain.UnifiedIdentity, event *domain.Event) (int, string, error) {
	if identity == nil || !identity.HasEmail() {
		return 0, "", nil
	}

	reason := s.pickReason(identity, event)
	if reason == "" {
		return 0, "", nil
	}

	destination, err := s.destinationRepo.GetEnabled(ctx, workspaceID, domain.DestinationKindKlaviyo)
	if err != nil {
		if domain.IsNotFound(err) {
			return 0, "", nil
		}
		return 0, "", fmt.Errorf("failed to load destination: %w", err)
	}

	created := 0

	// Dedupe is best-effort: the destination calls are idempotent, so a
	// duplicate job wastes one API call at worst.
	active, err := s.syncJobRepo.HasActiveJob(ctx, workspaceID, identity.ID, domain.JobTypeProfileUpsert)
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("active job check failed, scheduling anyway")
		active = false
	}
	if !active {
		if err := s.insertJob(ctx, workspaceID, destination.ID, identity.ID, nil, domain.JobTypeProfileUpsert, reason); err != nil {
			return created, reason, err
		}
		created++
	}

	// Forwardable events additionally get an event-track job.
	if event != nil && event.UnifiedUserID != nil {
		if _, forwardable := domain.MetricForEvent(event.EventType); forwardable {
			if err := s.insertJob(ctx, workspaceID, destination.ID, identity.ID, &event.ID, domain.JobTypeEventTrack, reason); err != nil {
				return created, reason, err
			}
			created++
		}
	}

	return created, reason, nil
}

// pickReason walks the forced-sync ladder top down; the first rung that
// applies and has not already fired wins. The fired markers are set by the
// worker on successful delivery, so a trigger stays armed across failed
// jobs; the active-job check above keeps the queue from flooding meanwhile.
func (s *SyncSchedulerService) pickReason(identity *domain.UnifiedIdentity, event *domain.Event) string {
	c := identity.Computed

	if c.DropOffStage == domain.StageCheckoutAbandoned && !c.Flags.CheckoutAbandonedSynced {
		return domain.ReasonCheckoutAbandoned
	}
	if eventOfType(event, domain.EventTypeCart) && c.IntentScore >= domain.CartHighIntentMinScore && !c.Flags.CartSynced {
		return domain.ReasonCartHighIntent
	}
	if c.DropOffStage == domain.StageCartAbandoned && !c.Flags.CartAbandonedSynced {
		return domain.ReasonCartAbandoned
	}
	if eventOfType(event, domain.EventTypeProductView) && c.IntentScore >= domain.ProductHighIntentMinScore && !c.Flags.ProductViewSynced {
		return domain.ReasonProductHighIntent
	}
	if !c.Flags.FirstSyncCompleted {
		return domain.ReasonFirstSync
	}
	// Steady-state path: forwardable events always reach the destination,
	// and a recently-touched identity gets a profile refresh even when the
	// triggering event (or maintenance pass) carries nothing forwardable.
	if event != nil {
		if _, forwardable := domain.MetricForEvent(event.EventType); forwardable {
			return domain.ReasonOpportunistic
		}
	}
	if time.Since(identity.UpdatedAt) <= opportunisticWindow {
		return domain.ReasonOpportunistic
	}
	return ""
}

func eventOfType(event *domain.Event, eventType string) bool {
	return event != nil && event.EventType == eventType
}

func (s *SyncSchedulerService) insertJob(ctx context.Context, workspaceID, destinationID, unifiedUserID string, eventID *string, jobType, reason string) error {
	now := time.Now().UTC()
	job := &domain.SyncJob{
		ID:            uuid.New().String(),
		WorkspaceID:   workspaceID,
		DestinationID: destinationID,
		UnifiedUserID: unifiedUserID,
		EventID:       eventID,
		JobType:       jobType,
		Status:        domain.SyncJobStatusPending,
		Reason:        reason,
		MaxAttempts:   s.maxAttempts,
		ScheduledAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.syncJobRepo.Insert(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue sync job: %w", err)
	}
	return nil
}
