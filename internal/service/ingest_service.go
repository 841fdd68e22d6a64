package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/pkg/logger"
)

// IngestService is the entry point for tracked events and identify calls.
// Resolution and event persistence are authoritative; signal computation and
// sync scheduling are downstream and never fail the request.
type IngestService struct {
	resolver       domain.IdentityResolver
	identityRepo   domain.IdentityRepository
	eventRepo      domain.EventRepository
	signalComputer domain.SignalComputer
	syncScheduler  domain.SyncScheduler
	maxBytes       int
	maxDepth       int
	logger         logger.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	resolver domain.IdentityResolver,
	identityRepo domain.IdentityRepository,
	eventRepo domain.EventRepository,
	signalComputer domain.SignalComputer,
	syncScheduler domain.SyncScheduler,
	maxBytes, maxDepth int,
	logger logger.Logger,
) *IngestService {
	if maxBytes <= 0 {
		maxBytes = domain.MaxPropertyBytes
	}
	if maxDepth <= 0 {
		maxDepth = domain.MaxPropertyDepth
	}
	return &IngestService{
		resolver:       resolver,
		identityRepo:   identityRepo,
		eventRepo:      eventRepo,
		signalComputer: signalComputer,
		syncScheduler:  syncScheduler,
		maxBytes:       maxBytes,
		maxDepth:       maxDepth,
		logger:         logger,
	}
}

func (s *IngestService) Identify(ctx context.Context, req *domain.IdentifyRequest) (*domain.IdentifyResponse, error) {
	input, err := req.Validate(s.maxBytes, s.maxDepth)
	if err != nil {
		return nil, err
	}

	result, err := s.resolver.Resolve(ctx, req.WorkspaceID, input)
	if err != nil {
		return nil, err
	}

	response := &domain.IdentifyResponse{
		UnifiedUserID:  result.UnifiedUserID,
		IsNewUser:      result.Created,
		IdentityMerged: result.Merged,
	}

	// Retroactive linking: prior anonymous events now belong to this
	// identity. Failure here is recoverable by the maintenance backfill.
	if input.AnonymousID != "" {
		linked, err := s.eventRepo.RelinkAnonymousEvents(ctx, nil, req.WorkspaceID, input.AnonymousID, result.UnifiedUserID)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"workspace_id": req.WorkspaceID,
				"anonymous_id": input.AnonymousID,
				"error":        err.Error(),
			}).Error("failed to relink anonymous events")
		} else {
			response.EventsLinked = linked
		}
	}

	identity, err := s.identityRepo.GetByID(ctx, nil, req.WorkspaceID, result.UnifiedUserID)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("failed to reload identity after resolve")
		return response, nil
	}

	created, reason, err := s.syncScheduler.ScheduleIfNeeded(ctx, req.WorkspaceID, identity, nil)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("failed to schedule sync after identify")
		return response, nil
	}
	response.SyncJobsCreated = created
	if created > 0 {
		s.logger.WithFields(map[string]interface{}{
			"workspace_id":    req.WorkspaceID,
			"unified_user_id": result.UnifiedUserID,
			"reason":          reason,
		}).Info("sync scheduled after identify")
	}
	return response, nil
}

func (s *IngestService) Track(ctx context.Context, req *domain.TrackRequest) (*domain.TrackResponse, error) {
	event, input, err := req.Validate(s.maxBytes, s.maxDepth)
	if err != nil {
		return nil, err
	}

	event.ID = uuid.New().String()
	event.CreatedAt = time.Now().UTC()

	// Dedupe before resolving: a replayed event must not touch identity
	// state, not even last-seen bookkeeping.
	duplicate, err := s.eventRepo.Insert(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}
	if duplicate {
		return &domain.TrackResponse{Duplicate: true}, nil
	}

	result, err := s.resolver.Resolve(ctx, req.WorkspaceID, input)
	if err != nil {
		return nil, err
	}

	event.UnifiedUserID = &result.UnifiedUserID
	if err := s.eventRepo.AssignUser(ctx, req.WorkspaceID, event.ID, result.UnifiedUserID); err != nil {
		// Recoverable: the maintenance backfill relinks by anonymous id.
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": req.WorkspaceID,
			"event_id":     event.ID,
			"error":        err.Error(),
		}).Error("failed to attach event to identity")
	}

	response := &domain.TrackResponse{
		EventID:        event.ID,
		UnifiedUserID:  result.UnifiedUserID,
		IsNewUser:      result.Created,
		IdentityMerged: result.Merged,
	}

	s.processDownstream(ctx, req.WorkspaceID, result.UnifiedUserID, event)
	return response, nil
}

// processDownstream runs signal computation and sync scheduling. Failures
// leave the event pending for the maintenance pass to pick up; the caller's
// request already succeeded.
func (s *IngestService) processDownstream(ctx context.Context, workspaceID, unifiedUserID string, event *domain.Event) {
	identity, err := s.identityRepo.GetByID(ctx, nil, workspaceID, unifiedUserID)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"workspace_id":    workspaceID,
			"unified_user_id": unifiedUserID,
			"error":           err.Error(),
		}).Error("failed to load identity for signal computation")
		return
	}

	if err := s.signalComputer.ApplyEvent(ctx, identity, event); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": workspaceID,
			"event_id":     event.ID,
			"error":        err.Error(),
		}).Error("failed to apply event signals")
		return
	}

	if err := s.eventRepo.UpdateStatus(ctx, workspaceID, event.ID, domain.EventStatusProcessed); err != nil {
		s.logger.WithField("error", err.Error()).Warn("failed to mark event processed")
	}

	if _, reason, err := s.syncScheduler.ScheduleIfNeeded(ctx, workspaceID, identity, event); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": workspaceID,
			"event_id":     event.ID,
			"error":        err.Error(),
		}).Error("failed to schedule sync after event")
	} else if reason != "" {
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": workspaceID,
			"event_id":     event.ID,
			"reason":       reason,
		}).Debug("sync scheduled after event")
	}
}
