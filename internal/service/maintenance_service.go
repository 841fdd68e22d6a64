package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/pkg/logger"
)

// Abandonment thresholds: how long a cart or checkout must sit without
// follow-on activity before it counts as abandoned.
const (
	cartAbandonAfter     = 2 * time.Hour
	checkoutAbandonAfter = 1 * time.Hour

	maintenanceBatchSize = 200
	backfillWindow       = 7 * 24 * time.Hour
	engagementWindow     = 24 * time.Hour
)

// MaintenanceReport summarizes one maintenance cycle.
type MaintenanceReport struct {
	AbandonmentsDetected int      `json:"abandonments_detected"`
	ScoresDecayed        int      `json:"scores_decayed"`
	IdentitiesRecomputed int      `json:"identities_recomputed"`
	EventsBackfilled     int64    `json:"events_backfilled"`
	EngagementsIngested  int      `json:"engagements_ingested"`
	SyncJobsScheduled    int      `json:"sync_jobs_scheduled"`
	Errors               []string `json:"errors,omitempty"`
}

// MaintenanceService runs the periodic housekeeping cycle: abandonment
// detection, decay, recompute, backfill, engagement polling and outstanding
// sync scheduling. Steps fail independently; one broken step never blocks
// the rest of the cycle.
type MaintenanceService struct {
	identityRepo    domain.IdentityRepository
	eventRepo       domain.EventRepository
	destinationRepo domain.DestinationRepository
	signalComputer  domain.SignalComputer
	syncScheduler   domain.SyncScheduler
	klaviyoClient   domain.KlaviyoClient
	logger          logger.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	identityRepo domain.IdentityRepository,
	eventRepo domain.EventRepository,
	destinationRepo domain.DestinationRepository,
	signalComputer domain.SignalComputer,
	syncScheduler domain.SyncScheduler,
	klaviyoClient domain.KlaviyoClient,
	logger logger.Logger,
) *MaintenanceService {
	return &MaintenanceService{
		identityRepo:    identityRepo,
		eventRepo:       eventRepo,
		destinationRepo: destinationRepo,
		signalComputer:  signalComputer,
		syncScheduler:   syncScheduler,
		klaviyoClient:   klaviyoClient,
		logger:          logger,
	}
}

// Start runs maintenance cycles on a fixed interval until the context is
// cancelled.
func (s *MaintenanceService) Start(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	s.logger.WithField("interval", every.String()).Info("maintenance loop started")

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance loop stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle executes one full maintenance pass across every workspace that
// has a destination configured.
func (s *MaintenanceService) RunCycle(ctx context.Context) *MaintenanceReport {
	report := &MaintenanceReport{}

	destinations, err := s.destinationRepo.List(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list destinations: %v", err))
		s.logger.WithField("error", err.Error()).Error("maintenance cycle aborted")
		return report
	}

	seen := make(map[string]bool)
	for _, destination := range destinations {
		workspaceID := destination.WorkspaceID
		if !seen[workspaceID] {
			seen[workspaceID] = true
			s.runWorkspaceSteps(ctx, workspaceID, report)
		}
		if destination.Enabled {
			s.pollEngagement(ctx, destination, report)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"abandonments": report.AbandonmentsDetected,
		"decayed":      report.ScoresDecayed,
		"recomputed":   report.IdentitiesRecomputed,
		"backfilled":   report.EventsBackfilled,
		"engagements":  report.EngagementsIngested,
		"scheduled":    report.SyncJobsScheduled,
		"errors":       len(report.Errors),
	}).Info("maintenance cycle complete")
	return report
}

func (s *MaintenanceService) runWorkspaceSteps(ctx context.Context, workspaceID string, report *MaintenanceReport) {
	// (a) abandonment detection
	for _, check := range []struct {
		eventType string
		threshold time.Duration
	}{
		{domain.EventTypeCheckout, checkoutAbandonAfter},
		{domain.EventTypeCart, cartAbandonAfter},
	} {
		n, err := s.detectAbandonments(ctx, workspaceID, check.eventType, check.threshold)
		if err != nil {
			s.stepFailed(report, workspaceID, "abandonment detection", err)
		}
		report.AbandonmentsDetected += n
	}

	// (b) score decay
	decayed, err := s.signalComputer.DecayScores(ctx, workspaceID, maintenanceBatchSize)
	if err != nil {
		s.stepFailed(report, workspaceID, "score decay", err)
	}
	report.ScoresDecayed += decayed

	// (c) stale recompute
	recomputed, err := s.signalComputer.RecomputeBatch(ctx, workspaceID, maintenanceBatchSize)
	if err != nil {
		s.stepFailed(report, workspaceID, "recompute", err)
	}
	report.IdentitiesRecomputed += recomputed

	// (d) retroactive event backfill
	backfilled, err := s.eventRepo.BackfillUnlinkedEvents(ctx, workspaceID, time.Now().UTC().Add(-backfillWindow))
	if err != nil {
		s.stepFailed(report, workspaceID, "event backfill", err)
	}
	report.EventsBackfilled += backfilled

	// (f) outstanding sync scheduling for recently-touched identities
	scheduled, err := s.scheduleOutstanding(ctx, workspaceID)
	if err != nil {
		s.stepFailed(report, workspaceID, "sync scheduling", err)
	}
	report.SyncJobsScheduled += scheduled
}

// detectAbandonments synthesizes derived abandonment events for identities
// whose cart or checkout went quiet past the threshold. The derived event
// flows through the same signal path as a tracked one.
func (s *MaintenanceService) detectAbandonments(ctx context.Context, workspaceID, eventType string, threshold time.Duration) (int, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-threshold)

	userIDs, err := s.eventRepo.ListAbandonmentCandidates(ctx, workspaceID, eventType, cutoff, maintenanceBatchSize)
	if err != nil {
		return 0, err
	}

	abandonedType := eventType + "_abandoned"
	detected := 0
	for _, userID := range userIDs {
		identity, err := s.identityRepo.GetByID(ctx, nil, workspaceID, userID)
		if err != nil {
			if !domain.IsNotFound(err) {
				s.logger.WithField("error", err.Error()).Error("failed to load abandonment candidate")
			}
			continue
		}

		userIDCopy := userID
		event := &domain.Event{
			ID:            uuid.New().String(),
			WorkspaceID:   workspaceID,
			UnifiedUserID: &userIDCopy,
			EventType:     abandonedType,
			EventName:     abandonedType,
			Properties:    domain.JSONMap{},
			EventTime:     now,
			Source:        "maintenance",
			// One abandonment verdict per user per day per funnel step.
			DedupeKey: fmt.Sprintf("%s|%s|%s", abandonedType, userID, now.Format("2006-01-02")),
			Status:    domain.EventStatusPending,
			CreatedAt: now,
		}

		duplicate, err := s.eventRepo.Insert(ctx, event)
		if err != nil {
			s.logger.WithField("error", err.Error()).Error("failed to record abandonment event")
			continue
		}
		if duplicate {
			continue
		}

		if err := s.signalComputer.ApplyEvent(ctx, identity, event); err != nil {
			s.logger.WithField("error", err.Error()).Error("failed to apply abandonment signals")
			continue
		}
		if _, _, err := s.syncScheduler.ScheduleIfNeeded(ctx, workspaceID, identity, event); err != nil {
			s.logger.WithField("error", err.Error()).Error("failed to schedule abandonment sync")
		}
		detected++
	}
	return detected, nil
}

// pollEngagement folds destination-side opens and clicks back into computed
// traits so engagement earned off-site still shapes intent.
func (s *MaintenanceService) pollEngagement(ctx context.Context, destination *domain.Destination, report *MaintenanceReport) {
	since := time.Now().UTC().Add(-engagementWindow)
	if destination.LastSyncAt != nil && destination.LastSyncAt.After(since) {
		since = *destination.LastSyncAt
	}

	engagements, err := s.klaviyoClient.ListEngagement(ctx, destination.Settings, since)
	if err != nil {
		s.stepFailed(report, destination.WorkspaceID, "engagement poll", err)
		return
	}

	kinds := map[string]string{
		"open":  domain.EventTypeEmailOpen,
		"click": domain.EventTypeEmailClick,
	}

	for _, engagement := range engagements {
		eventType, ok := kinds[engagement.Kind]
		if !ok || engagement.Email == "" {
			continue
		}

		identity, err := s.identityRepo.GetByEmail(ctx, nil, destination.WorkspaceID, engagement.Email)
		if err != nil {
			if !domain.IsNotFound(err) {
				s.logger.WithField("error", err.Error()).Error("failed to match engagement email")
			}
			continue
		}

		now := time.Now().UTC()
		event := &domain.Event{
			ID:            uuid.New().String(),
			WorkspaceID:   destination.WorkspaceID,
			UnifiedUserID: &identity.ID,
			EventType:     eventType,
			EventName:     eventType,
			Properties:    domain.JSONMap{},
			EventTime:     engagement.OccurredAt,
			Source:        "engagement_poll",
			DedupeKey:     fmt.Sprintf("%s|%s|%d", eventType, engagement.Email, engagement.OccurredAt.UnixNano()),
			Status:        domain.EventStatusPending,
			CreatedAt:     now,
		}

		duplicate, err := s.eventRepo.Insert(ctx, event)
		if err != nil || duplicate {
			continue
		}
		if err := s.signalComputer.ApplyEvent(ctx, identity, event); err != nil {
			s.logger.WithField("error", err.Error()).Error("failed to apply engagement signals")
			continue
		}
		report.EngagementsIngested++
	}
}

// scheduleOutstanding gives recently-updated identities a chance at the
// opportunistic sync path.
func (s *MaintenanceService) scheduleOutstanding(ctx context.Context, workspaceID string) (int, error) {
	identities, err := s.identityRepo.ListRecentlyUpdated(ctx, workspaceID, time.Now().UTC().Add(-opportunisticWindow), maintenanceBatchSize)
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for _, identity := range identities {
		created, _, err := s.syncScheduler.ScheduleIfNeeded(ctx, workspaceID, identity, nil)
		if err != nil {
			s.logger.WithField("error", err.Error()).Error("failed to schedule outstanding sync")
			continue
		}
		scheduled += created
	}
	return scheduled, nil
}

func (s *MaintenanceService) stepFailed(report *MaintenanceReport, workspaceID, step string, err error) {
	report.Errors = append(report.Errors, fmt.Sprintf("%s (%s): %v", step, workspaceID, err))
	s.logger.WithFields(map[string]interface{}{
		"workspace_id": workspaceID,
		"step":         step,
		"error":        err.Error(),
	}).Error("maintenance step failed")
}
