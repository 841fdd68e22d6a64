package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/pkg/logger"
)

// Intent score contributions per event type. Unknown types contribute
// nothing.
var intentWeights = map[string]int{
	domain.EventTypePageView:    2,
	domain.EventTypeProductView: 10,
	domain.EventTypeCart:        25,
	domain.EventTypeCheckout:    35,
	domain.EventTypeOrder:       0,
	domain.EventTypeEmailOpen:   5,
	domain.EventTypeEmailClick:  10,
}

// Decay starts after this much idle time, then removes one point per idle
// day beyond it.
const (
	decayGraceDays     = 7
	recomputeEventSpan = 500
	recomputeWorkers   = 8
)

// SignalService folds events into computed behavioral traits. Stage
// derivation is deterministic: replaying the same events yields the same
// stage regardless of processing order within a batch.
type SignalService struct {
	identityRepo domain.IdentityRepository
	eventRepo    domain.EventRepository
	logger       logger.Logger
}

// NewSignalService creates a new signal computer
func NewSignalService(
	identityRepo domain.IdentityRepository,
	eventRepo domain.EventRepository,
	logger logger.Logger,
) *SignalService {
	return &SignalService{
		identityRepo: identityRepo,
		eventRepo:    eventRepo,
		logger:       logger,
	}
}

func (s *SignalService) ApplyEvent(ctx context.Context, identity *domain.UnifiedIdentity, event *domain.Event) error {
	computed := identity.Computed

	applyEventToTraits(&computed, event)

	if err := s.identityRepo.UpdateComputed(ctx, identity.WorkspaceID, identity.ID, computed); err != nil {
		return fmt.Errorf("failed to persist computed traits: %w", err)
	}
	identity.Computed = computed
	return nil
}

// applyEventToTraits is the pure fold: one event into one trait bag.
func applyEventToTraits(c *domain.ComputedTraits, event *domain.Event) {
	c.IntentScore = domain.ClampIntentScore(c.IntentScore + intentWeights[event.EventType])

	eventTime := event.EventTime.UTC()
	switch event.EventType {
	case domain.EventTypeProductView:
		c.LastProductViewedAt = &eventTime
		c.UniqueProductsViewed++
	case domain.EventTypeCart:
		c.LastCartAt = &eventTime
		// A cart without an order is an abandonment until proven
		// otherwise; the timestamp is first-write-wins.
		if c.CartAbandonedAt == nil {
			c.CartAbandonedAt = &eventTime
		}
	case domain.EventTypeCheckout:
		if c.CheckoutAbandonedAt == nil {
			c.CheckoutAbandonedAt = &eventTime
		}
	case domain.EventTypeOrder:
		c.LastOrderAt = &eventTime
		// A purchase resolves any abandonment framing outright.
		c.CartAbandonedAt = nil
		c.CheckoutAbandonedAt = nil
	case domain.EventTypeEmailOpen:
		c.EmailOpens30d++
	case domain.EventTypeEmailClick:
		c.EmailClicks30d++
	case domain.EventTypePageView:
		c.SessionCount30d++
	case domain.EventTypeCartAbandoned:
		if c.CartAbandonedAt == nil {
			c.CartAbandonedAt = &eventTime
		}
	case domain.EventTypeCheckoutAbandoned:
		if c.CheckoutAbandonedAt == nil {
			c.CheckoutAbandonedAt = &eventTime
		}
	}

	c.DropOffStage = deriveStage(c, event)
}

// deriveStage computes the funnel stage from the post-event trait state.
// Priority: a purchase beats everything, the stage implied by the current
// event beats previously recorded abandonment, abandonment beats
// engagement, engagement beats browsing.
func deriveStage(c *domain.ComputedTraits, event *domain.Event) string {
	if event != nil {
		switch event.EventType {
		case domain.EventTypeOrder:
			return domain.StagePurchased
		case domain.EventTypeCheckout, domain.EventTypeCheckoutAbandoned:
			return domain.StageCheckoutAbandoned
		case domain.EventTypeCart, domain.EventTypeCartAbandoned:
			return domain.StageCartAbandoned
		}
	}
	if c.CheckoutAbandonedAt != nil {
		return domain.StageCheckoutAbandoned
	}
	if c.CartAbandonedAt != nil {
		return domain.StageCartAbandoned
	}
	if c.LastOrderAt != nil && c.LastCartAt == nil && c.LastProductViewedAt == nil {
		return domain.StagePurchased
	}
	if c.IntentScore >= domain.EngagedIntentMinScore {
		return domain.StageEngaged
	}
	return domain.StageBrowsing
}

// RecomputeBatch replays recent event history for stale identities. Batches
// fan out over a bounded worker pool; one failed identity does not abort the
// rest.
func (s *SignalService) RecomputeBatch(ctx context.Context, workspaceID string, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	identities, err := s.identityRepo.ListStale(ctx, workspaceID, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale identities: %w", err)
	}
	if len(identities) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeWorkers)

	done := make([]bool, len(identities))
	for i, identity := range identities {
		i, identity := i, identity
		g.Go(func() error {
			if err := s.recomputeOne(gctx, identity); err != nil {
				s.logger.WithFields(map[string]interface{}{
					"workspace_id": workspaceID,
					"identity_id":  identity.ID,
					"error":        err.Error(),
				}).Error("failed to recompute identity")
				return nil
			}
			done[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	count := 0
	for _, ok := range done {
		if ok {
			count++
		}
	}
	return count, nil
}

// recomputeOne rebuilds the trait bag from the identity's event history,
// preserving sync bookkeeping that replay cannot reproduce.
func (s *SignalService) recomputeOne(ctx context.Context, identity *domain.UnifiedIdentity) error {
	events, err := s.eventRepo.ListByUser(ctx, identity.WorkspaceID, identity.ID, recomputeEventSpan)
	if err != nil {
		return err
	}

	fresh := domain.ComputedTraits{
		Flags:          identity.Computed.Flags,
		SyncedSnapshot: identity.Computed.SyncedSnapshot,
		LastSyncedAt:   identity.Computed.LastSyncedAt,
		LastDecayAt:    identity.Computed.LastDecayAt,
		Unknown:        identity.Computed.Unknown,
	}

	// ListByUser returns newest first; replay oldest first.
	for i := len(events) - 1; i >= 0; i-- {
		applyEventToTraits(&fresh, events[i])
	}

	if err := s.identityRepo.UpdateComputed(ctx, identity.WorkspaceID, identity.ID, fresh); err != nil {
		return err
	}
	identity.Computed = fresh
	return nil
}

// DecayScores drops one intent point per idle day past the grace window for
// identities that have gone quiet.
func (s *SignalService) DecayScores(ctx context.Context, workspaceID string, limit int) (int, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-decayGraceDays * 24 * time.Hour)

	identities, err := s.identityRepo.ListStale(ctx, workspaceID, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list idle identities: %w", err)
	}

	decayed := 0
	for _, identity := range identities {
		computed := identity.Computed
		if computed.IntentScore <= domain.IntentScoreMin {
			continue
		}

		idleDays := int(now.Sub(identity.LastSeenAt).Hours() / 24)
		if idleDays <= decayGraceDays {
			continue
		}

		// Only decay points not already removed by a previous pass.
		decayFrom := identity.LastSeenAt
		if computed.LastDecayAt != nil && computed.LastDecayAt.After(decayFrom) {
			decayFrom = *computed.LastDecayAt
		}
		points := int(now.Sub(decayFrom).Hours() / 24)
		if computed.LastDecayAt == nil {
			points = idleDays - decayGraceDays
		}
		if points <= 0 {
			continue
		}

		computed.IntentScore = domain.ClampIntentScore(computed.IntentScore - points)
		computed.LastDecayAt = &now
		computed.DropOffStage = deriveStage(&computed, nil)

		if err := s.identityRepo.UpdateComputed(ctx, workspaceID, identity.ID, computed); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"workspace_id": workspaceID,
				"identity_id":  identity.ID,
				"error":        err.Error(),
			}).Error("failed to decay intent score")
			continue
		}
		decayed++
	}
	return decayed, nil
}
