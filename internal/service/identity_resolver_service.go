package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/pkg/logger"
)

// IdentityResolverService finds or creates the unified identity owning a
// tuple of observed identifiers. The whole resolve-or-merge flow runs in one
// transaction; concurrent resolutions for the same email serialize on an
// advisory lock so two requests can never create two identities for one
// address.
type IdentityResolverService struct {
	identityRepo domain.IdentityRepository
	linkRepo     domain.IdentityLinkRepository
	logger       logger.Logger
}

// NewIdentityResolverService creates a new identity resolver
func NewIdentityResolverService(
	identityRepo domain.IdentityRepository,
	linkRepo domain.IdentityLinkRepository,
	logger logger.Logger,
) *IdentityResolverService {
	return &IdentityResolverService{
		identityRepo: identityRepo,
		linkRepo:     linkRepo,
		logger:       logger,
	}
}

func (s *IdentityResolverService) Resolve(ctx context.Context, workspaceID string, input domain.ResolveInput) (*domain.ResolveResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var result *domain.ResolveResult
	err := s.identityRepo.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		result, err = s.resolveInTx(ctx, tx, workspaceID, input)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	return result, nil
}

func (s *IdentityResolverService) resolveInTx(ctx context.Context, tx *sql.Tx, workspaceID string, input domain.ResolveInput) (*domain.ResolveResult, error) {
	if input.Email != "" {
		if err := s.identityRepo.AcquireEmailLock(ctx, tx, workspaceID, input.Email); err != nil {
			return nil, err
		}
	}

	// Lookup in decreasing strength: email, then customer id, then
	// anonymous id. The strongest match owns the tuple.
	byEmail, err := s.lookup(ctx, tx, workspaceID, input.Email, s.identityRepo.GetByEmail)
	if err != nil {
		return nil, err
	}
	byCustomerID, err := s.lookup(ctx, tx, workspaceID, input.CustomerID, s.identityRepo.GetByCustomerID)
	if err != nil {
		return nil, err
	}
	byAnonymousID, err := s.lookup(ctx, tx, workspaceID, input.AnonymousID, s.identityRepo.GetByAnonymousID)
	if err != nil {
		return nil, err
	}

	winner := byEmail
	if winner == nil {
		winner = byCustomerID
	}
	if winner == nil {
		winner = byAnonymousID
	}

	if byEmail != nil && byCustomerID != nil && byEmail.ID != byCustomerID.ID {
		// Two established identities claim the tuple through different
		// identifiers. Email is the stronger signal; the customer id is
		// left where it is rather than silently merging two customers.
		s.logger.WithFields(map[string]interface{}{
			"workspace_id":      workspaceID,
			"email_identity":    byEmail.ID,
			"customer_identity": byCustomerID.ID,
		}).Warn("conflicting identity match, email takes precedence")
	}

	result := &domain.ResolveResult{}

	if winner == nil {
		created, err := s.createIdentity(ctx, tx, workspaceID, input)
		if err != nil {
			return nil, err
		}
		winner = created
		result.Created = true
	}

	// A distinct identity matched only by anonymous id gets absorbed when
	// it carries no email of its own: it is the pre-identification shadow
	// of the same person.
	if byAnonymousID != nil && byAnonymousID.ID != winner.ID && !byAnonymousID.HasEmail() {
		winner.AnonymousIDs.Union(byAnonymousID.AnonymousIDs)
		winner.Emails.Union(byAnonymousID.Emails)
		winner.CustomerIDs.Union(byAnonymousID.CustomerIDs)
		if winner.Traits == nil {
			winner.Traits = domain.JSONMap{}
		}
		for k, v := range byAnonymousID.Traits {
			if _, exists := winner.Traits[k]; !exists {
				winner.Traits[k] = v
			}
		}
		if byAnonymousID.FirstSeenAt.Before(winner.FirstSeenAt) {
			winner.FirstSeenAt = byAnonymousID.FirstSeenAt
		}

		if err := s.identityRepo.Merge(ctx, tx, workspaceID, winner.ID, byAnonymousID.ID); err != nil {
			return nil, err
		}
		result.Merged = true
		result.MergedFromID = byAnonymousID.ID

		s.logger.WithFields(map[string]interface{}{
			"workspace_id": workspaceID,
			"winner_id":    winner.ID,
			"loser_id":     byAnonymousID.ID,
		}).Info("merged anonymous identity")
	} else if byAnonymousID != nil && byAnonymousID.ID != winner.ID {
		// Two identified customers sharing a device. Keep both.
		s.logger.WithFields(map[string]interface{}{
			"workspace_id":  workspaceID,
			"winner_id":     winner.ID,
			"anonymous_hit": byAnonymousID.ID,
		}).Warn("anonymous id matches a second identified customer, not merging")
	}

	if !result.Created {
		result.EmailPromoted = s.applyInput(winner, input)
		if err := s.identityRepo.Update(ctx, tx, winner); err != nil {
			return nil, err
		}
	}

	if err := s.recordLinks(ctx, tx, workspaceID, winner.ID, input); err != nil {
		return nil, err
	}

	result.UnifiedUserID = winner.ID
	return result, nil
}

// lookup wraps the not-found case: a missing identity is a normal outcome
// during resolution, not an error.
func (s *IdentityResolverService) lookup(
	ctx context.Context, tx *sql.Tx, workspaceID, value string,
	get func(context.Context, *sql.Tx, string, string) (*domain.UnifiedIdentity, error),
) (*domain.UnifiedIdentity, error) {
	if value == "" {
		return nil, nil
	}
	identity, err := get(ctx, tx, workspaceID, value)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return identity, nil
}

func (s *IdentityResolverService) createIdentity(ctx context.Context, tx *sql.Tx, workspaceID string, input domain.ResolveInput) (*domain.UnifiedIdentity, error) {
	now := time.Now().UTC()
	identity := &domain.UnifiedIdentity{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Traits:      domain.JSONMap{},
		FirstSeenAt: now,
		LastSeenAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.applyInput(identity, input)

	if err := s.identityRepo.Create(ctx, tx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// applyInput folds the observed identifiers and traits into the identity.
// Identifier sets only grow; primary email and phone are first-write-wins.
// Reports whether the identity gained its primary email.
func (s *IdentityResolverService) applyInput(identity *domain.UnifiedIdentity, input domain.ResolveInput) bool {
	emailPromoted := false

	if input.AnonymousID != "" {
		identity.AnonymousIDs.Append(input.AnonymousID)
	}
	if input.Email != "" {
		identity.Emails.Append(input.Email)
		if !identity.HasEmail() {
			email := input.Email
			identity.PrimaryEmail = &email
			emailPromoted = true
		}
	}
	if input.CustomerID != "" {
		identity.CustomerIDs.Append(input.CustomerID)
	}
	if input.Phone != "" && identity.Phone == nil {
		phone := input.Phone
		identity.Phone = &phone
	}

	if len(input.Traits) > 0 {
		if identity.Traits == nil {
			identity.Traits = domain.JSONMap{}
		}
		for k, v := range input.Traits {
			identity.Traits[k] = v
		}
	}

	now := time.Now().UTC()
	identity.LastSeenAt = now
	identity.UpdatedAt = now
	return emailPromoted
}

func (s *IdentityResolverService) recordLinks(ctx context.Context, tx *sql.Tx, workspaceID, unifiedUserID string, input domain.ResolveInput) error {
	confidence := domain.ConfidenceObserved
	if input.Source == "identify" {
		confidence = domain.ConfidenceDeclared
	}

	links := []struct {
		identityType string
		value        string
	}{
		{domain.IdentityTypeAnonymous, input.AnonymousID},
		{domain.IdentityTypeEmail, input.Email},
		{domain.IdentityTypePhone, input.Phone},
		{domain.IdentityTypeCustomerID, input.CustomerID},
	}

	for _, l := range links {
		if l.value == "" {
			continue
		}
		link := &domain.IdentityLink{
			ID:            uuid.New().String(),
			WorkspaceID:   workspaceID,
			UnifiedUserID: unifiedUserID,
			IdentityType:  l.identityType,
			IdentityValue: l.value,
			Source:        input.Source,
			Confidence:    confidence,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.linkRepo.Upsert(ctx, tx, link); err != nil {
			return err
		}
	}
	return nil
}
