package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_identity_repository.go -package mocks github.com/signalforge/signalforge/internal/domain IdentityRepository
//go:generate mockgen -destination mocks/mock_identity_resolver.go -package mocks github.com/signalforge/signalforge/internal/domain IdentityResolver

// UnifiedIdentity is the canonical customer record: one per real-world
// customer (or anonymous visitor) per workspace. Identifier sets are
// append-only; entries leave only through an explicit merge or deletion.
type UnifiedIdentity struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`

	AnonymousIDs StringList `json:"anonymous_ids"`
	Emails       StringList `json:"emails"`
	CustomerIDs  StringList `json:"customer_ids"`

	// PrimaryEmail is the canonical contact address. Once set it is never
	// cleared by normal updates; only a merge can change ownership.
	PrimaryEmail *string `json:"primary_email,omitempty"`
	// Phone is first-write-wins.
	Phone *string `json:"phone,omitempty"`

	Traits   JSONMap        `json:"traits"`
	Computed ComputedTraits `json:"computed"`

	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasEmail reports whether the identity is addressable by the destination.
func (i *UnifiedIdentity) HasEmail() bool {
	return i.PrimaryEmail != nil && *i.PrimaryEmail != ""
}

// isValidEmail checks if the email is valid
func isValidEmail(email string) bool {
	return govalidator.IsEmail(email)
}

// For database scanning
type dbUnifiedIdentity struct {
	ID           string
	WorkspaceID  string
	AnonymousIDs StringList
	Emails       StringList
	CustomerIDs  StringList
	PrimaryEmail sql.NullString
	Phone        sql.NullString
	Traits       JSONMap
	Computed     ComputedTraits
	FirstSeenAt  time.Time
	LastSeenAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScanUnifiedIdentity scans a unified identity row
func ScanUnifiedIdentity(scanner interface {
	Scan(dest ...interface{}) error
}) (*UnifiedIdentity, error) {
	var dbi dbUnifiedIdentity
	if err := scanner.Scan(
		&dbi.ID,
		&dbi.WorkspaceID,
		&dbi.AnonymousIDs,
		&dbi.Emails,
		&dbi.CustomerIDs,
		&dbi.PrimaryEmail,
		&dbi.Phone,
		&dbi.Traits,
		&dbi.Computed,
		&dbi.FirstSeenAt,
		&dbi.LastSeenAt,
		&dbi.CreatedAt,
		&dbi.UpdatedAt,
	); err != nil {
		return nil, err
	}

	identity := &UnifiedIdentity{
		ID:           dbi.ID,
		WorkspaceID:  dbi.WorkspaceID,
		AnonymousIDs: dbi.AnonymousIDs,
		Emails:       dbi.Emails,
		CustomerIDs:  dbi.CustomerIDs,
		Traits:       dbi.Traits,
		Computed:     dbi.Computed,
		FirstSeenAt:  dbi.FirstSeenAt,
		LastSeenAt:   dbi.LastSeenAt,
		CreatedAt:    dbi.CreatedAt,
		UpdatedAt:    dbi.UpdatedAt,
	}
	if dbi.PrimaryEmail.Valid {
		identity.PrimaryEmail = &dbi.PrimaryEmail.String
	}
	if dbi.Phone.Valid {
		identity.Phone = &dbi.Phone.String
	}
	return identity, nil
}

// ResolveInput is the tuple of observed identifiers for one event or
// identify call.
type ResolveInput struct {
	AnonymousID string
	Email       string
	Phone       string
	CustomerID  string
	Source      string
	Traits      JSONMap
}

// HasIdentifier reports whether at least one identifier is present.
func (in ResolveInput) HasIdentifier() bool {
	return in.AnonymousID != "" || in.Email != "" || in.CustomerID != "" || in.Phone != ""
}

// Validate checks identifier formats.
func (in ResolveInput) Validate() error {
	if !in.HasIdentifier() {
		return NewValidationError("at least one identifier is required")
	}
	if in.Email != "" && !isValidEmail(in.Email) {
		return NewValidationError("invalid email format")
	}
	return nil
}

// ResolveResult reports what the resolver did.
type ResolveResult struct {
	UnifiedUserID string
	Created       bool
	Merged        bool
	EmailPromoted bool
	// MergedFromID is the deleted loser when Merged is true.
	MergedFromID string
}

// IdentityResolver finds or creates the owning unified identity for a tuple
// of observed identifiers, merging records when evidence links them.
type IdentityResolver interface {
	Resolve(ctx context.Context, workspaceID string, input ResolveInput) (*ResolveResult, error)
}

// IdentityRepository persists unified identities. Methods accept an optional
// transaction (nil means the base connection) so the resolver can run its
// whole resolve-or-merge flow atomically.
type IdentityRepository interface {
	// WithTransaction runs fn in a transaction, rolling back on error.
	WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error

	// AcquireEmailLock takes the advisory lock serializing concurrent
	// resolutions for one (workspace, email) pair. Held until the
	// surrounding transaction ends.
	AcquireEmailLock(ctx context.Context, tx *sql.Tx, workspaceID, email string) error

	GetByID(ctx context.Context, tx *sql.Tx, workspaceID, id string) (*UnifiedIdentity, error)
	GetByAnonymousID(ctx context.Context, tx *sql.Tx, workspaceID, anonymousID string) (*UnifiedIdentity, error)
	GetByEmail(ctx context.Context, tx *sql.Tx, workspaceID, email string) (*UnifiedIdentity, error)
	GetByCustomerID(ctx context.Context, tx *sql.Tx, workspaceID, customerID string) (*UnifiedIdentity, error)

	Create(ctx context.Context, tx *sql.Tx, identity *UnifiedIdentity) error
	Update(ctx context.Context, tx *sql.Tx, identity *UnifiedIdentity) error
	// UpdateComputed persists only the computed trait bag.
	UpdateComputed(ctx context.Context, workspaceID, id string, computed ComputedTraits) error

	// Merge reassigns every event, identity link and sync job from loser to
	// winner (deleting links that would collide) and deletes the loser row.
	// Must run inside the caller's transaction.
	Merge(ctx context.Context, tx *sql.Tx, workspaceID, winnerID, loserID string) error

	Delete(ctx context.Context, workspaceID, id string) error

	// ListStale returns identities not recomputed since updatedBefore,
	// oldest first, for the periodic refresh pass.
	ListStale(ctx context.Context, workspaceID string, updatedBefore time.Time, limit int) ([]*UnifiedIdentity, error)
	// ListRecentlyUpdated returns identities touched since the given time,
	// for the opportunistic sync path.
	ListRecentlyUpdated(ctx context.Context, workspaceID string, since time.Time, limit int) ([]*UnifiedIdentity, error)
}

// IdentifyRequest is the inbound identify call body.
type IdentifyRequest struct {
	WorkspaceID string          `json:"workspace_id"`
	AnonymousID string          `json:"anonymous_id,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Traits      json.RawMessage `json:"traits,omitempty"`
}

// Validate enforces the identifier and payload-bound rules.
func (r *IdentifyRequest) Validate(maxBytes, maxDepth int) (ResolveInput, error) {
	if r.WorkspaceID == "" {
		return ResolveInput{}, NewValidationError("workspace_id is required")
	}
	if err := ValidatePropertyBag(r.Traits, maxBytes, maxDepth); err != nil {
		return ResolveInput{}, err
	}

	var traits JSONMap
	if len(r.Traits) > 0 {
		if err := json.Unmarshal(r.Traits, &traits); err != nil {
			return ResolveInput{}, NewValidationError(fmt.Sprintf("invalid traits: %v", err))
		}
	}

	input := ResolveInput{
		AnonymousID: r.AnonymousID,
		Email:       r.Email,
		Phone:       r.Phone,
		CustomerID:  r.UserID,
		Source:      "identify",
		Traits:      traits,
	}
	if err := input.Validate(); err != nil {
		return ResolveInput{}, err
	}
	return input, nil
}

// IdentifyResponse is the flat success shape callers see; internal merge,
// signal or sync failures never surface here.
type IdentifyResponse struct {
	UnifiedUserID   string `json:"unified_user_id"`
	IsNewUser       bool   `json:"is_new_user"`
	IdentityMerged  bool   `json:"identity_merged"`
	EventsLinked    int64  `json:"events_linked"`
	SyncJobsCreated int    `json:"sync_jobs_created"`
}
