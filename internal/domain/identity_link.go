package domain

import (
	"context"
	"database/sql"
	"time"
)

//go:generate mockgen -destination mocks/mock_identity_link_repository.go -package mocks github.com/signalforge/signalforge/internal/domain IdentityLinkRepository

// Identity link types: the kinds of evidence that can point at a unified
// identity.
const (
	IdentityTypeAnonymous  = "anonymous_id"
	IdentityTypeEmail      = "email"
	IdentityTypePhone      = "phone"
	IdentityTypeCustomerID = "customer_id"
)

// Confidence levels attached to identity evidence by capture source.
const (
	ConfidenceObserved = "observed" // seen on a tracked event
	ConfidenceDeclared = "declared" // explicitly supplied via identify
)

// IdentityLink is one evidentiary row: (workspace, type, value) pointing at
// the owning unified identity. Rows are never updated in place — merges
// repoint or delete them.
type IdentityLink struct {
	ID            string    `json:"id"`
	WorkspaceID   string    `json:"workspace_id"`
	UnifiedUserID string    `json:"unified_user_id"`
	IdentityType  string    `json:"identity_type"`
	IdentityValue string    `json:"identity_value"`
	Source        string    `json:"source"`
	Confidence    string    `json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks required link fields.
func (l *IdentityLink) Validate() error {
	if l.WorkspaceID == "" {
		return NewValidationError("workspace_id is required")
	}
	if l.UnifiedUserID == "" {
		return NewValidationError("unified_user_id is required")
	}
	switch l.IdentityType {
	case IdentityTypeAnonymous, IdentityTypeEmail, IdentityTypePhone, IdentityTypeCustomerID:
	default:
		return NewValidationError("unknown identity type: " + l.IdentityType)
	}
	if l.IdentityValue == "" {
		return NewValidationError("identity_value is required")
	}
	return nil
}

// IdentityLinkRepository persists identity evidence rows.
type IdentityLinkRepository interface {
	// Upsert inserts the link or repoints an existing (workspace, type,
	// value) row at the link's unified identity. Idempotent.
	Upsert(ctx context.Context, tx *sql.Tx, link *IdentityLink) error

	ListByUser(ctx context.Context, workspaceID, unifiedUserID string) ([]*IdentityLink, error)

	DeleteForUser(ctx context.Context, workspaceID, unifiedUserID string) error
}
