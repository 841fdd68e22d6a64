package domain

import (
	"context"
)

//go:generate mockgen -destination mocks/mock_signal_computer.go -package mocks github.com/signalforge/signalforge/internal/domain SignalComputer

// SignalComputer derives behavioral traits from event history.
type SignalComputer interface {
	// ApplyEvent folds one event into the identity's computed traits and
	// persists the result. The identity's Computed field is updated in
	// place so callers see the new state.
	ApplyEvent(ctx context.Context, identity *UnifiedIdentity, event *Event) error

	// RecomputeBatch refreshes a bounded batch of stale identities,
	// returning how many were recomputed. Safe to run concurrently with
	// live ingestion.
	RecomputeBatch(ctx context.Context, workspaceID string, limit int) (int, error)

	// DecayScores lowers recency-based scores for identities not seen
	// recently, returning how many were decayed.
	DecayScores(ctx context.Context, workspaceID string, limit int) (int, error)
}
