package domain

import "context"

//go:generate mockgen -destination mocks/mock_api_key_verifier.go -package mocks github.com/signalforge/signalforge/internal/domain APIKeyVerifier

// API key scopes for the ingestion surface.
const (
	ScopeTrack    = "track"
	ScopeIdentify = "identify"
	ScopeCron     = "cron"
)

// APIKeyGrant is the result of a successful key verification.
type APIKeyGrant struct {
	Scopes []string
}

// HasScope reports whether the grant carries the given scope.
func (g *APIKeyGrant) HasScope(scope string) bool {
	for _, s := range g.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// APIKeyVerifier validates raw API keys. The key store itself is an
// external collaborator; only the verification contract lives here.
type APIKeyVerifier interface {
	VerifyKey(ctx context.Context, rawKey string) (*APIKeyGrant, error)
}
