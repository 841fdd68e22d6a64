package service

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/signalforge/signalforge/internal/domain"
)

// APIKeyService verifies raw API keys against a static, config-provided key
// set. Keys map to a scope list ("track|identify" style).
type APIKeyService struct {
	keys map[string][]string
}

// NewAPIKeyService creates a verifier from the configured key-to-scopes map.
func NewAPIKeyService(keys map[string]string) *APIKeyService {
	parsed := make(map[string][]string, len(keys))
	for key, rawScopes := range keys {
		var scopes []string
		for _, scope := range strings.Split(rawScopes, "|") {
			scope = strings.TrimSpace(scope)
			if scope != "" {
				scopes = append(scopes, scope)
			}
		}
		parsed[key] = scopes
	}
	return &APIKeyService{keys: parsed}
}

func (s *APIKeyService) VerifyKey(ctx context.Context, rawKey string) (*domain.APIKeyGrant, error) {
	if rawKey == "" {
		return nil, domain.NewValidationError("missing API key")
	}

	// Constant-time comparison over every configured key; the key set is
	// small so the scan cost is negligible.
	for key, scopes := range s.keys {
		if len(key) == len(rawKey) && subtle.ConstantTimeCompare([]byte(key), []byte(rawKey)) == 1 {
			return &domain.APIKeyGrant{Scopes: scopes}, nil
		}
	}
	return nil, domain.NewValidationError("invalid API key")
}
