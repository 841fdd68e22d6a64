package middleware

import (
	"context"
	"net/http"

	"github.com/signalforge/signalforge/internal/domain"
)

// Key for storing the verified API key grant in context
type contextKey string

const GrantKey contextKey = "api_key_grant"

// APIKeyMiddleware authenticates requests by the X-API-Key header.
type APIKeyMiddleware struct {
	verifier domain.APIKeyVerifier
}

// NewAPIKeyMiddleware creates a new API key middleware
func NewAPIKeyMiddleware(verifier domain.APIKeyVerifier) *APIKeyMiddleware {
	return &APIKeyMiddleware{verifier: verifier}
}

// RequireScope creates a middleware that verifies the API key and checks it
// carries the given scope.
func (m *APIKeyMiddleware) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			grant, err := m.verifier.VerifyKey(r.Context(), r.Header.Get("X-API-Key"))
			if err != nil {
				http.Error(w, "Invalid or missing API key", http.StatusUnauthorized)
				return
			}
			if !grant.HasScope(scope) {
				http.Error(w, "API key lacks required scope: "+scope, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), GrantKey, grant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GrantFromContext returns the verified grant stored by RequireScope.
func GrantFromContext(ctx context.Context) (*domain.APIKeyGrant, bool) {
	grant, ok := ctx.Value(GrantKey).(*domain.APIKeyGrant)
	return grant, ok
}
