// internal/adapters/in/http/middleware/fresh_session.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/application/auth"
	"storefront/internal/domain/common"
)

// FreshnessChecker is auth.SessionValidator's freshness check.
type FreshnessChecker interface {
	ValidateSessionFreshness(ctx context.Context, subjectID string, maxAge time.Duration) (auth.TokenInfo, error)
}

// RequireFreshSession rejects requests whose sign-in is older than maxAge.
// It must run after UserAuthMiddleware.
func RequireFreshSession(checker FreshnessChecker, maxAge time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := CurrentUserUID(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if _, err := checker.ValidateSessionFreshness(r.Context(), uid, maxAge); err != nil {
				if errors.Is(err, common.ErrSessionExpired) {
					writeError(w, http.StatusUnauthorized, "session_expired")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
