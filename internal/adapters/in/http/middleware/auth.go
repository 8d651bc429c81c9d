// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"storefront/internal/application/auth"
	"storefront/internal/infra/logging"
)

// FirebaseAuthClient is the firebase auth client.
type FirebaseAuthClient = fbauth.Client

// TokenVerifier verifies Firebase ID tokens. *FirebaseAuthClient satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// UserAuthMiddleware verifies "Authorization: Bearer <ID_TOKEN>" and stores
// the token metadata (uid, email, auth_time) in the request context.
type UserAuthMiddleware struct {
	Verifier TokenVerifier
	Logger   *zap.Logger
}

func (m *UserAuthMiddleware) Handler(next http.Handler) http.Handler {
	logger := logging.OrNop(m.Logger).Named("user_auth")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Verifier == nil {
			writeError(w, http.StatusServiceUnavailable, "user auth middleware not initialized")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized: missing bearer token")
			return
		}
		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized: empty bearer token")
			return
		}

		token, err := m.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "invalid uid in token")
			return
		}

		info := auth.TokenInfo{
			UID:       uid,
			AuthTime:  unixOrZero(token.AuthTime),
			IssuedAt:  unixOrZero(token.IssuedAt),
			ExpiresAt: unixOrZero(token.Expires),
		}
		if e, ok := token.Claims["email"].(string); ok {
			info.Email = strings.TrimSpace(e)
		}

		next.ServeHTTP(w, r.WithContext(auth.WithToken(r.Context(), info)))
	})
}

// CurrentUserUID returns the verified uid of the request.
func CurrentUserUID(r *http.Request) (string, bool) {
	t, ok := auth.TokenFromContext(r.Context())
	if !ok || t.UID == "" {
		return "", false
	}
	return t.UID, true
}

func unixOrZero(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
