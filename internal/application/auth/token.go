package auth

import (
	"context"
	"time"
)

// TokenInfo is the metadata of the verified ID token presented by the subject.
type TokenInfo struct {
	UID       string
	Email     string
	AuthTime  time.Time
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenCtxKey struct{}

// WithToken attaches verified token metadata to ctx.
func WithToken(ctx context.Context, t TokenInfo) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, t)
}

// TokenFromContext returns the token attached by WithToken.
func TokenFromContext(ctx context.Context) (TokenInfo, bool) {
	t, ok := ctx.Value(tokenCtxKey{}).(TokenInfo)
	return t, ok
}
