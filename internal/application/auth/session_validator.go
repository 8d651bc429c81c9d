// internal/application/auth/session_validator.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/common"
	"storefront/internal/domain/permission"
	"storefront/internal/domain/user"
	"storefront/internal/infra/logging"
)

// SessionValidator answers "may this subject do X" on every sensitive action.
// Role verdicts come from the PermissionCache; a miss re-reads users/{uid}.
type SessionValidator struct {
	users  user.Reader
	cache  *PermissionCache
	matrix permission.Matrix
	now    func() time.Time
	logger *zap.Logger
}

func NewSessionValidator(users user.Reader, cache *PermissionCache, matrix permission.Matrix, logger *zap.Logger) *SessionValidator {
	if matrix == nil {
		matrix = permission.Default
	}
	if cache == nil {
		cache = NewPermissionCache(DefaultPermissionTTL, nil, nil)
	}
	return &SessionValidator{
		users:  users,
		cache:  cache,
		matrix: matrix,
		now:    time.Now,
		logger: logging.OrNop(logger).Named("session_validator"),
	}
}

// WithClock replaces the clock used for session freshness. Tests only.
func (v *SessionValidator) WithClock(now func() time.Time) *SessionValidator {
	if now != nil {
		v.now = now
	}
	return v
}

// Cache exposes the underlying permission cache.
func (v *SessionValidator) Cache() *PermissionCache { return v.cache }

// CheckRole returns the subject's record when its role equals requiredRole.
//
// A fresh cached verdict is authoritative for the TTL window. Otherwise the
// system of record is read; suspended or deactivated accounts fail before any
// verdict is cached.
func (v *SessionValidator) CheckRole(ctx context.Context, subjectID string, requiredRole user.Role) (user.Record, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return user.Record{}, common.ErrUnauthenticated
	}

	if e, ok := v.cache.Get(subjectID, requiredRole); ok {
		if e.HasPermission {
			return e.Snapshot, nil
		}
		return user.Record{}, &common.PermissionDeniedError{Required: string(requiredRole), Actual: string(e.Snapshot.Role)}
	}

	return v.refresh(ctx, subjectID, requiredRole)
}

// CheckPermission verifies the subject's own role may perform action on resource.
// Success is a nil error; the record is returned for callers that need the
// subject's email or role.
func (v *SessionValidator) CheckPermission(ctx context.Context, subjectID string, action permission.Action, resource permission.Resource) (user.Record, error) {
	rec, err := v.ActiveSubject(ctx, subjectID)
	if err != nil {
		return user.Record{}, err
	}
	if !v.matrix.Allows(rec.Role, resource, action) {
		return user.Record{}, &common.PermissionDeniedError{
			Required: permission.Label(resource, action),
			Actual:   string(rec.Role),
		}
	}
	return rec, nil
}

// ActiveSubject confirms the subject exists and is neither suspended nor
// deactivated, returning its record. It runs CheckRole with the subject's own role.
func (v *SessionValidator) ActiveSubject(ctx context.Context, subjectID string) (user.Record, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return user.Record{}, common.ErrUnauthenticated
	}
	if e, ok := v.cache.Latest(subjectID); ok {
		return v.CheckRole(ctx, subjectID, e.Snapshot.Role)
	}
	return v.refresh(ctx, subjectID, "")
}

// ValidateSessionFreshness fails with ErrSessionExpired when the subject
// authenticated more than maxAge ago.
func (v *SessionValidator) ValidateSessionFreshness(ctx context.Context, subjectID string, maxAge time.Duration) (TokenInfo, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return TokenInfo{}, common.ErrUnauthenticated
	}
	tok, ok := TokenFromContext(ctx)
	if !ok || tok.UID != subjectID {
		return TokenInfo{}, common.ErrUnauthenticated
	}

	now := v.now()
	if !tok.ExpiresAt.IsZero() && !now.Before(tok.ExpiresAt) {
		return TokenInfo{}, common.ErrSessionExpired
	}
	if tok.AuthTime.IsZero() || now.Sub(tok.AuthTime) > maxAge {
		return TokenInfo{}, common.ErrSessionExpired
	}
	return tok, nil
}

// Invalidate drops cached verdicts of subjectID, or all of them when empty.
func (v *SessionValidator) Invalidate(subjectID string) {
	v.cache.Invalidate(subjectID)
	v.logger.Debug("permission cache invalidated", zap.String("subjectId", subjectID))
}

// refresh reads users/{uid}, enforces the account flags and stores the verdict.
// An empty requiredRole means "the subject's own role".
func (v *SessionValidator) refresh(ctx context.Context, subjectID string, requiredRole user.Role) (user.Record, error) {
	if v.users == nil {
		return user.Record{}, errors.New("session_validator: user reader is nil")
	}

	rec, err := v.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return user.Record{}, common.ErrUnauthenticated
		}
		return user.Record{}, fmt.Errorf("session_validator: read user %s: %w", subjectID, err)
	}
	rec = rec.Normalize()
	rec.UID = subjectID

	switch {
	case rec.Suspended:
		v.logger.Info("access refused: suspended", zap.String("subjectId", subjectID))
		return user.Record{}, common.ErrAccountSuspended
	case rec.Deactivated:
		v.logger.Info("access refused: deactivated", zap.String("subjectId", subjectID))
		return user.Record{}, common.ErrAccountDeactivated
	}

	if requiredRole == "" {
		requiredRole = rec.Role
	}
	has := rec.Role == requiredRole
	v.cache.Put(Entry{
		SubjectID:     subjectID,
		RequiredRole:  requiredRole,
		HasPermission: has,
		Snapshot:      rec,
	})

	if !has {
		return user.Record{}, &common.PermissionDeniedError{Required: string(requiredRole), Actual: string(rec.Role)}
	}
	return rec, nil
}
