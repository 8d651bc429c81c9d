// internal/domain/common/errors.go
package common

import (
	"errors"
	"fmt"
)

// Access and session errors without parameters.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no active subject")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrSessionExpired     = errors.New("session expired: re-authentication required")
	ErrNotFound           = errors.New("not found")
)

// PermissionDeniedError is returned when the subject's role does not satisfy
// the role (or action) an operation requires.
type PermissionDeniedError struct {
	Required string
	Actual   string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: required=%s actual=%s", e.Required, e.Actual)
}

// ValidationError names the offending field of a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("validation failed: %s", e.Field)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// OutOfStockError reports a product whose available quantity cannot cover
// the requested one.
type OutOfStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: product=%s requested=%d available=%d", e.ProductID, e.Requested, e.Available)
}

// TransactionError wraps an aborted atomic write. The cause is opaque to callers.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed: %v", e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// InvalidSessionError is the order-placement form of a failed session check.
// The underlying cause (suspended, deactivated, unauthenticated...) stays reachable.
type InvalidSessionError struct {
	Err error
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("invalid session: %v", e.Err)
}

func (e *InvalidSessionError) Unwrap() error { return e.Err }

// SideEffectError records a failed best-effort step. It is never returned from
// a transaction; it only appears in an EffectOutcome.
type SideEffectError struct {
	Effect string
	Err    error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("side effect %s failed: %v", e.Effect, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

// NewValidationError is a small helper for the common "field + reason" case.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsPermissionDenied reports whether err carries a PermissionDeniedError.
func IsPermissionDenied(err error) bool {
	var pd *PermissionDeniedError
	return errors.As(err, &pd)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsOutOfStock reports whether err carries an OutOfStockError.
func IsOutOfStock(err error) bool {
	var oe *OutOfStockError
	return errors.As(err, &oe)
}
