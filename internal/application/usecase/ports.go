// internal/application/usecase/ports.go
package usecase

import (
	"context"
	"time"

	orderdom "storefront/internal/domain/order"
	"storefront/internal/domain/permission"
	"storefront/internal/domain/user"
)

// Authorizer is the part of auth.SessionValidator the usecases depend on.
type Authorizer interface {
	CheckRole(ctx context.Context, subjectID string, requiredRole user.Role) (user.Record, error)
	CheckPermission(ctx context.Context, subjectID string, action permission.Action, resource permission.Resource) (user.Record, error)
	ActiveSubject(ctx context.Context, subjectID string) (user.Record, error)
}

// OrderNotifier sends the order-confirmation notification.
type OrderNotifier interface {
	SendOrderConfirmation(ctx context.Context, to string, o orderdom.Order) error
}

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
