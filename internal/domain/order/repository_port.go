// internal/domain/order/repository_port.go
package order

import (
	"context"

	"storefront/internal/domain/product"
)

// PlaceInput is the payload of the single atomic checkout write.
type PlaceInput struct {
	Order Order
	// ConsumeCartOf re-reads carts/{uid} in the same transaction and takes the
	// ordered quantities out of it. Lines added while checkout ran are kept.
	ConsumeCartOf string
}

// PlaceResult is what the atomic write committed.
type PlaceResult struct {
	Order Order
	// Products are the product records after the stock decrement.
	Products []product.Product
}

// Repository is the persistence port for orders/{orderId}.
//
// Place must be all-or-nothing: it re-reads every referenced product, fails with
// *common.OutOfStockError when quantityAvailable < ordered quantity (or the product
// is inactive), and otherwise creates the order and decrements stock together.
// Any other abort is reported as *common.TransactionError.
//
// UpdateStatus checks CanTransition against the stored status inside a transaction
// and fails with *common.ValidationError{Field: "status"} when it is not allowed.
type Repository interface {
	Place(ctx context.Context, in PlaceInput) (PlaceResult, error)
	GetByID(ctx context.Context, id string) (Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, to Status) (Order, error)
}

const Collection = "orders"
