// internal/domain/cart/repository_port.go
package cart

import "context"

// Repository is the persistence port for carts/{userId} -> { items: CartItem[] }.
//
// Get returns an empty cart (not an error) when the document is absent.
// Mutate runs fn against the current document inside one atomic read-modify-write
// and returns the stored cart with UpdatedAt set to the write time.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Mutate(ctx context.Context, userID string, fn func(c *Cart) error) (*Cart, error)
}

// Collection is the document-store collection of carts.
const Collection = "carts"

// DocPath is the resource key of a user's cart, "carts/{userId}".
func DocPath(userID string) string { return Collection + "/" + userID }
