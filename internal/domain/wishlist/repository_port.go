// internal/domain/wishlist/repository_port.go
package wishlist

import "context"

// Repository is the persistence port for wishlists/{userId} -> { items: Item[] }.
// Same contract as cart.Repository: absent document reads as empty, Mutate is atomic.
type Repository interface {
	Get(ctx context.Context, userID string) (*Wishlist, error)
	Mutate(ctx context.Context, userID string, fn func(w *Wishlist) error) (*Wishlist, error)
}

const Collection = "wishlists"

// DocPath is "wishlists/{userId}".
func DocPath(userID string) string { return Collection + "/" + userID }
