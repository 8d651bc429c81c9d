// internal/domain/wishlist/entity.go
package wishlist

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidWishlist = errors.New("wishlist: invalid")

// Item is a saved product snapshot.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl,omitempty"`
	AddedAt  time.Time       `json:"addedAt"`
}

// Wishlist represents wishlists/{userId}.
type Wishlist struct {
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func New(userID string) *Wishlist {
	return &Wishlist{UserID: strings.TrimSpace(userID), Items: []Item{}}
}

// FromItems builds a wishlist from stored items, dropping blanks and duplicates.
func FromItems(userID string, items []Item, updatedAt time.Time) *Wishlist {
	w := New(userID)
	for _, it := range items {
		_ = w.Add(it)
	}
	w.UpdatedAt = updatedAt
	return w
}

func (w *Wishlist) Clone() *Wishlist {
	if w == nil {
		return nil
	}
	cp := &Wishlist{UserID: w.UserID, UpdatedAt: w.UpdatedAt, Items: make([]Item, len(w.Items))}
	copy(cp.Items, w.Items)
	return cp
}

// Add saves item. Adding an id that is already present is a no-op.
func (w *Wishlist) Add(item Item) error {
	if w == nil {
		return ErrInvalidWishlist
	}
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return ErrInvalidWishlist
	}
	if w.Contains(item.ID) {
		return nil
	}
	w.Items = append(w.Items, item)
	return nil
}

// Remove drops id if present.
func (w *Wishlist) Remove(id string) {
	if w == nil {
		return
	}
	id = strings.TrimSpace(id)
	for i := range w.Items {
		if w.Items[i].ID == id {
			w.Items = append(w.Items[:i:i], w.Items[i+1:]...)
			return
		}
	}
}

// Toggle adds item when absent and removes it otherwise. It reports whether the
// item is present afterwards.
func (w *Wishlist) Toggle(item Item) (bool, error) {
	if w.Contains(item.ID) {
		w.Remove(item.ID)
		return false, nil
	}
	if err := w.Add(item); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Wishlist) Contains(id string) bool {
	if w == nil {
		return false
	}
	id = strings.TrimSpace(id)
	for _, it := range w.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (w *Wishlist) Clear() {
	if w != nil {
		w.Items = []Item{}
	}
}
