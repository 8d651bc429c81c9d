// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/common"
)

var (
	ErrInvalidCart     = errors.New("cart: invalid")
	ErrInvalidQuantity = errors.New("cart: quantity must be > 0")
	ErrItemNotFound    = errors.New("cart: item not found")
)

// CartItem is one line of a cart. ID is the product id; the other fields are a
// snapshot of the product taken when the line was added.
type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Category string          `json:"category,omitempty"`
}

// LineTotal is price * quantity.
func (it CartItem) LineTotal() decimal.Decimal {
	return common.RoundMoney(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
}

// Cart represents carts/{userId}.
//   - Items keeps insertion order; a product appears at most once
//   - UpdatedAt is the authoritative write time reported by the system of record
type Cart struct {
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// New returns an empty cart for userID.
func New(userID string) *Cart {
	return &Cart{UserID: strings.TrimSpace(userID), Items: []CartItem{}}
}

// FromItems builds a cart from a stored item list, dropping lines that violate
// quantity > 0 and merging duplicate ids.
func FromItems(userID string, items []CartItem, updatedAt time.Time) *Cart {
	c := New(userID)
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" || it.Quantity <= 0 {
			continue
		}
		it.ID = id
		if idx := c.indexOf(id); idx >= 0 {
			c.Items[idx].Quantity += it.Quantity
			continue
		}
		c.Items = append(c.Items, it)
	}
	c.UpdatedAt = updatedAt
	return c
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := &Cart{UserID: c.UserID, UpdatedAt: c.UpdatedAt, Items: make([]CartItem, len(c.Items))}
	copy(cp.Items, c.Items)
	return cp
}

// Add merges qty units of item into the cart. The snapshot fields are refreshed.
func (c *Cart) Add(item CartItem, qty int) error {
	if c == nil {
		return ErrInvalidCart
	}
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return ErrInvalidCart
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	item.ID = id
	if idx := c.indexOf(id); idx >= 0 {
		item.Quantity = c.Items[idx].Quantity + qty
		c.Items[idx] = item
		return nil
	}
	item.Quantity = qty
	c.Items = append(c.Items, item)
	return nil
}

// SetQuantity sets the quantity of an existing line. qty <= 0 removes it.
func (c *Cart) SetQuantity(id string, qty int) error {
	if c == nil {
		return ErrInvalidCart
	}
	idx := c.indexOf(strings.TrimSpace(id))
	if qty <= 0 {
		if idx >= 0 {
			c.Items = append(c.Items[:idx:idx], c.Items[idx+1:]...)
		}
		return nil
	}
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items[idx].Quantity = qty
	return nil
}

// Remove drops a line. Removing an absent id is a no-op.
func (c *Cart) Remove(id string) error {
	return c.SetQuantity(id, 0)
}

// Consume takes ordered quantities out of the cart. A line drops once nothing
// of it is left; lines that were not ordered stay untouched.
func (c *Cart) Consume(ordered map[string]int) {
	if c == nil {
		return
	}
	kept := c.Items[:0:0]
	for _, it := range c.Items {
		it.Quantity -= ordered[it.ID]
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// Clear empties the cart.
func (c *Cart) Clear() {
	if c == nil {
		return
	}
	c.Items = []CartItem{}
}

// Find returns the line for id.
func (c *Cart) Find(id string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	if idx := c.indexOf(strings.TrimSpace(id)); idx >= 0 {
		return c.Items[idx], true
	}
	return CartItem{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) indexOf(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}
