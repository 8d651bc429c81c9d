// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/common"
)

// CartRepositoryFS implements cart.Repository.
//
// Collection design:
// - collection: carts
// - docId: userId (docId is the source of truth)
// - fields: items(array of {id, name, price, quantity, imageUrl, category}), updatedAt
type CartRepositoryFS struct {
	Client *firestore.Client
}

func NewCartRepositoryFS(client *firestore.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(cartdom.Collection)
}

// Get returns an empty cart when the document does not exist.
func (r *CartRepositoryFS) Get(ctx context.Context, userID string) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, cartdom.ErrInvalidCart
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return cartdom.New(uid), nil
		}
		return nil, err
	}
	return cartFromData(uid, snap.Data(), snap.UpdateTime), nil
}

// Mutate applies fn inside a transaction, then reads the document back so the
// returned cart carries the authoritative update time.
func (r *CartRepositoryFS) Mutate(ctx context.Context, userID string, fn func(c *cartdom.Cart) error) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, cartdom.ErrInvalidCart
	}
	ref := r.col().Doc(uid)

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		c := cartdom.New(uid)
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			c = cartFromData(uid, snap.Data(), snap.UpdateTime)
		case isNotFound(err):
		default:
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		return tx.Set(ref, cartToDoc(c, time.Now()))
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, uid)
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

func cartItemToDoc(it cartdom.CartItem) map[string]any {
	return map[string]any{
		"id":       it.ID,
		"name":     it.Name,
		"price":    common.MoneyToFloat(it.Price),
		"quantity": it.Quantity,
		"imageUrl": it.ImageURL,
		"category": it.Category,
	}
}

func cartToDoc(c *cartdom.Cart, now time.Time) map[string]any {
	items := make([]any, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemToDoc(it))
	}
	return map[string]any{
		"items":     items,
		"updatedAt": now.UTC(),
	}
}

// cartFromData parses items leniently: malformed lines are dropped and
// duplicates merged by cart.FromItems.
func cartFromData(uid string, raw map[string]any, updateTime time.Time) *cartdom.Cart {
	var items []cartdom.CartItem
	for _, v := range asSlice(raw["items"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		items = append(items, cartdom.CartItem{
			ID:       strings.TrimSpace(asString(m["id"])),
			Name:     asString(m["name"]),
			Price:    common.MoneyFromFloat(asFloat(m["price"])),
			Quantity: asInt(m["quantity"]),
			ImageURL: asString(m["imageUrl"]),
			Category: asString(m["category"]),
		})
	}
	return cartdom.FromItems(uid, items, updateTime)
}
