// internal/adapters/out/firestore/wishlist_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"storefront/internal/domain/common"
	wishdom "storefront/internal/domain/wishlist"
)

// WishlistRepositoryFS implements wishlist.Repository on wishlists/{userId}.
type WishlistRepositoryFS struct {
	Client *firestore.Client
}

func NewWishlistRepositoryFS(client *firestore.Client) *WishlistRepositoryFS {
	return &WishlistRepositoryFS{Client: client}
}

func (r *WishlistRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(wishdom.Collection)
}

func (r *WishlistRepositoryFS) Get(ctx context.Context, userID string) (*wishdom.Wishlist, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("wishlist_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, wishdom.ErrInvalidWishlist
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return wishdom.New(uid), nil
		}
		return nil, err
	}
	return wishlistFromData(uid, snap.Data(), snap.UpdateTime), nil
}

func (r *WishlistRepositoryFS) Mutate(ctx context.Context, userID string, fn func(w *wishdom.Wishlist) error) (*wishdom.Wishlist, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("wishlist_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, wishdom.ErrInvalidWishlist
	}
	ref := r.col().Doc(uid)

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		w := wishdom.New(uid)
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			w = wishlistFromData(uid, snap.Data(), snap.UpdateTime)
		case isNotFound(err):
		default:
			return err
		}
		if err := fn(w); err != nil {
			return err
		}
		return tx.Set(ref, wishlistToDoc(w, time.Now()))
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, uid)
}

func wishlistToDoc(w *wishdom.Wishlist, now time.Time) map[string]any {
	items := make([]any, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, map[string]any{
			"id":       it.ID,
			"name":     it.Name,
			"price":    common.MoneyToFloat(it.Price),
			"imageUrl": it.ImageURL,
			"addedAt":  it.AddedAt.UTC(),
		})
	}
	return map[string]any{
		"items":     items,
		"updatedAt": now.UTC(),
	}
}

func wishlistFromData(uid string, raw map[string]any, updateTime time.Time) *wishdom.Wishlist {
	var items []wishdom.Item
	for _, v := range asSlice(raw["items"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		it := wishdom.Item{
			ID:       strings.TrimSpace(asString(m["id"])),
			Name:     asString(m["name"]),
			Price:    common.MoneyFromFloat(asFloat(m["price"])),
			ImageURL: asString(m["imageUrl"]),
		}
		if t, ok := asTime(m["addedAt"]); ok {
			it.AddedAt = t
		}
		items = append(items, it)
	}
	return wishdom.FromItems(uid, items, updateTime)
}
