// internal/application/usecase/wishlist_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/common"
	"storefront/internal/domain/permission"
	productdom "storefront/internal/domain/product"
	wishdom "storefront/internal/domain/wishlist"
	"storefront/internal/infra/logging"
)

type WishlistUsecase struct {
	auth      Authorizer
	wishlists wishdom.Repository
	products  productdom.Repository
	now       func() time.Time
	logger    *zap.Logger
}

func NewWishlistUsecase(auth Authorizer, wishlists wishdom.Repository, products productdom.Repository, logger *zap.Logger) *WishlistUsecase {
	return &WishlistUsecase{
		auth:      auth,
		wishlists: wishlists,
		products:  products,
		now:       time.Now,
		logger:    logging.OrNop(logger).Named("wishlist_usecase"),
	}
}

func (u *WishlistUsecase) Get(ctx context.Context, subjectID string) (*wishdom.Wishlist, error) {
	sid := strings.TrimSpace(subjectID)
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionRead, permission.ResourceWishlists); err != nil {
		return nil, err
	}
	return u.wishlists.Get(ctx, sid)
}

// Add saves productID. Saving a product twice keeps a single entry.
func (u *WishlistUsecase) Add(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error) {
	sid, item, err := u.prepare(ctx, subjectID, productID)
	if err != nil {
		return nil, err
	}
	return u.wishlists.Mutate(ctx, sid, func(w *wishdom.Wishlist) error {
		return w.Add(item)
	})
}

// Toggle adds productID when absent and removes it otherwise.
func (u *WishlistUsecase) Toggle(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error) {
	sid, item, err := u.prepare(ctx, subjectID, productID)
	if err != nil {
		return nil, err
	}
	return u.wishlists.Mutate(ctx, sid, func(w *wishdom.Wishlist) error {
		_, err := w.Toggle(item)
		return err
	})
}

func (u *WishlistUsecase) Remove(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error) {
	sid := strings.TrimSpace(subjectID)
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil, common.NewValidationError("productId", "required")
	}
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionUpdate, permission.ResourceWishlists); err != nil {
		return nil, err
	}
	return u.wishlists.Mutate(ctx, sid, func(w *wishdom.Wishlist) error {
		w.Remove(pid)
		return nil
	})
}

func (u *WishlistUsecase) Clear(ctx context.Context, subjectID string) (*wishdom.Wishlist, error) {
	sid := strings.TrimSpace(subjectID)
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionDelete, permission.ResourceWishlists); err != nil {
		return nil, err
	}
	return u.wishlists.Mutate(ctx, sid, func(w *wishdom.Wishlist) error {
		w.Clear()
		return nil
	})
}

func (u *WishlistUsecase) prepare(ctx context.Context, subjectID, productID string) (string, wishdom.Item, error) {
	sid := strings.TrimSpace(subjectID)
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return "", wishdom.Item{}, common.NewValidationError("productId", "required")
	}
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionUpdate, permission.ResourceWishlists); err != nil {
		return "", wishdom.Item{}, err
	}
	p, err := u.products.GetByID(ctx, pid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", wishdom.Item{}, common.NewValidationError("productId", "unknown product")
		}
		return "", wishdom.Item{}, err
	}
	return sid, wishdom.Item{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		AddedAt:  u.now().UTC(),
	}, nil
}
