// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/common"
	"storefront/internal/domain/permission"
	productdom "storefront/internal/domain/product"
	"storefront/internal/infra/logging"
)

// CartUsecase performs the authoritative cart mutations. Every call checks the
// subject's permission on its own carts/{uid} document before writing.
type CartUsecase struct {
	auth     Authorizer
	carts    cartdom.Repository
	products productdom.Repository
	pricing  cartdom.Pricing
	logger   *zap.Logger
}

func NewCartUsecase(auth Authorizer, carts cartdom.Repository, products productdom.Repository, pricing cartdom.Pricing, logger *zap.Logger) *CartUsecase {
	return &CartUsecase{
		auth:     auth,
		carts:    carts,
		products: products,
		pricing:  pricing,
		logger:   logging.OrNop(logger).Named("cart_usecase"),
	}
}

// Pricing returns the rules used for derived totals.
func (u *CartUsecase) Pricing() cartdom.Pricing { return u.pricing }

// Get returns the subject's cart. An absent document is an empty cart.
func (u *CartUsecase) Get(ctx context.Context, subjectID string) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(subjectID)
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionRead, permission.ResourceCarts); err != nil {
		return nil, err
	}
	return u.carts.Get(ctx, sid)
}

// AddItem adds qty units of productID, merging into an existing line. The line
// snapshot is taken from the current product record.
func (u *CartUsecase) AddItem(ctx context.Context, subjectID, productID string, qty int) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(subjectID)
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil, common.NewValidationError("productId", "required")
	}
	if qty <= 0 {
		return nil, common.NewValidationError("quantity", "must be > 0")
	}
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionUpdate, permission.ResourceCarts); err != nil {
		return nil, err
	}

	p, err := u.products.GetByID(ctx, pid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewValidationError("productId", "unknown product")
		}
		return nil, err
	}
	if !p.Active {
		return nil, &common.OutOfStockError{ProductID: p.ID, Requested: qty, Available: 0}
	}

	item := cartdom.CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Category: p.Category,
	}
	return u.carts.Mutate(ctx, sid, func(c *cartdom.Cart) error {
		return c.Add(item, qty)
	})
}

// UpdateQuantity sets the quantity of a line. qty <= 0 is RemoveItem.
func (u *CartUsecase) UpdateQuantity(ctx context.Context, subjectID, productID string, qty int) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(subjectID)
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil, common.NewValidationError("productId", "required")
	}
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionUpdate, permission.ResourceCarts); err != nil {
		return nil, err
	}

	c, err := u.carts.Mutate(ctx, sid, func(c *cartdom.Cart) error {
		return c.SetQuantity(pid, qty)
	})
	if errors.Is(err, cartdom.ErrItemNotFound) {
		return nil, common.NewValidationError("productId", "not in cart")
	}
	return c, err
}

// RemoveItem drops a line; removing an absent line is not an error.
func (u *CartUsecase) RemoveItem(ctx context.Context, subjectID, productID string) (*cartdom.Cart, error) {
	return u.UpdateQuantity(ctx, subjectID, productID, 0)
}

// Clear empties the subject's cart.
func (u *CartUsecase) Clear(ctx context.Context, subjectID string) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(subjectID)
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionDelete, permission.ResourceCarts); err != nil {
		return nil, err
	}
	return u.carts.Mutate(ctx, sid, func(c *cartdom.Cart) error {
		c.Clear()
		return nil
	})
}
