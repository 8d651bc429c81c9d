// internal/application/store/cart_store.go
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/application/realtime"
	cartdom "storefront/internal/domain/cart"
	"storefront/internal/infra/logging"
)

// CartStorageName is the fixed local-storage key of the last-known cart.
const CartStorageName = "cart-storage"

// CartService is the authoritative cart path (usecase.CartUsecase).
type CartService interface {
	Get(ctx context.Context, subjectID string) (*cartdom.Cart, error)
	AddItem(ctx context.Context, subjectID, productID string, qty int) (*cartdom.Cart, error)
	UpdateQuantity(ctx context.Context, subjectID, productID string, qty int) (*cartdom.Cart, error)
	RemoveItem(ctx context.Context, subjectID, productID string) (*cartdom.Cart, error)
	Clear(ctx context.Context, subjectID string) (*cartdom.Cart, error)
}

// CartStore is the in-memory cart of the signed-in subject.
//
// Mutations never touch local state first: they wait for the authoritative
// cart and adopt it. Pushes for carts/{uid} replace the state wholesale.
type CartStore struct {
	m       *mirror[*cartdom.Cart]
	svc     CartService
	pricing cartdom.Pricing
}

func NewCartStore(svc CartService, checker SubjectChecker, subs *realtime.Manager[*cartdom.Cart], storage LocalStorage, pricing cartdom.Pricing, logger *zap.Logger) *CartStore {
	return &CartStore{
		svc:     svc,
		pricing: pricing,
		m: &mirror[*cartdom.Cart]{
			storageName: CartStorageName,
			docPath:     cartdom.DocPath,
			empty:       cartdom.New,
			clone:       func(c *cartdom.Cart) *cartdom.Cart { return c.Clone() },
			stamp: func(c *cartdom.Cart) time.Time {
				if c == nil {
					return time.Time{}
				}
				return c.UpdatedAt
			},
			setStamp: func(c *cartdom.Cart, t time.Time) *cartdom.Cart {
				c.UpdatedAt = t
				return c
			},
			subs:    subs,
			storage: storage,
			checker: checker,
			logger:  logging.OrNop(logger).Named("cart_store"),
		},
	}
}

// Load reads the subject's cart once and subscribes to it. An empty subject is a no-op.
func (s *CartStore) Load(ctx context.Context, subjectID string) error {
	return s.m.load(ctx, subjectID, s.svc.Get)
}

// Restore installs the persisted cart as provisional state.
func (s *CartStore) Restore(ctx context.Context) (bool, error) {
	return s.m.restore(ctx)
}

func (s *CartStore) AddItem(ctx context.Context, subjectID, productID string, qty int) (*cartdom.Cart, error) {
	return s.m.write(ctx, subjectID, func(ctx context.Context, uid string) (*cartdom.Cart, error) {
		return s.svc.AddItem(ctx, uid, productID, qty)
	})
}

// UpdateQuantity with qty <= 0 is RemoveItem.
func (s *CartStore) UpdateQuantity(ctx context.Context, subjectID, productID string, qty int) (*cartdom.Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, subjectID, productID)
	}
	return s.m.write(ctx, subjectID, func(ctx context.Context, uid string) (*cartdom.Cart, error) {
		return s.svc.UpdateQuantity(ctx, uid, productID, qty)
	})
}

func (s *CartStore) RemoveItem(ctx context.Context, subjectID, productID string) (*cartdom.Cart, error) {
	return s.m.write(ctx, subjectID, func(ctx context.Context, uid string) (*cartdom.Cart, error) {
		return s.svc.RemoveItem(ctx, uid, productID)
	})
}

func (s *CartStore) Clear(ctx context.Context, subjectID string) (*cartdom.Cart, error) {
	return s.m.write(ctx, subjectID, s.svc.Clear)
}

// Reset cancels the subscription, then drops memory and persisted state.
func (s *CartStore) Reset(ctx context.Context) { s.m.reset(ctx) }

// OnChange registers fn to receive every adopted cart.
func (s *CartStore) OnChange(fn func(*cartdom.Cart)) { s.m.observe(fn) }

// =======================
// State
// =======================

// Cart returns a copy of the current cart, or an empty one before any load.
func (s *CartStore) Cart() *cartdom.Cart {
	if c, ok := s.m.snapshot(); ok {
		return c
	}
	subject, _, _ := s.m.status()
	return cartdom.New(subject)
}

func (s *CartStore) Subject() string {
	subject, _, _ := s.m.status()
	return subject
}

// Provisional reports whether the state came from local storage and has not
// yet been confirmed by a read or push.
func (s *CartStore) Provisional() bool {
	_, p, _ := s.m.status()
	return p
}

// Err is the last read or subscription error.
func (s *CartStore) Err() error {
	_, _, err := s.m.status()
	return err
}

// =======================
// Derived values
// =======================

func (s *CartStore) Totals() cartdom.Totals { return s.pricing.Compute(s.Cart().Items) }

func (s *CartStore) TotalItems() int { return cartdom.TotalItems(s.Cart().Items) }

// TotalPrice is the sum of line totals, before tax and shipping.
func (s *CartStore) TotalPrice() decimal.Decimal { return s.Subtotal() }

func (s *CartStore) Subtotal() decimal.Decimal { return s.pricing.Subtotal(s.Cart().Items) }

func (s *CartStore) Tax() decimal.Decimal { return s.Totals().Tax }

func (s *CartStore) Shipping() decimal.Decimal { return s.Totals().Shipping }

func (s *CartStore) GrandTotal() decimal.Decimal { return s.Totals().GrandTotal }
