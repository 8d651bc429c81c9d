// internal/application/store/wishlist_store.go
package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/application/realtime"
	wishdom "storefront/internal/domain/wishlist"
	"storefront/internal/infra/logging"
)

const WishlistStorageName = "wishlist-storage"

// WishlistService is the authoritative wishlist path (usecase.WishlistUsecase).
type WishlistService interface {
	Get(ctx context.Context, subjectID string) (*wishdom.Wishlist, error)
	Add(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error)
	Remove(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error)
	Toggle(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error)
	Clear(ctx context.Context, subjectID string) (*wishdom.Wishlist, error)
}

// WishlistStore mirrors wishlists/{uid} with the same rules as CartStore.
type WishlistStore struct {
	m   *mirror[*wishdom.Wishlist]
	svc WishlistService
}

func NewWishlistStore(svc WishlistService, checker SubjectChecker, subs *realtime.Manager[*wishdom.Wishlist], storage LocalStorage, logger *zap.Logger) *WishlistStore {
	return &WishlistStore{
		svc: svc,
		m: &mirror[*wishdom.Wishlist]{
			storageName: WishlistStorageName,
			docPath:     wishdom.DocPath,
			empty:       wishdom.New,
			clone:       func(w *wishdom.Wishlist) *wishdom.Wishlist { return w.Clone() },
			stamp: func(w *wishdom.Wishlist) time.Time {
				if w == nil {
					return time.Time{}
				}
				return w.UpdatedAt
			},
			setStamp: func(w *wishdom.Wishlist, t time.Time) *wishdom.Wishlist {
				w.UpdatedAt = t
				return w
			},
			subs:    subs,
			storage: storage,
			checker: checker,
			logger:  logging.OrNop(logger).Named("wishlist_store"),
		},
	}
}

func (s *WishlistStore) Load(ctx context.Context, subjectID string) error {
	return s.m.load(ctx, subjectID, s.svc.Get)
}

func (s *WishlistStore) Restore(ctx context.Context) (bool, error) { return s.m.restore(ctx) }

func (s *WishlistStore) Add(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error) {
	return s.m.write(ctx, subjectID, func(ctx context.Context, uid string) (*wishdom.Wishlist, error) {
		return s.svc.Add(ctx, uid, productID)
	})
}

func (s *WishlistStore) Remove(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error) {
	return s.m.write(ctx, subjectID, func(ctx context.Context, uid string) (*wishdom.Wishlist, error) {
		return s.svc.Remove(ctx, uid, productID)
	})
}

func (s *WishlistStore) Toggle(ctx context.Context, subjectID, productID string) (*wishdom.Wishlist, error) {
	return s.m.write(ctx, subjectID, func(ctx context.Context, uid string) (*wishdom.Wishlist, error) {
		return s.svc.Toggle(ctx, uid, productID)
	})
}

func (s *WishlistStore) Clear(ctx context.Context, subjectID string) (*wishdom.Wishlist, error) {
	return s.m.write(ctx, subjectID, s.svc.Clear)
}

func (s *WishlistStore) Reset(ctx context.Context) { s.m.reset(ctx) }

func (s *WishlistStore) OnChange(fn func(*wishdom.Wishlist)) { s.m.observe(fn) }

func (s *WishlistStore) Wishlist() *wishdom.Wishlist {
	if w, ok := s.m.snapshot(); ok {
		return w
	}
	subject, _, _ := s.m.status()
	return wishdom.New(subject)
}

func (s *WishlistStore) Contains(productID string) bool { return s.Wishlist().Contains(productID) }

func (s *WishlistStore) Len() int { return len(s.Wishlist().Items) }

func (s *WishlistStore) Provisional() bool {
	_, p, _ := s.m.status()
	return p
}

func (s *WishlistStore) Err() error {
	_, _, err := s.m.status()
	return err
}
