// Package memory implements the system of record in process memory with the
// same transactional and push contract as the document store. It backs tests
// and the STORE_BACKEND=memory dev mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/application/realtime"
	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/common"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
	"storefront/internal/domain/user"
	wishdom "storefront/internal/domain/wishlist"
)

// Store holds every collection behind one lock, so each write is atomic.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	lastWrite time.Time

	users     map[string]user.Record
	products  map[string]productdom.Product
	orders    map[string]orderdom.Order
	carts     map[string]*cartdom.Cart
	wishlists map[string]*wishdom.Wishlist

	cartHub *realtime.Hub[*cartdom.Cart]
	wishHub *realtime.Hub[*wishdom.Wishlist]
	userHub *realtime.Hub[user.Record]

	// failPlace, when set, aborts Place before any write.
	failPlace error
}

// New creates an empty store.
func New() *Store {
	s := &Store{
		now:       time.Now,
		users:     map[string]user.Record{},
		products:  map[string]productdom.Product{},
		orders:    map[string]orderdom.Order{},
		carts:     map[string]*cartdom.Cart{},
		wishlists: map[string]*wishdom.Wishlist{},
		cartHub:   realtime.NewHub[*cartdom.Cart](),
		wishHub:   realtime.NewHub[*wishdom.Wishlist](),
		userHub:   realtime.NewHub[user.Record](),
	}
	s.cartHub.Current = s.currentCart
	s.wishHub.Current = s.currentWishlist
	s.userHub.Current = s.currentUser
	return s
}

// WithClock replaces the write clock. Tests only.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// FailPlace makes the next Place calls abort with err (nil restores normal behavior).
func (s *Store) FailPlace(err error) {
	s.mu.Lock()
	s.failPlace = err
	s.mu.Unlock()
}

// tick returns a strictly increasing write time. Callers hold s.mu.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.lastWrite) {
		t = s.lastWrite.Add(time.Microsecond)
	}
	s.lastWrite = t
	return t
}

// =======================
// Views
// =======================

func (s *Store) Users() *Users         { return &Users{s: s} }
func (s *Store) Products() *Products   { return &Products{s: s} }
func (s *Store) Orders() *Orders       { return &Orders{s: s} }
func (s *Store) Carts() *Carts         { return &Carts{s: s} }
func (s *Store) Wishlists() *Wishlists { return &Wishlists{s: s} }

// CartSource pushes carts/{uid} snapshots.
func (s *Store) CartSource() realtime.Source[*cartdom.Cart] { return s.cartHub }

// WishlistSource pushes wishlists/{uid} snapshots.
func (s *Store) WishlistSource() realtime.Source[*wishdom.Wishlist] { return s.wishHub }

// UserSource pushes users/{uid} snapshots.
func (s *Store) UserSource() realtime.Source[user.Record] { return s.userHub }

// CartHub exposes the hub for tests that inject pushes or failures.
func (s *Store) CartHub() *realtime.Hub[*cartdom.Cart] { return s.cartHub }

func (s *Store) WishlistHub() *realtime.Hub[*wishdom.Wishlist] { return s.wishHub }

func (s *Store) UserHub() *realtime.Hub[user.Record] { return s.userHub }

func idFromKey(key, collection string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), collection+"/")
}

func (s *Store) currentCart(key string) realtime.Snapshot[*cartdom.Cart] {
	uid := idFromKey(key, cartdom.Collection)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[uid]
	if !ok {
		return realtime.Snapshot[*cartdom.Cart]{Key: key, UpdateTime: s.lastWrite}
	}
	return realtime.Snapshot[*cartdom.Cart]{Key: key, Exists: true, Value: c.Clone(), UpdateTime: c.UpdatedAt}
}

func (s *Store) currentWishlist(key string) realtime.Snapshot[*wishdom.Wishlist] {
	uid := idFromKey(key, wishdom.Collection)
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wishlists[uid]
	if !ok {
		return realtime.Snapshot[*wishdom.Wishlist]{Key: key, UpdateTime: s.lastWrite}
	}
	return realtime.Snapshot[*wishdom.Wishlist]{Key: key, Exists: true, Value: w.Clone(), UpdateTime: w.UpdatedAt}
}

func (s *Store) currentUser(key string) realtime.Snapshot[user.Record] {
	uid := idFromKey(key, user.Collection)
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.users[uid]
	return realtime.Snapshot[user.Record]{Key: key, Exists: ok, Value: r, UpdateTime: s.lastWrite}
}

// =======================
// users
// =======================

type Users struct{ s *Store }

func (r *Users) GetByID(_ context.Context, uid string) (user.Record, error) {
	uid = strings.TrimSpace(uid)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.users[uid]
	if !ok {
		return user.Record{}, common.ErrNotFound
	}
	rec.UID = uid
	return rec, nil
}

// Put creates or replaces users/{uid} and pushes it to watchers.
func (r *Users) Put(_ context.Context, rec user.Record) error {
	rec = rec.Normalize()
	if rec.UID == "" {
		return common.NewValidationError("uid", "required")
	}
	r.s.mu.Lock()
	r.s.users[rec.UID] = rec
	t := r.s.tick()
	r.s.mu.Unlock()

	r.s.userHub.Publish(user.DocPath(rec.UID), realtime.Snapshot[user.Record]{Exists: true, Value: rec, UpdateTime: t})
	return nil
}

func (r *Users) SetRole(ctx context.Context, uid string, role user.Role) error {
	if !user.IsValidRole(role) {
		return common.NewValidationError("role", "unknown role")
	}
	rec, err := r.GetByID(ctx, uid)
	if err != nil {
		return err
	}
	rec.Role = role
	return r.Put(ctx, rec)
}

// =======================
// products
// =======================

type Products struct{ s *Store }

func (r *Products) GetByID(_ context.Context, id string) (productdom.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[strings.TrimSpace(id)]
	if !ok {
		return productdom.Product{}, common.ErrNotFound
	}
	return p, nil
}

func (r *Products) Create(_ context.Context, p productdom.Product) (productdom.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; ok {
		return productdom.Product{}, common.NewValidationError("id", "already exists")
	}
	r.s.products[p.ID] = p
	return p, nil
}

func (r *Products) Update(_ context.Context, id string, mutate func(*productdom.Product) error) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[id]
	if !ok {
		return productdom.Product{}, common.ErrNotFound
	}
	next := cur
	if err := mutate(&next); err != nil {
		return productdom.Product{}, err
	}
	next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
	r.s.products[id] = next
	return next, nil
}

// =======================
// orders
// =======================

type Orders struct{ s *Store }

// Place checks and decrements stock and creates the order under one lock.
func (r *Orders) Place(_ context.Context, in orderdom.PlaceInput) (orderdom.PlaceResult, error) {
	o := in.Order
	qty := o.Quantities()

	r.s.mu.Lock()
	if r.s.failPlace != nil {
		err := r.s.failPlace
		r.s.mu.Unlock()
		return orderdom.PlaceResult{}, &common.TransactionError{Err: err}
	}
	if _, dup := r.s.orders[o.ID]; dup {
		r.s.mu.Unlock()
		return orderdom.PlaceResult{}, &common.TransactionError{Err: common.NewValidationError("id", "already exists")}
	}

	// check everything before writing anything
	ids := make([]string, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p, ok := r.s.products[id]
		if !ok || !p.Active {
			r.s.mu.Unlock()
			return orderdom.PlaceResult{}, &common.OutOfStockError{ProductID: id, Requested: qty[id], Available: 0}
		}
		if p.QuantityAvailable < qty[id] {
			r.s.mu.Unlock()
			return orderdom.PlaceResult{}, &common.OutOfStockError{ProductID: id, Requested: qty[id], Available: p.QuantityAvailable}
		}
	}

	t := r.s.tick()
	updated := make([]productdom.Product, 0, len(ids))
	for _, id := range ids {
		p := r.s.products[id]
		p.QuantityAvailable -= qty[id]
		p.UpdatedAt = t
		r.s.products[id] = p
		updated = append(updated, p)
	}
	r.s.orders[o.ID] = o

	var consumed *cartdom.Cart
	if uid := strings.TrimSpace(in.ConsumeCartOf); uid != "" {
		consumed = cartdom.New(uid)
		if cur, ok := r.s.carts[uid]; ok {
			consumed = cur.Clone()
		}
		consumed.Consume(qty)
		consumed.UpdatedAt = t
		r.s.carts[uid] = consumed.Clone()
	}
	r.s.mu.Unlock()

	if consumed != nil {
		r.s.cartHub.Publish(cartdom.DocPath(consumed.UserID), realtime.Snapshot[*cartdom.Cart]{Exists: true, Value: consumed, UpdateTime: t})
	}
	return orderdom.PlaceResult{Order: o, Products: updated}, nil
}

func (r *Orders) GetByID(_ context.Context, id string) (orderdom.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[strings.TrimSpace(id)]
	if !ok {
		return orderdom.Order{}, common.ErrNotFound
	}
	return o, nil
}

// ListByUser returns userID's orders newest first.
func (r *Orders) ListByUser(_ context.Context, userID string, limit int) ([]orderdom.Order, error) {
	r.s.mu.RLock()
	out := make([]orderdom.Order, 0)
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Orders) UpdateStatus(_ context.Context, id string, to orderdom.Status) (orderdom.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[strings.TrimSpace(id)]
	if !ok {
		return orderdom.Order{}, common.ErrNotFound
	}
	if !orderdom.CanTransition(o.Status, to) {
		return orderdom.Order{}, orderdom.TransitionError(o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = r.s.tick()
	r.s.orders[o.ID] = o
	return o, nil
}

// =======================
// carts
// =======================

type Carts struct{ s *Store }

func (r *Carts) Get(_ context.Context, userID string) (*cartdom.Cart, error) {
	uid := strings.TrimSpace(userID)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.carts[uid]; ok {
		return c.Clone(), nil
	}
	return cartdom.New(uid), nil
}

func (r *Carts) Mutate(_ context.Context, userID string, fn func(c *cartdom.Cart) error) (*cartdom.Cart, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, cartdom.ErrInvalidCart
	}

	r.s.mu.Lock()
	c := cartdom.New(uid)
	if cur, ok := r.s.carts[uid]; ok {
		c = cur.Clone()
	}
	if err := fn(c); err != nil {
		r.s.mu.Unlock()
		return nil, err
	}
	c.UpdatedAt = r.s.tick()
	r.s.carts[uid] = c.Clone()
	r.s.mu.Unlock()

	r.s.cartHub.Publish(cartdom.DocPath(uid), realtime.Snapshot[*cartdom.Cart]{Exists: true, Value: c.Clone(), UpdateTime: c.UpdatedAt})
	return c, nil
}

// =======================
// wishlists
// =======================

type Wishlists struct{ s *Store }

func (r *Wishlists) Get(_ context.Context, userID string) (*wishdom.Wishlist, error) {
	uid := strings.TrimSpace(userID)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if w, ok := r.s.wishlists[uid]; ok {
		return w.Clone(), nil
	}
	return wishdom.New(uid), nil
}

func (r *Wishlists) Mutate(_ context.Context, userID string, fn func(w *wishdom.Wishlist) error) (*wishdom.Wishlist, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, wishdom.ErrInvalidWishlist
	}

	r.s.mu.Lock()
	w := wishdom.New(uid)
	if cur, ok := r.s.wishlists[uid]; ok {
		w = cur.Clone()
	}
	if err := fn(w); err != nil {
		r.s.mu.Unlock()
		return nil, err
	}
	w.UpdatedAt = r.s.tick()
	r.s.wishlists[uid] = w.Clone()
	r.s.mu.Unlock()

	r.s.wishHub.Publish(wishdom.DocPath(uid), realtime.Snapshot[*wishdom.Wishlist]{Exists: true, Value: w.Clone(), UpdateTime: w.UpdatedAt})
	return w, nil
}
