// internal/adapters/out/firestore/order_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/common"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

// OrderRepositoryFS implements order.Repository on orders/{orderId}.
type OrderRepositoryFS struct {
	Client *firestore.Client
}

func NewOrderRepositoryFS(client *firestore.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

func (r *OrderRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(orderdom.Collection)
}

// Place runs the checkout as one transaction: every product is read first, all
// stock checks happen before any write, then the order is created, stock is
// decremented and (optionally) the cart is emptied.
func (r *OrderRepositoryFS) Place(ctx context.Context, in orderdom.PlaceInput) (orderdom.PlaceResult, error) {
	if r == nil || r.Client == nil {
		return orderdom.PlaceResult{}, &common.TransactionError{Err: errors.New("order_repository_fs: firestore client is nil")}
	}
	o := in.Order
	qty := o.Quantities()

	ids := make([]string, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products := r.Client.Collection(productdom.Collection)
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, products.Doc(id))
	}
	orderRef := r.col().Doc(o.ID)
	var cartRef *firestore.DocumentRef
	if uid := strings.TrimSpace(in.ConsumeCartOf); uid != "" {
		cartRef = r.Client.Collection(cartdom.Collection).Doc(uid)
	}

	var updated []productdom.Product
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = updated[:0]

		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}
		current := make([]productdom.Product, len(snaps))
		for i, snap := range snaps {
			id := ids[i]
			if snap == nil || !snap.Exists() {
				return &common.OutOfStockError{ProductID: id, Requested: qty[id], Available: 0}
			}
			p := productFromData(id, snap.Data())
			if !p.Active {
				return &common.OutOfStockError{ProductID: id, Requested: qty[id], Available: 0}
			}
			if p.QuantityAvailable < qty[id] {
				return &common.OutOfStockError{ProductID: id, Requested: qty[id], Available: p.QuantityAvailable}
			}
			current[i] = p
		}

		// reads must precede writes; the cart is read here, not before checkout
		var consumed *cartdom.Cart
		if cartRef != nil {
			consumed = cartdom.New(cartRef.ID)
			snap, err := tx.Get(cartRef)
			switch {
			case err == nil:
				consumed = cartFromData(cartRef.ID, snap.Data(), snap.UpdateTime)
			case !isNotFound(err):
				return err
			}
			consumed.Consume(qty)
		}

		if err := tx.Create(orderRef, orderToDoc(o)); err != nil {
			return err
		}
		for i, p := range current {
			if err := tx.Update(refs[i], decrementStock(p, qty[p.ID], o.CreatedAt)); err != nil {
				return err
			}
			p.QuantityAvailable -= qty[p.ID]
			p.UpdatedAt = o.CreatedAt
			updated = append(updated, p)
		}
		if consumed != nil {
			if err := tx.Set(cartRef, cartToDoc(consumed, o.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var oos *common.OutOfStockError
		if errors.As(err, &oos) {
			return orderdom.PlaceResult{}, oos
		}
		return orderdom.PlaceResult{}, &common.TransactionError{Err: err}
	}
	return orderdom.PlaceResult{Order: o, Products: updated}, nil
}

func (r *OrderRepositoryFS) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return orderdom.Order{}, errors.New("order_repository_fs: firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return orderdom.Order{}, common.ErrNotFound
	}
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return orderdom.Order{}, common.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return orderFromData(id, snap.Data()), nil
}

// ListByUser returns the user's orders newest first.
func (r *OrderRepositoryFS) ListByUser(ctx context.Context, userID string, limit int) ([]orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("order_repository_fs: firestore client is nil")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return []orderdom.Order{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	it := r.col().
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	out := make([]orderdom.Order, 0, limit)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, orderFromData(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

// UpdateStatus checks the transition against the stored status in a transaction.
func (r *OrderRepositoryFS) UpdateStatus(ctx context.Context, id string, to orderdom.Status) (orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return orderdom.Order{}, errors.New("order_repository_fs: firestore client is nil")
	}
	ref := r.col().Doc(strings.TrimSpace(id))

	var out orderdom.Order
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return common.ErrNotFound
			}
			return err
		}
		o := orderFromData(ref.ID, snap.Data())
		if !orderdom.CanTransition(o.Status, to) {
			return orderdom.TransitionError(o.Status, to)
		}
		now := time.Now().UTC()
		o.Status = to
		o.UpdatedAt = now
		out = o
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(to)},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return orderdom.Order{}, err
	}
	return out, nil
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

func orderToDoc(o orderdom.Order) map[string]any {
	items := make([]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"id":       it.ID,
			"name":     it.Name,
			"price":    common.MoneyToFloat(it.Price),
			"quantity": it.Quantity,
		})
	}
	s := o.Shipping
	return map[string]any{
		"userId": o.UserID,
		"items":  items,
		"shipping": map[string]any{
			"fullName":   s.FullName,
			"line1":      s.Line1,
			"line2":      s.Line2,
			"city":       s.City,
			"state":      s.State,
			"postalCode": s.PostalCode,
			"country":    s.Country,
			"phone":      s.Phone,
		},
		"status":      string(o.Status),
		"orderNumber": o.OrderNumber,
		"subtotal":    common.MoneyToFloat(o.Subtotal),
		"tax":         common.MoneyToFloat(o.Tax),
		"shippingFee": common.MoneyToFloat(o.ShippingFee),
		"total":       common.MoneyToFloat(o.Total),
		"createdAt":   o.CreatedAt.UTC(),
		"updatedAt":   o.UpdatedAt.UTC(),
	}
}

func orderFromData(id string, raw map[string]any) orderdom.Order {
	o := orderdom.Order{
		ID:          id,
		UserID:      asString(raw["userId"]),
		Status:      orderdom.Status(strings.ToLower(asString(raw["status"]))),
		OrderNumber: asString(raw["orderNumber"]),
		Subtotal:    common.MoneyFromFloat(asFloat(raw["subtotal"])),
		Tax:         common.MoneyFromFloat(asFloat(raw["tax"])),
		ShippingFee: common.MoneyFromFloat(asFloat(raw["shippingFee"])),
		Total:       common.MoneyFromFloat(asFloat(raw["total"])),
		Items:       []orderdom.Item{},
	}
	for _, v := range asSlice(raw["items"]) {
		m := asMap(v)
		if m == nil {
			continue
		}
		o.Items = append(o.Items, orderdom.Item{
			ID:       asString(m["id"]),
			Name:     asString(m["name"]),
			Price:    common.MoneyFromFloat(asFloat(m["price"])),
			Quantity: asInt(m["quantity"]),
		})
	}
	if s := asMap(raw["shipping"]); s != nil {
		o.Shipping = orderdom.ShippingAddress{
			FullName:   asString(s["fullName"]),
			Line1:      asString(s["line1"]),
			Line2:      asString(s["line2"]),
			City:       asString(s["city"]),
			State:      asString(s["state"]),
			PostalCode: asString(s["postalCode"]),
			Country:    asString(s["country"]),
			Phone:      asString(s["phone"]),
		}
	}
	if t, ok := asTime(raw["createdAt"]); ok {
		o.CreatedAt = t
	}
	if t, ok := asTime(raw["updatedAt"]); ok {
		o.UpdatedAt = t
	}
	return o
}
