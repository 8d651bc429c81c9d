// internal/application/usecase/order_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/common"
	orderdom "storefront/internal/domain/order"
	"storefront/internal/domain/permission"
	productdom "storefront/internal/domain/product"
	"storefront/internal/infra/logging"
	"storefront/internal/infra/metrics"
)

// Order outcome labels.
const (
	resultPlaced     = "placed"
	resultInvalid    = "invalid"
	resultDenied     = "denied"
	resultOutOfStock = "out_of_stock"
	resultFailed     = "failed"
)

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderInput is the checkout request. When Items is empty and FromCart is
// set, the subject's cart is used and emptied by the same atomic write.
type PlaceOrderInput struct {
	Items    []OrderLine              `json:"items"`
	Shipping orderdom.ShippingAddress `json:"shipping"`
	FromCart bool                     `json:"fromCart"`
}

// OrderResult separates the committed order from the auxiliary effects.
type OrderResult struct {
	Order   orderdom.Order  `json:"order"`
	Effects []EffectOutcome `json:"effects"`
}

// OrderUsecase orchestrates checkout and order administration.
type OrderUsecase struct {
	auth     Authorizer
	orders   orderdom.Repository
	products productdom.Repository
	carts    cartdom.Repository
	notifier OrderNotifier
	indexer  productdom.Indexer
	pricing  cartdom.Pricing
	metrics  *metrics.Metrics
	logger   *zap.Logger
	clock    Clock
}

type OrderDeps struct {
	Auth     Authorizer
	Orders   orderdom.Repository
	Products productdom.Repository
	Carts    cartdom.Repository
	Notifier OrderNotifier
	Indexer  productdom.Indexer
	Pricing  cartdom.Pricing
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Clock    Clock
}

func NewOrderUsecase(d OrderDeps) *OrderUsecase {
	if d.Clock == nil {
		d.Clock = systemClock{}
	}
	if d.Pricing.TaxRate.IsZero() && d.Pricing.ShippingFee.IsZero() {
		d.Pricing = cartdom.DefaultPricing()
	}
	return &OrderUsecase{
		auth:     d.Auth,
		orders:   d.Orders,
		products: d.Products,
		carts:    d.Carts,
		notifier: d.Notifier,
		indexer:  d.Indexer,
		pricing:  d.Pricing,
		metrics:  d.Metrics,
		logger:   logging.OrNop(d.Logger).Named("order_usecase"),
		clock:    d.Clock,
	}
}

// ProcessOrder places an order for subjectID.
//
//  1. the subject must exist and be active (*common.InvalidSessionError otherwise)
//     and may create orders
//  2. at least one item and a complete shipping address (*common.ValidationError)
//  3. every product is re-read; prices come from the stored records
//     (*common.OutOfStockError on shortfall)
//  4. one atomic write creates the order and decrements stock
//  5. confirmation mail and search-index sync run best-effort; their failures
//     are reported in OrderResult.Effects and never fail the call
func (u *OrderUsecase) ProcessOrder(ctx context.Context, subjectID string, in PlaceOrderInput) (res OrderResult, err error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.ProcessOrder")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sid := strings.TrimSpace(subjectID)

	// 1) session
	subject, err := u.auth.ActiveSubject(ctx, sid)
	if err != nil {
		u.metrics.OrderResult(resultDenied)
		return OrderResult{}, &common.InvalidSessionError{Err: err}
	}
	if _, err := u.auth.CheckPermission(ctx, sid, permission.ActionCreate, permission.ResourceOrders); err != nil {
		u.metrics.OrderResult(resultDenied)
		return OrderResult{}, err
	}

	// 2) shape
	lines := in.Items
	fromCart := false
	if len(lines) == 0 && in.FromCart {
		c, err := u.carts.Get(ctx, sid)
		if err != nil {
			u.metrics.OrderResult(resultFailed)
			return OrderResult{}, fmt.Errorf("order_usecase: read cart: %w", err)
		}
		for _, it := range c.Items {
			lines = append(lines, OrderLine{ProductID: it.ID, Quantity: it.Quantity})
		}
		fromCart = true
	}
	merged, err := mergeLines(lines)
	if err == nil && in.Shipping.IsZero() {
		err = common.NewValidationError("shipping", "required")
	}
	if err == nil {
		err = in.Shipping.Validate()
	}
	if err != nil {
		u.metrics.OrderResult(resultInvalid)
		return OrderResult{}, err
	}

	// 3) inventory pre-check and server-side pricing
	items, err := u.priceLines(ctx, merged)
	if err != nil {
		if common.IsOutOfStock(err) {
			u.metrics.OrderResult(resultOutOfStock)
		} else {
			u.metrics.OrderResult(resultFailed)
		}
		return OrderResult{}, err
	}

	now := u.clock.Now().UTC()
	o := u.buildOrder(sid, items, in.Shipping.Normalize(), now)
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.String("order.number", o.OrderNumber),
		attribute.Int("order.items", len(o.Items)),
	)

	// 4) atomic write
	place := orderdom.PlaceInput{Order: o}
	if fromCart {
		place.ConsumeCartOf = sid
	}
	placed, err := u.orders.Place(ctx, place)
	if err != nil {
		var te *common.TransactionError
		switch {
		case common.IsOutOfStock(err):
			u.metrics.OrderResult(resultOutOfStock)
		default:
			if !errors.As(err, &te) {
				err = &common.TransactionError{Err: err}
			}
			u.metrics.OrderResult(resultFailed)
		}
		u.logger.Info("order rejected", zap.String("subjectId", sid), zap.Error(err))
		return OrderResult{}, err
	}
	u.metrics.OrderResult(resultPlaced)
	u.logger.Info("order placed",
		zap.String("subjectId", sid),
		zap.String("orderId", placed.Order.ID),
		zap.String("orderNumber", placed.Order.OrderNumber),
		zap.String("total", placed.Order.Total.StringFixed(common.MoneyScale)),
	)

	// 5) side effects
	effects := make([]EffectOutcome, 0, 1+len(placed.Products))
	effects = append(effects, u.notify(ctx, subject.Email, placed.Order))
	for _, p := range placed.Products {
		effects = append(effects, syncIndex(ctx, u.logger, u.metrics, u.indexer, p))
	}

	return OrderResult{Order: placed.Order, Effects: effects}, nil
}

// UpdateOrderStatus moves an order along its lifecycle. Admin only.
func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, subjectID, orderID string, to orderdom.Status) (orderdom.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.UpdateOrderStatus")
	defer span.End()

	if _, err := u.auth.CheckPermission(ctx, subjectID, permission.ActionUpdate, permission.ResourceOrders); err != nil {
		return orderdom.Order{}, err
	}
	to = orderdom.Status(strings.ToLower(strings.TrimSpace(string(to))))
	if !orderdom.IsValidStatus(to) {
		return orderdom.Order{}, common.NewValidationError("status", "unknown status")
	}
	o, err := u.orders.UpdateStatus(ctx, strings.TrimSpace(orderID), to)
	if err != nil {
		return orderdom.Order{}, err
	}
	u.logger.Info("order status updated", zap.String("orderId", o.ID), zap.String("status", string(o.Status)))
	return o, nil
}

// GetOrder returns an order readable by its owner or an admin.
func (u *OrderUsecase) GetOrder(ctx context.Context, subjectID, orderID string) (orderdom.Order, error) {
	rec, err := u.auth.CheckPermission(ctx, subjectID, permission.ActionRead, permission.ResourceOrders)
	if err != nil {
		return orderdom.Order{}, err
	}
	o, err := u.orders.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return orderdom.Order{}, err
	}
	if o.UserID != rec.UID && !permission.CanReadAnyOrder(rec.Role) {
		return orderdom.Order{}, &common.PermissionDeniedError{Required: "owner", Actual: string(rec.Role)}
	}
	return o, nil
}

// ListOrders lists the subject's own orders, newest first.
func (u *OrderUsecase) ListOrders(ctx context.Context, subjectID string, limit int) ([]orderdom.Order, error) {
	rec, err := u.auth.CheckPermission(ctx, subjectID, permission.ActionRead, permission.ResourceOrders)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return u.orders.ListByUser(ctx, rec.UID, limit)
}

// =======================
// helpers
// =======================

// mergeLines folds duplicate product ids and rejects non-positive quantities.
// The order of first appearance is kept.
func mergeLines(lines []OrderLine) ([]OrderLine, error) {
	if len(lines) == 0 {
		return nil, common.NewValidationError("items", "at least one item is required")
	}
	idx := map[string]int{}
	out := make([]OrderLine, 0, len(lines))
	for i, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if id == "" {
			return nil, common.NewValidationError(fmt.Sprintf("items[%d].productId", i), "required")
		}
		if l.Quantity <= 0 {
			return nil, common.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be > 0")
		}
		if j, ok := idx[id]; ok {
			out[j].Quantity += l.Quantity
			continue
		}
		idx[id] = len(out)
		out = append(out, OrderLine{ProductID: id, Quantity: l.Quantity})
	}
	return out, nil
}

// priceLines re-reads each product. This is advisory: Place repeats the check
// atomically.
func (u *OrderUsecase) priceLines(ctx context.Context, lines []OrderLine) ([]orderdom.Item, error) {
	items := make([]orderdom.Item, 0, len(lines))
	for _, l := range lines {
		p, err := u.products.GetByID(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, &common.OutOfStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: 0}
			}
			return nil, fmt.Errorf("order_usecase: read product %s: %w", l.ProductID, err)
		}
		if !p.CanFulfil(l.Quantity) {
			avail := p.QuantityAvailable
			if !p.Active {
				avail = 0
			}
			return nil, &common.OutOfStockError{ProductID: p.ID, Requested: l.Quantity, Available: avail}
		}
		items = append(items, orderdom.Item{ID: p.ID, Name: p.Name, Price: p.Price, Quantity: l.Quantity})
	}
	return items, nil
}

func (u *OrderUsecase) buildOrder(userID string, items []orderdom.Item, ship orderdom.ShippingAddress, now time.Time) orderdom.Order {
	lines := make([]cartdom.CartItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, cartdom.CartItem{ID: it.ID, Price: it.Price, Quantity: it.Quantity})
	}
	t := u.pricing.Compute(lines)

	return orderdom.Order{
		ID:          orderdom.NewID(),
		UserID:      userID,
		Items:       items,
		Shipping:    ship,
		Status:      orderdom.StatusProcessing,
		OrderNumber: orderdom.NewOrderNumber(now),
		Subtotal:    t.Subtotal,
		Tax:         t.Tax,
		ShippingFee: t.Shipping,
		Total:       t.GrandTotal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (u *OrderUsecase) notify(ctx context.Context, to string, o orderdom.Order) EffectOutcome {
	to = strings.TrimSpace(to)
	if u.notifier == nil || to == "" {
		return EffectOutcome{Effect: EffectOrderConfirmation, Target: o.ID, Skipped: true}
	}
	return runEffect(ctx, u.logger, u.metrics, EffectOrderConfirmation, o.ID, func(ctx context.Context) error {
		return u.notifier.SendOrderConfirmation(ctx, to, o)
	})
}
