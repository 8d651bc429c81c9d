package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/adapters/out/memory"
	"storefront/internal/application/auth"
	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/common"
	orderdom "storefront/internal/domain/order"
	"storefront/internal/domain/permission"
	productdom "storefront/internal/domain/product"
	"storefront/internal/domain/user"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *fakeNotifier) SendOrderConfirmation(_ context.Context, to string, o orderdom.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, to+":"+o.OrderNumber)
	return nil
}

type fakeIndexer struct {
	mu    sync.Mutex
	docs  []productdom.IndexDocument
	err   error
	panic bool
}

func (x *fakeIndexer) IndexProduct(_ context.Context, doc productdom.IndexDocument) error {
	if x.panic {
		panic("index client exploded")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err != nil {
		return x.err
	}
	x.docs = append(x.docs, doc)
	return nil
}

type fixture struct {
	store    *memory.Store
	auth     *auth.SessionValidator
	notifier *fakeNotifier
	indexer  *fakeIndexer
	carts    *CartUsecase
	products *ProductUsecase
	orders   *OrderUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	for _, r := range []user.Record{
		{UID: "admin", Email: "admin@example.com", Role: user.RoleAdmin},
		{UID: "alice", Email: "alice@example.com", Role: user.RoleCustomer},
		{UID: "bob", Email: "bob@example.com", Role: user.RoleCustomer},
		{UID: "susp", Role: user.RoleCustomer, Suspended: true},
	} {
		require.NoError(t, s.Users().Put(ctx, r))
	}

	v := auth.NewSessionValidator(s.Users(), nil, permission.Default, nil)
	f := &fixture{store: s, auth: v, notifier: &fakeNotifier{}, indexer: &fakeIndexer{}}
	f.carts = NewCartUsecase(v, s.Carts(), s.Products(), cartdom.DefaultPricing(), nil)
	f.products = NewProductUsecase(v, s.Products(), f.indexer, nil, nil)
	f.orders = NewOrderUsecase(OrderDeps{
		Auth:     v,
		Orders:   s.Orders(),
		Products: s.Products(),
		Carts:    s.Carts(),
		Notifier: f.notifier,
		Indexer:  f.indexer,
		Pricing:  cartdom.DefaultPricing(),
	})
	return f
}

func (f *fixture) seed(t *testing.T, id, price string, qty int) {
	t.Helper()
	name, desc := id, "desc "+id
	p := decimal.RequireFromString(price)
	_, err := f.products.CreateProduct(context.Background(), "admin", id, productdom.Fields{
		Name: &name, Description: &desc, Price: &p, QuantityAvailable: &qty,
	})
	require.NoError(t, err)
}

func shipTo() orderdom.ShippingAddress {
	return orderdom.ShippingAddress{FullName: "Alice", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
}

// =======================
// processOrder
// =======================

func TestProcessOrder_ConcurrentSingleUnitExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "10.00", 1)
	f.seed(t, "p2", "10.00", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, who := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, who string) {
			defer wg.Done()
			_, errs[i] = f.orders.ProcessOrder(context.Background(), who, PlaceOrderInput{
				Items:    []OrderLine{{ProductID: "p1", Quantity: 1}},
				Shipping: shipTo(),
			})
		}(i, who)
	}
	wg.Wait()

	ok, failed := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		failed++
		var te *common.TransactionError
		assert.True(t, common.IsOutOfStock(err) || errors.As(err, &te), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)

	p, err := f.store.Products().GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.QuantityAvailable)
}

func TestProcessOrder_SideEffectFailuresDoNotFailTheOrder(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "10.00", 3)
	f.notifier.err = errors.New("smtp down")
	f.indexer.panic = true

	res, err := f.orders.ProcessOrder(context.Background(), "alice", PlaceOrderInput{
		Items:    []OrderLine{{ProductID: "p1", Quantity: 2}},
		Shipping: shipTo(),
	})
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusProcessing, res.Order.Status)
	assert.NotEmpty(t, res.Order.OrderNumber)

	failed := Failed(res.Effects)
	require.Len(t, failed, 2)
	for _, o := range failed {
		var se *common.SideEffectError
		require.ErrorAs(t, o.Err, &se)
		assert.Equal(t, o.Effect, se.Effect)
	}

	stored, err := f.store.Orders().GetByID(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Order.OrderNumber, stored.OrderNumber)
}

func TestProcessOrder_EffectsSucceed(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "10.00", 3)
	f.indexer.docs = nil

	res, err := f.orders.ProcessOrder(context.Background(), "alice", PlaceOrderInput{
		Items:    []OrderLine{{ProductID: "p1", Quantity: 2}},
		Shipping: shipTo(),
	})
	require.NoError(t, err)
	assert.Empty(t, Failed(res.Effects))
	assert.Equal(t, []string{"alice@example.com:" + res.Order.OrderNumber}, f.notifier.sent)
	require.Len(t, f.indexer.docs, 1)
	assert.Equal(t, 1, f.indexer.docs[0].QuantityAvailable)
}

func TestProcessOrder_PricesServerSideAndConsumesCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "12.50", 10)
	f.seed(t, "p2", "4.00", 10)

	_, err := f.carts.AddItem(ctx, "alice", "p1", 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, "alice", "p2", 1)
	require.NoError(t, err)

	res, err := f.orders.ProcessOrder(ctx, "alice", PlaceOrderInput{Shipping: shipTo(), FromCart: true})
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, "29.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "2.32", o.Tax.StringFixed(2))
	assert.Equal(t, "5.99", o.ShippingFee.StringFixed(2))
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.Tax).Add(o.ShippingFee)))
	assert.Equal(t, "alice", o.UserID)

	c, err := f.carts.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty(), "the cart is emptied by the order write")
}

func TestProcessOrder_Validation(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "10.00", 3)

	cases := []struct {
		name  string
		in    PlaceOrderInput
		field string
	}{
		{"no items", PlaceOrderInput{Shipping: shipTo()}, "items"},
		{"empty cart", PlaceOrderInput{Shipping: shipTo(), FromCart: true}, "items"},
		{"zero quantity", PlaceOrderInput{Items: []OrderLine{{ProductID: "p1"}}, Shipping: shipTo()}, "items[0].quantity"},
		{"no shipping", PlaceOrderInput{Items: []OrderLine{{ProductID: "p1", Quantity: 1}}}, "shipping"},
		{"partial shipping", PlaceOrderInput{Items: []OrderLine{{ProductID: "p1", Quantity: 1}}, Shipping: orderdom.ShippingAddress{FullName: "A"}}, "shipping.line1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.ProcessOrder(context.Background(), "alice", tc.in)
			var ve *common.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestProcessOrder_OutOfStockPreCheck(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "10.00", 1)

	_, err := f.orders.ProcessOrder(context.Background(), "alice", PlaceOrderInput{
		Items:    []OrderLine{{ProductID: "p1", Quantity: 1}, {ProductID: "p1", Quantity: 1}},
		Shipping: shipTo(),
	})
	var oos *common.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "p1", oos.ProductID)
	assert.Equal(t, 2, oos.Requested)

	_, err = f.orders.ProcessOrder(context.Background(), "alice", PlaceOrderInput{
		Items:    []OrderLine{{ProductID: "ghost", Quantity: 1}},
		Shipping: shipTo(),
	})
	assert.True(t, common.IsOutOfStock(err))
}

func TestProcessOrder_InvalidSession(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "10.00", 1)
	in := PlaceOrderInput{Items: []OrderLine{{ProductID: "p1", Quantity: 1}}, Shipping: shipTo()}

	_, err := f.orders.ProcessOrder(context.Background(), "susp", in)
	var ise *common.InvalidSessionError
	require.ErrorAs(t, err, &ise)
	assert.ErrorIs(t, err, common.ErrAccountSuspended)

	_, err = f.orders.ProcessOrder(context.Background(), "", in)
	require.ErrorAs(t, err, &ise)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestProcessOrder_TransactionFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", "10.00", 1)
	f.store.FailPlace(errors.New("aborted"))

	_, err := f.orders.ProcessOrder(context.Background(), "alice", PlaceOrderInput{
		Items: []OrderLine{{ProductID: "p1", Quantity: 1}}, Shipping: shipTo(),
	})
	var te *common.TransactionError
	require.ErrorAs(t, err, &te)

	p, _ := f.store.Products().GetByID(context.Background(), "p1")
	assert.Equal(t, 1, p.QuantityAvailable)
}

// =======================
// order administration
// =======================

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "10.00", 5)
	res, err := f.orders.ProcessOrder(ctx, "alice", PlaceOrderInput{
		Items: []OrderLine{{ProductID: "p1", Quantity: 1}}, Shipping: shipTo(),
	})
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(ctx, "alice", res.Order.ID, orderdom.StatusShipped)
	assert.True(t, common.IsPermissionDenied(err))

	o, err := f.orders.UpdateOrderStatus(ctx, "admin", res.Order.ID, "Shipped")
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusShipped, o.Status)

	_, err = f.orders.UpdateOrderStatus(ctx, "admin", res.Order.ID, orderdom.StatusCancelled)
	assert.True(t, common.IsValidation(err))

	_, err = f.orders.UpdateOrderStatus(ctx, "admin", res.Order.ID, "lost")
	assert.True(t, common.IsValidation(err))
}

func TestGetOrder_OwnerOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "10.00", 5)
	res, err := f.orders.ProcessOrder(ctx, "alice", PlaceOrderInput{
		Items: []OrderLine{{ProductID: "p1", Quantity: 1}}, Shipping: shipTo(),
	})
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, "alice", res.Order.ID)
	require.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, "admin", res.Order.ID)
	require.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, "bob", res.Order.ID)
	assert.True(t, common.IsPermissionDenied(err), "a denial is explicit, never an empty result")

	list, err := f.orders.ListOrders(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = f.orders.ListOrders(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// =======================
// products
// =======================

func TestCreateProduct_CustomerDeniedAfterOtherRoleCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// populates the cache for (alice, customer)
	_, err := f.auth.CheckRole(ctx, "alice", user.RoleCustomer)
	require.NoError(t, err)

	name, desc, price := "n", "d", decimal.NewFromInt(1)
	for i := 0; i < 2; i++ {
		_, err = f.products.CreateProduct(ctx, "alice", "", productdom.Fields{Name: &name, Description: &desc, Price: &price})
		var pd *common.PermissionDeniedError
		require.ErrorAs(t, err, &pd)
		assert.Equal(t, &common.PermissionDeniedError{Required: "admin", Actual: "customer"}, pd)
	}
}

func TestCreateProduct_FieldValidation(t *testing.T) {
	f := newFixture(t)
	name, desc := "n", "d"
	zero := decimal.Zero
	neg := -1
	one := decimal.NewFromInt(1)

	cases := []struct {
		name  string
		f     productdom.Fields
		field string
	}{
		{"missing name", productdom.Fields{Description: &desc, Price: &one}, "name"},
		{"missing description", productdom.Fields{Name: &name, Price: &one}, "description"},
		{"missing price", productdom.Fields{Name: &name, Description: &desc}, "price"},
		{"zero price", productdom.Fields{Name: &name, Description: &desc, Price: &zero}, "price"},
		{"negative stock", productdom.Fields{Name: &name, Description: &desc, Price: &one, QuantityAvailable: &neg}, "quantityAvailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.products.CreateProduct(context.Background(), "admin", "", tc.f)
			var ve *common.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestUpdateAndDeactivateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "10.00", 5)
	f.indexer.err = errors.New("index unavailable")

	price := decimal.RequireFromString("12.00")
	res, err := f.products.UpdateProduct(ctx, "admin", "p1", productdom.Fields{Price: &price})
	require.NoError(t, err, "index failure is not a write failure")
	assert.True(t, res.Product.Price.Equal(price))
	require.Len(t, Failed(res.Effects), 1)

	res, err = f.products.DeactivateProduct(ctx, "admin", "p1")
	require.NoError(t, err)
	assert.False(t, res.Product.Active)

	_, err = f.orders.ProcessOrder(ctx, "alice", PlaceOrderInput{
		Items: []OrderLine{{ProductID: "p1", Quantity: 1}}, Shipping: shipTo(),
	})
	assert.True(t, common.IsOutOfStock(err), "inactive products cannot be ordered")

	_, err = f.products.UpdateProduct(ctx, "admin", "missing", productdom.Fields{Price: &price})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// productWriteRace runs before right ahead of the repository write, the
// window in which a checkout can commit.
type productWriteRace struct {
	productdom.Repository
	once   sync.Once
	before func()
}

func (r *productWriteRace) Update(ctx context.Context, id string, mutate func(*productdom.Product) error) (productdom.Product, error) {
	r.once.Do(r.before)
	return r.Repository.Update(ctx, id, mutate)
}

func TestUpdateProduct_KeepsStockSoldDuringTheUpdate(t *testing.T) {
	for _, tc := range []struct {
		name  string
		apply func(u *ProductUsecase) (ProductResult, error)
	}{
		{"price change", func(u *ProductUsecase) (ProductResult, error) {
			price := decimal.RequireFromString("11.00")
			return u.UpdateProduct(context.Background(), "admin", "p1", productdom.Fields{Price: &price})
		}},
		{"featured flag", func(u *ProductUsecase) (ProductResult, error) {
			featured := true
			return u.UpdateProduct(context.Background(), "admin", "p1", productdom.Fields{Featured: &featured})
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.seed(t, "p1", "10.00", 1)

			repo := &productWriteRace{Repository: f.store.Products(), before: func() {
				_, err := f.orders.ProcessOrder(ctx, "alice", PlaceOrderInput{
					Items: []OrderLine{{ProductID: "p1", Quantity: 1}}, Shipping: shipTo(),
				})
				require.NoError(t, err)
			}}
			u := NewProductUsecase(f.auth, repo, f.indexer, nil, nil)

			res, err := tc.apply(u)
			require.NoError(t, err)
			assert.Equal(t, 0, res.Product.QuantityAvailable)

			p, err := f.store.Products().GetByID(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, 0, p.QuantityAvailable, "the sold unit stays sold")

			_, err = f.orders.ProcessOrder(ctx, "bob", PlaceOrderInput{
				Items: []OrderLine{{ProductID: "p1", Quantity: 1}}, Shipping: shipTo(),
			})
			var oos *common.OutOfStockError
			require.ErrorAs(t, err, &oos)
			assert.Equal(t, 0, oos.Available)
		})
	}
}

func TestUpdateProduct_InvalidPatchWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "10.00", 3)

	neg := -1
	_, err := f.products.UpdateProduct(ctx, "admin", "p1", productdom.Fields{QuantityAvailable: &neg})
	assert.True(t, common.IsValidation(err))

	p, err := f.store.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.QuantityAvailable)
	assert.Len(t, f.indexer.docs, 1, "only the create was indexed")
}

// cartEditDuringCheckout runs edit right ahead of the atomic order write.
type cartEditDuringCheckout struct {
	orderdom.Repository
	once sync.Once
	edit func()
}

func (r *cartEditDuringCheckout) Place(ctx context.Context, in orderdom.PlaceInput) (orderdom.PlaceResult, error) {
	r.once.Do(r.edit)
	return r.Repository.Place(ctx, in)
}

func TestProcessOrder_KeepsCartLinesAddedDuringCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "10.00", 10)
	f.seed(t, "p2", "4.00", 10)

	_, err := f.carts.AddItem(ctx, "alice", "p1", 2)
	require.NoError(t, err)

	orders := &cartEditDuringCheckout{Repository: f.store.Orders(), edit: func() {
		_, err := f.carts.AddItem(ctx, "alice", "p2", 1)
		require.NoError(t, err)
		_, err = f.carts.AddItem(ctx, "alice", "p1", 1)
		require.NoError(t, err)
	}}
	u := NewOrderUsecase(OrderDeps{
		Auth:     f.auth,
		Orders:   orders,
		Products: f.store.Products(),
		Carts:    f.store.Carts(),
		Pricing:  cartdom.DefaultPricing(),
	})

	res, err := u.ProcessOrder(ctx, "alice", PlaceOrderInput{Shipping: shipTo(), FromCart: true})
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, 2, res.Order.Items[0].Quantity)

	c, err := f.carts.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, c.Items, 2, "late lines are neither ordered nor lost")
	assert.Equal(t, "p1", c.Items[0].ID)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, "p2", c.Items[1].ID)
	assert.Equal(t, 1, c.Items[1].Quantity)
}

// =======================
// cart
// =======================

func TestCart_UpdateQuantityZeroEqualsRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "10.00", 5)
	f.seed(t, "p2", "3.00", 5)

	build := func(uid string) {
		_, err := f.carts.AddItem(ctx, uid, "p1", 1)
		require.NoError(t, err)
		_, err = f.carts.AddItem(ctx, uid, "p2", 2)
		require.NoError(t, err)
	}
	build("alice")
	build("bob")

	a, err := f.carts.UpdateQuantity(ctx, "alice", "p1", 0)
	require.NoError(t, err)
	b, err := f.carts.RemoveItem(ctx, "bob", "p1")
	require.NoError(t, err)
	assert.Equal(t, a.Items, b.Items)
}

func TestCart_AddMergesAndRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "p1", "10.00", 5)

	_, err := f.carts.AddItem(ctx, "alice", "p1", 1)
	require.NoError(t, err)
	c, err := f.carts.AddItem(ctx, "alice", "p1", 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)

	_, err = f.carts.AddItem(ctx, "alice", "p1", 0)
	assert.True(t, common.IsValidation(err))
	_, err = f.carts.AddItem(ctx, "alice", "ghost", 1)
	assert.True(t, common.IsValidation(err))
	_, err = f.carts.UpdateQuantity(ctx, "alice", "ghost", 2)
	assert.True(t, common.IsValidation(err))

	_, err = f.carts.AddItem(ctx, "susp", "p1", 1)
	assert.ErrorIs(t, err, common.ErrAccountSuspended)
}
