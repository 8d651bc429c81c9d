package firestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
	"storefront/internal/domain/user"
	wishdom "storefront/internal/domain/wishlist"
)

func TestCartFromData_DropsBadLinesAndMergesDuplicates(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"items": []any{
			map[string]any{"id": "p1", "name": "Mug", "price": 12.5, "quantity": int64(2)},
			map[string]any{"id": "p1", "name": "Mug", "price": 12.5, "quantity": int64(1)},
			map[string]any{"id": "p2", "price": 3.0, "quantity": int64(0)},
			map[string]any{"id": " ", "quantity": int64(4)},
			"garbage",
		},
	}

	c := cartFromData("alice", raw, at)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p1", c.Items[0].ID)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "12.50", c.Items[0].Price.StringFixed(2))
	assert.Equal(t, at, c.UpdatedAt)
	assert.Equal(t, "alice", c.UserID)
}

func TestCartDoc_RoundTripsThroughData(t *testing.T) {
	c := cartdom.New("alice")
	require.NoError(t, c.Add(cartdom.CartItem{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("12.50")}, 2))
	doc := cartToDoc(c, time.Now())

	back := cartFromData("alice", doc, time.Time{})
	require.Len(t, back.Items, 1)
	assert.Equal(t, "p1", back.Items[0].ID)
	assert.Equal(t, "Mug", back.Items[0].Name)
	assert.Equal(t, 2, back.Items[0].Quantity)
	assert.True(t, back.Items[0].Price.Equal(c.Items[0].Price))
}

func TestCartFromData_MissingItemsIsEmpty(t *testing.T) {
	c := cartFromData("alice", map[string]any{}, time.Time{})
	assert.True(t, c.IsEmpty())
}

func TestWishlistFromData(t *testing.T) {
	added := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w := wishdom.New("bob")
	require.NoError(t, w.Add(wishdom.Item{ID: "p2", Name: "Tee", Price: decimal.NewFromInt(20), AddedAt: added}))

	back := wishlistFromData("bob", wishlistToDoc(w, time.Now()), time.Time{})
	require.Len(t, back.Items, 1)
	assert.Equal(t, added, back.Items[0].AddedAt)
	assert.True(t, back.Contains("p2"))
}

func TestProductFromData(t *testing.T) {
	created := time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)
	p := productFromData("p9", map[string]any{
		"name":              " Lamp ",
		"description":       "warm",
		"price":             19.999,
		"quantityAvailable": int64(7),
		"active":            true,
		"rating":            4.5,
		"reviewCount":       int64(12),
		"createdAt":         created,
	})

	assert.Equal(t, "p9", p.ID)
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, "20.00", p.Price.StringFixed(2))
	assert.Equal(t, 7, p.QuantityAvailable)
	assert.True(t, p.Active)
	assert.Equal(t, 12, p.ReviewCount)
	assert.Equal(t, created, p.CreatedAt)
}

func TestProductToDoc_StoresPriceAsNumber(t *testing.T) {
	doc := productToDoc(productdom.Product{ID: "p1", Price: decimal.RequireFromString("12.50")})
	assert.Equal(t, 12.5, doc["price"])
}

func TestOrderDoc_RoundTrip(t *testing.T) {
	now := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	o := orderdom.Order{
		ID:     "o1",
		UserID: "alice",
		Items: []orderdom.Item{
			{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("12.50"), Quantity: 2},
		},
		Shipping:    orderdom.ShippingAddress{FullName: "Alice", Line1: "1 Main", City: "Town", PostalCode: "12345", Country: "US"},
		Status:      orderdom.StatusProcessing,
		OrderNumber: "ORD-X-ABCDEF",
		Subtotal:    decimal.RequireFromString("25.00"),
		Tax:         decimal.RequireFromString("2.00"),
		ShippingFee: decimal.RequireFromString("5.99"),
		Total:       decimal.RequireFromString("32.99"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	back := orderFromData("o1", orderToDoc(o))
	assert.Equal(t, o.UserID, back.UserID)
	assert.Equal(t, o.Shipping, back.Shipping)
	assert.Equal(t, o.Status, back.Status)
	assert.Equal(t, o.OrderNumber, back.OrderNumber)
	assert.True(t, o.Total.Equal(back.Total))
	require.Len(t, back.Items, 1)
	assert.Equal(t, 2, back.Items[0].Quantity)
	assert.Equal(t, now, back.CreatedAt)
}

func TestUserFromData_NormalizesRole(t *testing.T) {
	rec := userFromData(map[string]any{"email": "a@b.c", "role": " Admin ", "suspended": true})
	assert.Equal(t, user.RoleAdmin, rec.Role)
	assert.True(t, rec.Suspended)
	assert.False(t, rec.Deactivated)
}

func TestDecrementStock(t *testing.T) {
	at := time.Now()
	ups := decrementStock(productdom.Product{QuantityAvailable: 5}, 2, at)
	require.Len(t, ups, 2)
	assert.Equal(t, "quantityAvailable", ups[0].Path)
	assert.Equal(t, 3, ups[0].Value)
}
