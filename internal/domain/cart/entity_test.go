package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, price string) CartItem {
	return CartItem{ID: id, Name: "item " + id, Price: decimal.RequireFromString(price)}
}

func TestCart_AddMergesAndKeepsOrder(t *testing.T) {
	c := New(" alice ")
	assert.Equal(t, "alice", c.UserID)

	require.NoError(t, c.Add(item("p1", "12.50"), 1))
	require.NoError(t, c.Add(item("p2", "3.00"), 2))

	refreshed := item("p1", "11.00")
	refreshed.Name = "renamed"
	require.NoError(t, c.Add(refreshed, 2))

	require.Len(t, c.Items, 2)
	assert.Equal(t, "p1", c.Items[0].ID)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "renamed", c.Items[0].Name)
	assert.True(t, c.Items[0].Price.Equal(decimal.RequireFromString("11.00")))
	assert.Equal(t, "p2", c.Items[1].ID)
}

func TestCart_AddErrors(t *testing.T) {
	c := New("alice")
	assert.ErrorIs(t, c.Add(item(" ", "1.00"), 1), ErrInvalidCart)
	assert.ErrorIs(t, c.Add(item("p1", "1.00"), 0), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(item("p1", "1.00"), -2), ErrInvalidQuantity)

	var nilCart *Cart
	assert.ErrorIs(t, nilCart.Add(item("p1", "1.00"), 1), ErrInvalidCart)
	assert.True(t, c.IsEmpty())
}

func TestCart_SetQuantity(t *testing.T) {
	c := New("alice")
	require.NoError(t, c.Add(item("p1", "1.00"), 1))
	require.NoError(t, c.Add(item("p2", "1.00"), 1))

	require.NoError(t, c.SetQuantity("p1", 5))
	got, ok := c.Find("p1")
	require.True(t, ok)
	assert.Equal(t, 5, got.Quantity)

	assert.ErrorIs(t, c.SetQuantity("nope", 2), ErrItemNotFound)

	require.NoError(t, c.SetQuantity("p1", 0))
	_, ok = c.Find("p1")
	assert.False(t, ok)
	require.Len(t, c.Items, 1)

	// removing an absent line is a no-op
	require.NoError(t, c.Remove("p1"))
	require.NoError(t, c.Remove("p2"))
	assert.True(t, c.IsEmpty())
}

func TestFromItems_DropsInvalidAndMerges(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := item("p1", "2.00")
	a.Quantity = 1
	b := item("p2", "1.00")
	b.Quantity = 0
	c := item(" p1 ", "2.00")
	c.Quantity = 2
	d := item("", "1.00")
	d.Quantity = 4

	got := FromItems("alice", []CartItem{a, b, c, d}, at)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p1", got.Items[0].ID)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.True(t, got.UpdatedAt.Equal(at))
}

func TestCart_CloneIsDeep(t *testing.T) {
	c := New("alice")
	require.NoError(t, c.Add(item("p1", "1.00"), 1))

	cp := c.Clone()
	cp.Items[0].Quantity = 9
	cp.Clear()

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Len(t, c.Items, 1)

	var nilCart *Cart
	assert.Nil(t, nilCart.Clone())
}

func TestCart_ConsumeKeepsUnorderedLines(t *testing.T) {
	c := New("alice")
	require.NoError(t, c.Add(item("p1", "1.00"), 3))
	require.NoError(t, c.Add(item("p2", "1.00"), 1))
	require.NoError(t, c.Add(item("p3", "1.00"), 2))

	c.Consume(map[string]int{"p1": 1, "p2": 1, "gone": 4})

	require.Len(t, c.Items, 2)
	assert.Equal(t, "p1", c.Items[0].ID)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, "p3", c.Items[1].ID)
	assert.Equal(t, 2, c.Items[1].Quantity)

	c.Consume(map[string]int{"p1": 5, "p3": 2})
	assert.True(t, c.IsEmpty())
}
