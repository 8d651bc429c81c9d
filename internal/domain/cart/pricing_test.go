package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(price string, qty int) CartItem {
	return CartItem{ID: price, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestPricing_Compute(t *testing.T) {
	p := DefaultPricing()

	cases := []struct {
		name     string
		items    []CartItem
		count    int
		subtotal string
		tax      string
		shipping string
		total    string
	}{
		{"empty cart ships free", nil, 0, "0", "0", "0", "0"},
		{"below threshold", []CartItem{line("12.50", 2)}, 2, "25.00", "2.00", "5.99", "32.99"},
		{"exactly at threshold", []CartItem{line("25.00", 2)}, 2, "50.00", "4.00", "0", "54.00"},
		{"just below threshold", []CartItem{line("49.99", 1)}, 1, "49.99", "4.00", "5.99", "59.98"},
		{"mixed lines", []CartItem{line("12.50", 2), line("20.00", 2)}, 4, "65.00", "5.20", "0", "70.20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Compute(tc.items)
			assert.Equal(t, tc.count, got.Items)
			assert.True(t, got.Subtotal.Equal(decimal.RequireFromString(tc.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.Tax.Equal(decimal.RequireFromString(tc.tax)), "tax %s", got.Tax)
			assert.True(t, got.Shipping.Equal(decimal.RequireFromString(tc.shipping)), "shipping %s", got.Shipping)
			assert.True(t, got.GrandTotal.Equal(decimal.RequireFromString(tc.total)), "total %s", got.GrandTotal)
			assert.True(t, got.GrandTotal.Equal(got.Subtotal.Add(got.Tax).Add(got.Shipping)))
		})
	}
}

func TestPricing_TaxRoundsToCents(t *testing.T) {
	p := DefaultPricing()
	// 0.08 * 10.99 = 0.8792
	assert.Equal(t, "0.88", p.Tax(decimal.RequireFromString("10.99")).StringFixed(2))
}
