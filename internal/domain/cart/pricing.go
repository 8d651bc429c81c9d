package cart

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain/common"
)

// Pricing holds the fixed rules used to derive totals.
type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPricing: 8% tax, free shipping from 50.00, 5.99 flat fee below it.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
		ShippingFee:           decimal.RequireFromString("5.99"),
	}
}

// Totals are the derived values of an item sequence. They are never stored.
type Totals struct {
	Items      int             `json:"totalItems"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Shipping   decimal.Decimal `json:"shipping"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// TotalItems is the sum of quantities.
func TotalItems(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of line totals.
func (p Pricing) Subtotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return common.RoundMoney(sum)
}

// Tax is TaxRate * subtotal, rounded to cents.
func (p Pricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return common.RoundMoney(subtotal.Mul(p.TaxRate))
}

// Shipping is free for an empty cart or a subtotal at or above the threshold.
func (p Pricing) Shipping(subtotal decimal.Decimal, items int) decimal.Decimal {
	if items == 0 || subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return common.RoundMoney(p.ShippingFee)
}

// Compute derives every total from items. GrandTotal == Subtotal + Tax + Shipping.
func (p Pricing) Compute(items []CartItem) Totals {
	n := TotalItems(items)
	sub := p.Subtotal(items)
	tax := p.Tax(sub)
	ship := p.Shipping(sub, n)
	return Totals{
		Items:      n,
		Subtotal:   sub,
		Tax:        tax,
		Shipping:   ship,
		GrandTotal: sub.Add(tax).Add(ship),
	}
}
