// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain/common"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValidStatus reports whether s is a known status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

var transitions = map[Status][]Status{
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ShippingAddress is the snapshot stored with the order.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Normalize trims every field.
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		FullName:   strings.TrimSpace(a.FullName),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

// Validate returns the first missing required field.
func (a ShippingAddress) Validate() error {
	a = a.Normalize()
	switch {
	case a.FullName == "":
		return common.NewValidationError("shipping.fullName", "required")
	case a.Line1 == "":
		return common.NewValidationError("shipping.line1", "required")
	case a.City == "":
		return common.NewValidationError("shipping.city", "required")
	case a.PostalCode == "":
		return common.NewValidationError("shipping.postalCode", "required")
	case a.Country == "":
		return common.NewValidationError("shipping.country", "required")
	}
	return nil
}

// IsZero reports whether no address was supplied at all.
func (a ShippingAddress) IsZero() bool {
	return a.Normalize() == ShippingAddress{}
}

// Item is a priced line of an order.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Order mirrors orders/{orderId}.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []Item          `json:"items"`
	Shipping    ShippingAddress `json:"shipping"`
	Status      Status          `json:"status"`
	OrderNumber string          `json:"orderNumber"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Quantities returns productId -> total ordered quantity.
func (o Order) Quantities() map[string]int {
	out := make(map[string]int, len(o.Items))
	for _, it := range o.Items {
		out[it.ID] += it.Quantity
	}
	return out
}

// NewID returns a fresh order document id.
func NewID() string {
	return uuid.NewString()
}

// NewOrderNumber derives a globally unique, human-friendly number without a
// central sequencer: "ORD-<base36 unix millis>-<6 random hex>".
func NewOrderNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UTC().UnixMilli(), 36))
	u := uuid.New()
	return fmt.Sprintf("ORD-%s-%X", ts, u[:3])
}

// TransitionError builds the error returned for a disallowed status change.
func TransitionError(from, to Status) error {
	return common.NewValidationError("status", fmt.Sprintf("cannot move from %s to %s", from, to))
}
