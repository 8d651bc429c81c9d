package mail

import (
	"context"
	"fmt"
	"strings"

	orderdom "storefront/internal/domain/order"
)

// OrderMailer sends the order confirmation through an EmailClient.
type OrderMailer struct {
	client      EmailClient
	fromAddress string
	shopName    string
}

func NewOrderMailer(client EmailClient, fromAddress, shopName string) *OrderMailer {
	shopName = strings.TrimSpace(shopName)
	if shopName == "" {
		shopName = "Storefront"
	}
	return &OrderMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		shopName:    shopName,
	}
}

// SendOrderConfirmation mails the order summary to "to".
func (m *OrderMailer) SendOrderConfirmation(ctx context.Context, to string, o orderdom.Order) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("order mailer: email client is nil")
	}
	subject := fmt.Sprintf("[%s] Order %s confirmed", m.shopName, o.OrderNumber)
	return m.client.Send(ctx, m.fromAddress, strings.TrimSpace(to), subject, confirmationBody(m.shopName, o))
}

func confirmationBody(shop string, o orderdom.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order!\n\n")
	fmt.Fprintf(&b, "Order number: %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Status:       %s\n\n", o.Status)

	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %d x %s  @ %s\n", it.Quantity, it.Name, it.Price.StringFixed(2))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", o.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax:      %s\n", o.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\n", o.ShippingFee.StringFixed(2))
	fmt.Fprintf(&b, "Total:    %s\n\n", o.Total.StringFixed(2))

	s := o.Shipping
	fmt.Fprintf(&b, "Ship to:\n  %s\n  %s\n", s.FullName, s.Line1)
	if s.Line2 != "" {
		fmt.Fprintf(&b, "  %s\n", s.Line2)
	}
	fmt.Fprintf(&b, "  %s %s %s\n  %s\n", s.City, s.State, s.PostalCode, s.Country)

	fmt.Fprintf(&b, "\n-- \n%s\n", shop)
	return b.String()
}
