package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "storefront/internal/domain/order"
)

type captured struct {
	from, to, subject, body string
}

type fakeClient struct {
	sent []captured
	err  error
}

func (f *fakeClient) Send(_ context.Context, from, to, subject, body string) error {
	f.sent = append(f.sent, captured{from, to, subject, body})
	return f.err
}

func sampleOrder() orderdom.Order {
	return orderdom.Order{
		ID:          "o1",
		OrderNumber: "ORD-ABC-123456",
		Status:      orderdom.StatusProcessing,
		Items: []orderdom.Item{
			{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("12.50"), Quantity: 2},
		},
		Shipping:    orderdom.ShippingAddress{FullName: "Alice", Line1: "1 Main St", City: "Town", PostalCode: "12345", Country: "US"},
		Subtotal:    decimal.RequireFromString("25.00"),
		Tax:         decimal.RequireFromString("2.00"),
		ShippingFee: decimal.RequireFromString("5.99"),
		Total:       decimal.RequireFromString("32.99"),
		CreatedAt:   time.Now(),
	}
}

func TestOrderMailer_SendsSummary(t *testing.T) {
	fc := &fakeClient{}
	m := NewOrderMailer(fc, "no-reply@example.com", "Shop")

	require.NoError(t, m.SendOrderConfirmation(context.Background(), " alice@example.com ", sampleOrder()))
	require.Len(t, fc.sent, 1)
	got := fc.sent[0]
	assert.Equal(t, "no-reply@example.com", got.from)
	assert.Equal(t, "alice@example.com", got.to)
	assert.Equal(t, "[Shop] Order ORD-ABC-123456 confirmed", got.subject)
	assert.Contains(t, got.body, "2 x Mug  @ 12.50")
	assert.Contains(t, got.body, "Total:    32.99")
	assert.Contains(t, got.body, "1 Main St")
}

func TestOrderMailer_PropagatesClientError(t *testing.T) {
	boom := errors.New("smtp down")
	m := NewOrderMailer(&fakeClient{err: boom}, "no-reply@example.com", "")
	err := m.SendOrderConfirmation(context.Background(), "a@b.c", sampleOrder())
	assert.ErrorIs(t, err, boom)
}

func TestSendGridClient_RejectsMissingInputs(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewSendGridClient("", "Shop", nil).Send(ctx, "f@x", "t@x", "s", "b"))
	c := NewSendGridClient("key", "Shop", nil)
	assert.Error(t, c.Send(ctx, "", "t@x", "s", "b"))
	assert.Error(t, c.Send(ctx, "f@x", " ", "s", "b"))
}

func TestSendGridClient_StatusHandling(t *testing.T) {
	ctx := context.Background()
	c := NewSendGridClient("key", "Shop", nil)

	var msg *sgmail.SGMailV3
	c.deliver = func(_ context.Context, m *sgmail.SGMailV3) (int, string, error) {
		msg = m
		return 202, "", nil
	}
	require.NoError(t, c.Send(ctx, "from@example.com", "to@example.com", "hello", "a < b"))
	require.NotNil(t, msg)
	assert.Equal(t, "hello", msg.Subject)
	assert.Equal(t, "Shop", msg.From.Name)
	require.Len(t, msg.Content, 2)
	assert.Equal(t, "<pre>a &lt; b</pre>", msg.Content[1].Value)

	c.deliver = func(context.Context, *sgmail.SGMailV3) (int, string, error) {
		return 401, "unauthorized", nil
	}
	err := c.Send(ctx, "from@example.com", "to@example.com", "hello", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")

	c.deliver = func(context.Context, *sgmail.SGMailV3) (int, string, error) {
		return 0, "", errors.New("dial tcp")
	}
	assert.Error(t, c.Send(ctx, "from@example.com", "to@example.com", "hello", "body"))
}
