package mail

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"storefront/internal/infra/logging"
)

// EmailClient abstracts the transport (SendGrid, SMTP...).
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// deliverFunc sends a prepared message and reports the provider status.
type deliverFunc func(ctx context.Context, msg *sgmail.SGMailV3) (status int, body string, err error)

// SendGridClient implements EmailClient.
type SendGridClient struct {
	apiKey   string
	fromName string
	deliver  deliverFunc
	logger   *zap.Logger
}

func NewSendGridClient(apiKey, fromName string, logger *zap.Logger) *SendGridClient {
	c := &SendGridClient{
		apiKey:   strings.TrimSpace(apiKey),
		fromName: strings.TrimSpace(fromName),
		logger:   logging.OrNop(logger).Named("sendgrid"),
	}
	c.deliver = func(ctx context.Context, msg *sgmail.SGMailV3) (int, string, error) {
		res, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, msg)
		if err != nil {
			return 0, "", err
		}
		return res.StatusCode, res.Body, nil
	}
	return c
}

// Send sends a plain-text mail with a minimal HTML alternative.
func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if strings.TrimSpace(from) == "" {
		return fmt.Errorf("from address is empty")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("to address is empty")
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	status, resBody, err := c.deliver(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if status >= 400 {
		c.logger.Warn("send rejected", zap.Int("status", status), zap.String("body", resBody))
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", status, resBody)
	}

	c.logger.Info("mail sent", zap.Int("status", status), zap.String("to", to), zap.String("subject", subject))
	return nil
}
