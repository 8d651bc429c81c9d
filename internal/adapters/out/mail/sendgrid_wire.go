package mail

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/infra/logging"
)

// SecretResolver resolves a secret name to its value (secrets.ProviderSM).
type SecretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// SendGridSettings are the mail settings read from config.
type SendGridSettings struct {
	APIKey       string
	APIKeySecret string
	From         string
	FromName     string
}

// NewOrderMailerWithSendGrid builds the order mailer. When the API key is not
// set directly it is resolved from Secret Manager. A missing key or sender is
// logged; sends then fail and are reported as side-effect failures.
func NewOrderMailerWithSendGrid(ctx context.Context, s SendGridSettings, sr SecretResolver, logger *zap.Logger) *OrderMailer {
	logger = logging.OrNop(logger).Named("mail")

	apiKey := strings.TrimSpace(s.APIKey)
	if apiKey == "" && strings.TrimSpace(s.APIKeySecret) != "" && sr != nil {
		v, err := sr.Resolve(ctx, s.APIKeySecret)
		if err != nil {
			logger.Warn("sendgrid key not resolved", zap.String("secret", s.APIKeySecret), zap.Error(err))
		}
		apiKey = v
	}
	if apiKey == "" {
		logger.Warn("SENDGRID_API_KEY is empty; order confirmations will fail to send")
	}
	if strings.TrimSpace(s.From) == "" {
		logger.Warn("SENDGRID_FROM is empty; order confirmations will fail to send")
	}

	client := NewSendGridClient(apiKey, s.FromName, logger)
	logger.Info("order mailer initialized", zap.String("from", s.From))
	return NewOrderMailer(client, s.From, s.FromName)
}
