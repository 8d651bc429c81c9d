// internal/infra/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	cartdom "storefront/internal/domain/cart"
)

// Config holds the process configuration read from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// STORE_BACKEND selects the system of record: "firestore" or "memory" (local dev).
	StoreBackend string `env:"STORE_BACKEND" envDefault:"firestore"`

	GCPProjectID             string `env:"GCP_PROJECT_ID"`
	FirestoreProjectID       string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string `env:"FIRESTORE_CREDENTIALS_FILE"`
	GCPCreds                 string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseProjectID        string `env:"FIREBASE_PROJECT_ID"`

	// SendGrid. The key may come from Secret Manager instead of the environment.
	SendGridAPIKey       string `env:"SENDGRID_API_KEY"`
	SendGridAPIKeySecret string `env:"SENDGRID_API_KEY_SECRET"`
	SendGridFrom         string `env:"SENDGRID_FROM"`
	SendGridFromName     string `env:"SENDGRID_FROM_NAME" envDefault:"Storefront"`

	// Search-index sync. Empty brokers disable publishing.
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	SearchIndexTopic string   `env:"SEARCH_INDEX_TOPIC" envDefault:"search.products"`

	LocalStorePath string `env:"LOCAL_STORE_PATH" envDefault:"storefront-local.db"`

	PermissionTTL time.Duration `env:"PERMISSION_TTL" envDefault:"5m"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"5m"`

	TaxRate               string `env:"TAX_RATE" envDefault:"0.08"`
	FreeShippingThreshold string `env:"FREE_SHIPPING_THRESHOLD" envDefault:"50.00"`
	ShippingFee           string `env:"SHIPPING_FEE" envDefault:"5.99"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"storefront"`

	// OperatorUID is the admin identity storectl acts as.
	OperatorUID string `env:"STOREFRONT_OPERATOR_UID"`
}

// Load parses the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.PermissionTTL <= 0 {
		return nil, fmt.Errorf("config: PERMISSION_TTL must be > 0")
	}
	if _, err := cfg.Pricing(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectID resolves the Firestore project: FIRESTORE_PROJECT_ID, then GCP_PROJECT_ID.
func (c *Config) ProjectID() string {
	if p := strings.TrimSpace(c.FirestoreProjectID); p != "" {
		return p
	}
	return strings.TrimSpace(c.GCPProjectID)
}

// FirebaseProject falls back to the Firestore project.
func (c *Config) FirebaseProject() string {
	if p := strings.TrimSpace(c.FirebaseProjectID); p != "" {
		return p
	}
	return c.ProjectID()
}

// CredentialsFile prefers FIRESTORE_CREDENTIALS_FILE over GOOGLE_APPLICATION_CREDENTIALS.
func (c *Config) CredentialsFile() string {
	if f := strings.TrimSpace(c.FirestoreCredentialsFile); f != "" {
		return f
	}
	return strings.TrimSpace(c.GCPCreds)
}

// Pricing converts the money settings into cart pricing rules.
func (c *Config) Pricing() (cartdom.Pricing, error) {
	tax, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return cartdom.Pricing{}, fmt.Errorf("config: TAX_RATE: %w", err)
	}
	threshold, err := decimal.NewFromString(strings.TrimSpace(c.FreeShippingThreshold))
	if err != nil {
		return cartdom.Pricing{}, fmt.Errorf("config: FREE_SHIPPING_THRESHOLD: %w", err)
	}
	fee, err := decimal.NewFromString(strings.TrimSpace(c.ShippingFee))
	if err != nil {
		return cartdom.Pricing{}, fmt.Errorf("config: SHIPPING_FEE: %w", err)
	}
	if tax.IsNegative() || threshold.IsNegative() || fee.IsNegative() {
		return cartdom.Pricing{}, fmt.Errorf("config: pricing values must be >= 0")
	}
	return cartdom.Pricing{TaxRate: tax, FreeShippingThreshold: threshold, ShippingFee: fee}, nil
}

// UseMemoryStore reports whether the in-process system of record is selected.
func (c *Config) UseMemoryStore() bool {
	return strings.EqualFold(strings.TrimSpace(c.StoreBackend), "memory")
}
