// internal/infra/secrets/secret_provider_sm.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

var (
	ErrSecretNotConfigured = errors.New("secret_provider: not configured")
	ErrSecretNotFound      = errors.New("secret_provider: secret not found")
)

// ProviderSM reads the latest version of a secret from Secret Manager.
type ProviderSM struct {
	Client    *secretmanager.Client
	ProjectID string
}

func NewProviderSM(ctx context.Context, projectID string, opts ...option.ClientOption) (*ProviderSM, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("%w: projectID is empty", ErrSecretNotConfigured)
	}
	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secret_provider: new client: %w", err)
	}
	return &ProviderSM{Client: c, ProjectID: pid}, nil
}

// Resolve accepts a bare secret id or a full "projects/.../secrets/..." name.
func (p *ProviderSM) Resolve(ctx context.Context, secret string) (string, error) {
	if p == nil || p.Client == nil {
		return "", ErrSecretNotConfigured
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", fmt.Errorf("%w: empty secret name", ErrSecretNotFound)
	}

	name := secret
	if !strings.HasPrefix(secret, "projects/") {
		name = fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.ProjectID, secret)
	} else if !strings.Contains(secret, "/versions/") {
		name = secret + "/versions/latest"
	}

	res, err := p.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSecretNotFound, err)
	}
	if res == nil || res.Payload == nil {
		return "", ErrSecretNotFound
	}
	v := strings.TrimSpace(string(res.Payload.Data))
	if v == "" {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (p *ProviderSM) Close() error {
	if p == nil || p.Client == nil {
		return nil
	}
	return p.Client.Close()
}
