package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/user"
	"storefront/internal/infra/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StoreBackend:          "memory",
		LocalStorePath:        filepath.Join(t.TempDir(), "local.db"),
		PermissionTTL:         time.Minute,
		SessionMaxAge:         5 * time.Minute,
		TaxRate:               "0.08",
		FreeShippingThreshold: "50.00",
		ShippingFee:           "5.99",
		SearchIndexTopic:      "search.products",
	}
}

func TestNewContainer_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(ctx, memoryConfig(t), nil)
	require.NoError(t, err)

	assert.NotNil(t, c.Memory)
	assert.Nil(t, c.Firestore)
	assert.Nil(t, c.FirebaseAuth)
	assert.Nil(t, c.Indexer)
	assert.NotNil(t, c.LocalStore)
	assert.NotNil(t, c.CartSource)

	deps := c.RouterDeps()
	assert.Nil(t, deps.Verifier)
	assert.Equal(t, 5*time.Minute, deps.SessionMaxAge)
	assert.NotNil(t, deps.Metrics)

	// the session is usable end to end
	require.NoError(t, c.Memory.Users().Put(ctx, user.Record{UID: "alice", Role: user.RoleCustomer}))
	rec, err := c.Session.SignIn(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.UID)
	assert.Equal(t, 1, c.CartSubs.Len())
	c.Session.SignOut(ctx)

	require.NoError(t, c.Close())
	assert.Equal(t, 0, c.UserSubs.Len())
}

func TestNewContainer_Errors(t *testing.T) {
	_, err := NewContainer(context.Background(), nil, nil)
	assert.Error(t, err)

	cfg := memoryConfig(t)
	cfg.StoreBackend = "firestore"
	_, err = NewContainer(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "projectID is empty")

	cfg = memoryConfig(t)
	cfg.TaxRate = "abc"
	_, err = NewContainer(context.Background(), cfg, nil)
	assert.Error(t, err)
}
