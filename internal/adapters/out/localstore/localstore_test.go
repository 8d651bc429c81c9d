package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kv interface {
	Load(ctx context.Context, name string) ([]byte, bool, error)
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

func exercise(t *testing.T, s kv) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "cart-storage")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "cart-storage", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "cart-storage", []byte(`{"v":2}`)))
	got, ok, err := s.Load(ctx, "cart-storage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(got))

	require.NoError(t, s.Delete(ctx, "cart-storage"))
	require.NoError(t, s.Delete(ctx, "cart-storage"))
	_, ok, err = s.Load(ctx, "cart-storage")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exercise(t, s)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "wishlist-storage", []byte("x")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	got, ok, err := s.Load(ctx, "wishlist-storage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", string(got))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
