package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "session.db")
	ctx := context.Background()

	store, err := NewSQLiteTokenStore(path)
	require.NoError(t, err)

	got, err := store.Get(ctx, "admin_access_token")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set(ctx, "admin_access_token", "tok-1"))
	require.NoError(t, store.Set(ctx, "admin_access_token", "tok-2"))
	require.NoError(t, store.Close())

	// survives a restart
	reopened, err := NewSQLiteTokenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err = reopened.Get(ctx, "admin_access_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, reopened.Clear(ctx, "admin_access_token"))
	got, err = reopened.Get(ctx, "admin_access_token")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteTokenStoreInMemory(t *testing.T) {
	store, err := NewSQLiteTokenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "v"))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestSQLiteTokenStoreClosed(t *testing.T) {
	store, err := NewSQLiteTokenStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get(context.Background(), "k")
	assert.Error(t, err)
}
