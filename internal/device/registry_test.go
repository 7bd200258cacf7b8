package device

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDarkness2001/SMS-sub002/internal/storage"
)

func TestRegistry_IDIsStable(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	defer store.Close()

	r := NewRegistry(store)
	id, err := r.ID(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	again, err := r.ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	// A fresh registry over the same store reads the persisted id.
	other, err := NewRegistry(store).ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, other)
}

func TestRegistry_AskedFlags(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(storage.NewMemoryStore())

	ask, err := r.ShouldAsk(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ask)

	require.NoError(t, r.MarkAsked(ctx, "s1"))
	ask, err = r.ShouldAsk(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ask)

	ask, err = r.ShouldAsk(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, ask)

	require.NoError(t, r.Reset(ctx, "s1"))
	ask, err = r.ShouldAsk(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ask)
}
