package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "snapshots/voc.bow", []byte("alpha")))
	require.NoError(t, store.Put(ctx, "snapshots/db.bow", []byte("beta")))
	require.NoError(t, store.Put(ctx, "other.bin", []byte("gamma")))

	data, err := store.Get(ctx, "snapshots/voc.bow")
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), data)

	// Overwrite replaces content.
	require.NoError(t, store.Put(ctx, "snapshots/voc.bow", []byte("alpha2")))
	data, err = store.Get(ctx, "snapshots/voc.bow")
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha2"), data)

	names, err := store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/db.bow", "snapshots/voc.bow"}, names)

	require.NoError(t, store.Delete(ctx, "snapshots/db.bow"))
	_, err = store.Get(ctx, "snapshots/db.bow")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing blob is not an error.
	require.NoError(t, store.Delete(ctx, "snapshots/db.bow"))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, store)
}

func TestMemoryStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "blob", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestLocalStoreCancelledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "blob", nil), context.Canceled)
	_, err = store.Get(ctx, "blob")
	assert.ErrorIs(t, err, context.Canceled)
}
