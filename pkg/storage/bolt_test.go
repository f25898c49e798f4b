package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltKVGetSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	kv, err := OpenBoltKV(path)
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set([]byte("k1"), []byte("v1")))
	got, err := kv.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestBoltKVGetMissingKeyReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	kv, err := OpenBoltKV(path)
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get([]byte("absent"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBoltKVReopenPersistsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	kv, err := OpenBoltKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set([]byte("persisted"), []byte("value")))
	require.NoError(t, kv.Close())

	reopened, err := OpenBoltKV(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get([]byte("persisted"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestStoreOverBoltKVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	kv, err := OpenBoltKV(path)
	require.NoError(t, err)
	defer kv.Close()

	store := NewStore(kv)
	require.NoError(t, store.Save(42, []byte("state-42")))

	data, ok, err := store.Load(42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("state-42"), data)

	latest, ok, err := store.LatestHeight()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(42), latest)
}
