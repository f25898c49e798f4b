package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsensusKVMemDBGetSetRoundTrip(t *testing.T) {
	kv := NewMemConsensusKV()
	defer kv.Close()

	require.NoError(t, kv.Set([]byte("height"), []byte{0, 0, 0, 0, 0, 0, 0, 5}))
	got, err := kv.Get([]byte("height"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 5}, got)
}

func TestConsensusKVZeroValueIsNoOp(t *testing.T) {
	var kv ConsensusKV
	require.NoError(t, kv.Set([]byte("k"), []byte("v")))
	got, err := kv.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreOverConsensusKVRoundTrip(t *testing.T) {
	kv := NewMemConsensusKV()
	defer kv.Close()

	store := NewStore(kv)
	require.NoError(t, store.Save(3, []byte("state-3")))

	data, ok, err := store.Load(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("state-3"), data)
}
