package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memKV is an in-memory KV for exercising Store's key-layout logic without
// a real backend.
type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(key []byte) ([]byte, error) { return m.data[string(key)], nil }

func (m *memKV) Set(key, value []byte) error {
	m.data[string(key)] = append([]byte{}, value...)
	return nil
}

func TestStoreSaveAndLoadRoundTrip(t *testing.T) {
	s := NewStore(newMemKV())
	require.NoError(t, s.Save(7, []byte("snapshot-7")))

	data, ok, err := s.Load(7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("snapshot-7"), data)
}

func TestStoreLoadMissingHeightReturnsNotOk(t *testing.T) {
	s := NewStore(newMemKV())
	_, ok, err := s.Load(99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreLatestHeightAdvancesOnlyForward(t *testing.T) {
	s := NewStore(newMemKV())
	require.NoError(t, s.Save(5, []byte("a")))
	require.NoError(t, s.Save(3, []byte("b")))
	require.NoError(t, s.Save(9, []byte("c")))

	latest, ok, err := s.LatestHeight()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(9), latest)
}

func TestStoreLatestHeightUnsetBeforeAnySave(t *testing.T) {
	s := NewStore(newMemKV())
	_, ok, err := s.LatestHeight()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshotKeyOrdersByHeightLexically(t *testing.T) {
	low := snapshotKey(1)
	high := snapshotKey(256)
	assert.Less(t, string(low), string(high))
}
