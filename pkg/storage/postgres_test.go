package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipWithoutTestDSN skips t unless a real Postgres instance is
// configured, the same posture the teacher's database package tests take
// toward their own test database ("skip database tests if no test DB
// configured") -- scoped per-test rather than a package-wide TestMain
// since this package's bbolt and in-memory tests must keep running
// regardless.
func skipWithoutTestDSN(t *testing.T) string {
	dsn := os.Getenv("XLN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("XLN_TEST_POSTGRES_DSN not set")
	}
	return dsn
}

func TestPostgresKVGetSetRoundTrip(t *testing.T) {
	kv, err := OpenPostgresKV(skipWithoutTestDSN(t))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set([]byte("pg-key"), []byte("pg-value")))
	got, err := kv.Get([]byte("pg-key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pg-value"), got)
}

func TestPostgresKVGetMissingKeyReturnsNil(t *testing.T) {
	kv, err := OpenPostgresKV(skipWithoutTestDSN(t))
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get([]byte("pg-absent"))
	require.NoError(t, err)
	assert.Nil(t, got)
}
