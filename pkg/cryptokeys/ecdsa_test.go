package cryptokeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/pkg/codec"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	k1, err := DeriveKey([]byte("seed"), "signer-1")
	require.NoError(t, err)
	k2, err := DeriveKey([]byte("seed"), "signer-1")
	require.NoError(t, err)
	assert.Equal(t, k1.EOA(), k2.EOA())

	k3, err := DeriveKey([]byte("seed"), "signer-2")
	require.NoError(t, err)
	assert.NotEqual(t, k1.EOA(), k3.EOA())
}

func TestSignRecoverRoundTrip(t *testing.T) {
	key, err := DeriveKey([]byte("seed"), "signer-1")
	require.NoError(t, err)

	hash := codec.Keccak256([]byte("hello hanko"))
	sig, err := key.Sign(hash)
	require.NoError(t, err)
	assert.True(t, sig[64] == 27 || sig[64] == 28)

	recovered, err := Recover(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, key.EOA(), recovered)
}
