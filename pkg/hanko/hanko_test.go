package hanko

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
)

func TestSignSingleRoundTrip(t *testing.T) {
	key, err := cryptokeys.DeriveKey([]byte("seed"), "alice")
	require.NoError(t, err)

	hash := codec.Keccak256([]byte("frame state"))
	entityID, err := SingleEOAEntityID(key.EOA())
	require.NoError(t, err)

	h, err := SignSingle(key, entityID, hash)
	require.NoError(t, err)

	yes, err := RecoverHankoEntities(h, hash)
	require.NoError(t, err)
	require.Len(t, yes, 1)
	assert.Equal(t, entityID, yes[0])

	require.NoError(t, VerifyAgainstEntity(h, hash, entityID, nil))
}

func TestQuorumHankoThresholdMet(t *testing.T) {
	k1, _ := cryptokeys.DeriveKey([]byte("seed"), "v1")
	k2, _ := cryptokeys.DeriveKey([]byte("seed"), "v2")
	k3, _ := cryptokeys.DeriveKey([]byte("seed"), "v3")

	cfg := QuorumConfig{
		Threshold:        2,
		ValidatorEOAs:    [][32]byte{k1.EOA(), k2.EOA(), k3.EOA()},
		ValidatorWeights: []uint64{1, 1, 1},
	}

	boardHash, err := encodeBoardHash(cfg.Threshold, cfg.ValidatorEOAs, cfg.ValidatorWeights)
	require.NoError(t, err)
	entityID := EntityID(boardHash)

	hash := codec.Keccak256([]byte("entity frame"))
	sig1, err := k1.Sign(hash)
	require.NoError(t, err)
	sig2, err := k2.Sign(hash)
	require.NoError(t, err)

	h, err := BuildQuorumHanko(cfg, entityID, hash, map[int]cryptokeys.Signature65{0: sig1, 1: sig2})
	require.NoError(t, err)
	require.Len(t, h.Placeholders, 1)
	require.Len(t, h.PackedSigs, 2)

	yes, err := RecoverHankoEntities(h, hash)
	require.NoError(t, err)
	require.Len(t, yes, 1)
	assert.Equal(t, entityID, yes[0])
}

func TestQuorumHankoBelowThresholdRejected(t *testing.T) {
	k1, _ := cryptokeys.DeriveKey([]byte("seed"), "v1")
	k2, _ := cryptokeys.DeriveKey([]byte("seed"), "v2")
	k3, _ := cryptokeys.DeriveKey([]byte("seed"), "v3")

	cfg := QuorumConfig{
		Threshold:        2,
		ValidatorEOAs:    [][32]byte{k1.EOA(), k2.EOA(), k3.EOA()},
		ValidatorWeights: []uint64{1, 1, 1},
	}
	boardHash, err := encodeBoardHash(cfg.Threshold, cfg.ValidatorEOAs, cfg.ValidatorWeights)
	require.NoError(t, err)
	entityID := EntityID(boardHash)

	hash := codec.Keccak256([]byte("entity frame"))
	sig1, err := k1.Sign(hash)
	require.NoError(t, err)

	h, err := BuildQuorumHanko(cfg, entityID, hash, map[int]cryptokeys.Signature65{0: sig1})
	require.NoError(t, err)

	yes, err := RecoverHankoEntities(h, hash)
	require.NoError(t, err)
	assert.Empty(t, yes)
}

func TestRecoverRejectsZeroSignatureHanko(t *testing.T) {
	h := Hanko{
		Placeholders: [][32]byte{{1}},
		Claims: []Claim{{
			EntityID:      EntityID{1},
			EntityIndexes: []uint32{0},
			Weights:       []uint64{1},
			Threshold:     1,
		}},
	}
	_, err := RecoverHankoEntities(h, codec.Keccak256([]byte("x")))
	require.Error(t, err)
}
