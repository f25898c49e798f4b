package hanko

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/abicoder"
	"github.com/certen/xln-settlement/pkg/codec"
)

// LazyEntityID computes the entity-id of a quorum that has never registered
// on-chain: the board hash of its (threshold, members, weights) tuple. Spec
// section 4.2 calls this "self-contained verification" -- the id is
// self-describing, so RecoverHankoEntities can accept a claim for it
// without any external validator-set lookup.
func LazyEntityID(threshold uint64, members [][32]byte, weights []uint64) (EntityID, error) {
	h, err := encodeBoardHash(threshold, members, weights)
	if err != nil {
		return EntityID{}, err
	}
	return EntityID(h), nil
}

// SingleEOAEntityID is the LazyEntityID of a trivial one-member,
// threshold-1 quorum: the conventional entity-id for a wallet that signs
// directly rather than through a multisig board.
func SingleEOAEntityID(eoa [32]byte) (EntityID, error) {
	return LazyEntityID(1, [][32]byte{eoa}, []uint64{1})
}

// encodeBoardHash ABI-encodes (threshold, members, weights, 0,0,0) the way
// the EntityProvider contract does and keccak256-hashes it, so a lazy
// entity-id (one that never registered on-chain) can be verified purely
// from the hanko itself.
func encodeBoardHash(threshold uint64, members [][32]byte, weights []uint64) (codec.Hash32, error) {
	w := make([]*big.Int, len(weights))
	for i, wv := range weights {
		w[i] = new(big.Int).SetUint64(wv)
	}
	enc, err := abicoder.EncodeBoard(abicoder.Board{
		Threshold: new(big.Int).SetUint64(threshold),
		Members:   members,
		Weights:   w,
	})
	if err != nil {
		return codec.Hash32{}, err
	}
	return codec.Keccak256(enc), nil
}
