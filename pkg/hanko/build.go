package hanko

import (
	"fmt"

	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/xerrors"
)

// SignSingle builds a hanko for a single-signer entity: one signature, zero
// placeholders, and one claim {entityId, [0], [1], 1} (spec section 4.2).
// entityID is normally SingleEOAEntityID(key.EOA()) for a lazy wallet, or a
// registered on-chain board hash.
func SignSingle(key *cryptokeys.PrivateKey, entityID EntityID, hash codec.Hash32) (Hanko, error) {
	sig, err := key.Sign(hash)
	if err != nil {
		return Hanko{}, err
	}
	return Hanko{
		Placeholders: nil,
		PackedSigs:   []cryptokeys.Signature65{sig},
		Claims: []Claim{{
			EntityID:      entityID,
			EntityIndexes: []uint32{0},
			Weights:       []uint64{1},
			Threshold:     1,
		}},
	}, nil
}

// BuildQuorumHanko produces placeholders for absent members and signature
// indexes for present ones, preserving the original validator order so the
// reconstructed board hash matches the entity's registered board (spec
// section 4.2). sigs maps signerID (ValidatorEOAs index key) to a signature
// already produced over hash by that validator.
func BuildQuorumHanko(cfg QuorumConfig, entityID EntityID, hash codec.Hash32, sigsByPosition map[int]cryptokeys.Signature65) (Hanko, error) {
	n := len(cfg.ValidatorEOAs)
	if n != len(cfg.ValidatorWeights) {
		return Hanko{}, xerrors.Encoding("hanko.BuildQuorumHanko", fmt.Errorf("validator EOAs/weights length mismatch"))
	}

	var placeholders [][32]byte
	var packedSigs []cryptokeys.Signature65
	entityIndexes := make([]uint32, n)

	for i := 0; i < n; i++ {
		if sig, ok := sigsByPosition[i]; ok {
			entityIndexes[i] = uint32(len(placeholders) + len(packedSigs))
			packedSigs = append(packedSigs, sig)
		} else {
			entityIndexes[i] = uint32(len(placeholders))
			placeholders = append(placeholders, cfg.ValidatorEOAs[i])
		}
	}

	// Placeholders and signatures share the same prefix of the index
	// space (placeholders first, then signatures, per spec section 4.2),
	// so indexes assigned above assuming placeholders-then-sigs ordering
	// must be recomputed once both slice lengths are final.
	nPH := len(placeholders)
	phCursor, sigCursor := 0, 0
	for i := 0; i < n; i++ {
		if _, ok := sigsByPosition[i]; ok {
			entityIndexes[i] = uint32(nPH + sigCursor)
			sigCursor++
		} else {
			entityIndexes[i] = uint32(phCursor)
			phCursor++
		}
	}

	if len(packedSigs) == 0 {
		return Hanko{}, xerrors.ConsensusFailure("hanko.BuildQuorumHanko", fmt.Errorf("cannot build a hanko with zero EOA signatures"))
	}

	return Hanko{
		Placeholders: placeholders,
		PackedSigs:   packedSigs,
		Claims: []Claim{{
			EntityID:      entityID,
			EntityIndexes: entityIndexes,
			Weights:       cfg.ValidatorWeights,
			Threshold:     cfg.Threshold,
		}},
	}, nil
}
