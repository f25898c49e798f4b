// Package hanko implements the recursive quorum signature scheme of spec
// section 4.2: EOA signatures, placeholders for absent quorum members, and
// claims that let an entity authorize other entities' claims (hierarchical
// governance).
package hanko

import (
	"fmt"

	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/xerrors"
)

// EntityID is a 32-byte entity identifier.
type EntityID [32]byte

// Claim declares that entity EntityID is authorized if the weighted sum of
// its members (resolved through the shared index space) meets Threshold.
type Claim struct {
	EntityID      EntityID
	EntityIndexes []uint32
	Weights       []uint64
	Threshold     uint64
}

// Hanko is the compact proof described in spec section 4.2.
type Hanko struct {
	Placeholders [][32]byte
	PackedSigs   []cryptokeys.Signature65
	Claims       []Claim
}

// indexSpaceLen returns placeholders.len + N + claims.len, the size of the
// shared index space every EntityIndex is drawn from.
func (h Hanko) indexSpaceLen() int {
	return len(h.Placeholders) + len(h.PackedSigs) + len(h.Claims)
}

// resolvedMember is what an index in the shared space resolves to: either a
// placeholder (unsigned), a recovered EOA, or a prior claim's accepted
// entity-id.
type resolvedMember struct {
	id       [32]byte
	signedBy bool // true if this member contributes to a claim's signed weight
}

// RecoverHankoEntities runs the verification algorithm of spec section 4.2
// against the given hash and returns the set of accepted claim entity-ids
// (yesEntities), in claim order.
func RecoverHankoEntities(h Hanko, hash codec.Hash32) ([]EntityID, error) {
	if len(h.PackedSigs) == 0 {
		return nil, xerrors.ConsensusFailure("hanko.Recover", fmt.Errorf("hanko carries zero EOA signatures: pure circular claims are rejected"))
	}

	nPH := len(h.Placeholders)
	nSig := len(h.PackedSigs)
	total := h.indexSpaceLen()

	recoveredEOAs := make([][32]byte, nSig)
	for i, sig := range h.PackedSigs {
		eoa, err := cryptokeys.Recover(hash, sig)
		if err != nil {
			return nil, xerrors.ConsensusFailure("hanko.Recover", fmt.Errorf("recover signature %d: %w", i, err))
		}
		recoveredEOAs[i] = eoa
	}

	// resolved[i] is filled in as claims are accepted, in order, so a
	// later claim can reference an earlier one's entity-id.
	resolved := make([]*resolvedMember, total)
	for i := 0; i < nPH; i++ {
		resolved[i] = &resolvedMember{id: h.Placeholders[i], signedBy: false}
	}
	for i := 0; i < nSig; i++ {
		resolved[nPH+i] = &resolvedMember{id: recoveredEOAs[i], signedBy: true}
	}

	var yesEntities []EntityID
	for ci, claim := range h.Claims {
		idx := nPH + nSig + ci
		members := make([][32]byte, len(claim.EntityIndexes))
		signedWeight := uint64(0)
		for mi, ei := range claim.EntityIndexes {
			if int(ei) >= total {
				return nil, xerrors.ConsensusFailure("hanko.Recover", fmt.Errorf("claim %d: entity index %d out of range [0,%d)", ci, ei, total))
			}
			rm := resolved[ei]
			if rm == nil {
				return nil, xerrors.ConsensusFailure("hanko.Recover", fmt.Errorf("claim %d: entity index %d resolves to an unaccepted claim", ci, ei))
			}
			members[mi] = rm.id
			if rm.signedBy {
				if mi >= len(claim.Weights) {
					return nil, xerrors.ConsensusFailure("hanko.Recover", fmt.Errorf("claim %d: weights shorter than entityIndexes", ci))
				}
				signedWeight += claim.Weights[mi]
			}
		}

		boardHash, err := claimBoardHash(claim, members)
		if err != nil {
			return nil, err
		}

		accepted := claim.EntityID == EntityID(boardHash) && signedWeight >= claim.Threshold
		if accepted {
			resolved[idx] = &resolvedMember{id: claim.EntityID, signedBy: true}
			yesEntities = append(yesEntities, claim.EntityID)
		} else {
			// A claim is accepted only when its entity-id equals the
			// reconstructed board hash (lazy, self-describing entity);
			// registered on-chain board hashes are not consulted here or
			// in VerifyAgainstEntity.
			resolved[idx] = nil
		}
	}

	return yesEntities, nil
}

// claimBoardHash reconstructs keccak256(encode(threshold, members, weights,
// 0,0,0)) per spec section 4.2 step 4.
func claimBoardHash(claim Claim, members [][32]byte) (codec.Hash32, error) {
	return encodeBoardHash(claim.Threshold, members, claim.Weights)
}
