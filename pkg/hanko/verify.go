package hanko

import (
	"fmt"

	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/xerrors"
)

// QuorumConfig is the subset of an entity's validator configuration hanko
// verification needs: the ordered validator list, their weights, and the
// threshold they must collectively clear.
type QuorumConfig struct {
	Threshold        uint64
	ValidatorEOAs    [][32]byte // ordered, matches BuildQuorumHanko's placeholder assignment
	ValidatorWeights []uint64
}

// VerifyAgainstEntity verifies h over hash against a known expected entity,
// per spec section 4.2: it locates the claim whose entity-id equals
// expected, restricts recovered EOAs to the entity's validator set when cfg
// is known, and otherwise falls back to self-contained verification (the
// claim's own threshold/weights, as in RecoverHankoEntities).
func VerifyAgainstEntity(h Hanko, hash codec.Hash32, expected EntityID, cfg *QuorumConfig) error {
	if cfg != nil {
		if err := verifyEOAsInValidatorSet(h, hash, cfg); err != nil {
			return err
		}
	}

	yes, err := RecoverHankoEntities(h, hash)
	if err != nil {
		return err
	}
	for _, e := range yes {
		if e == expected {
			return nil
		}
	}
	return xerrors.ConsensusFailure("hanko.VerifyAgainstEntity", fmt.Errorf("no accepted claim for entity %x", expected))
}

func verifyEOAsInValidatorSet(h Hanko, hash codec.Hash32, cfg *QuorumConfig) error {
	allowed := make(map[[32]byte]bool, len(cfg.ValidatorEOAs))
	for _, v := range cfg.ValidatorEOAs {
		allowed[v] = true
	}
	for _, sig := range h.PackedSigs {
		eoa, err := cryptokeys.Recover(hash, sig)
		if err != nil {
			return err
		}
		if !allowed[eoa] {
			return xerrors.ConsensusFailure("hanko.VerifyAgainstEntity", fmt.Errorf("recovered EOA %x is not a validator of the expected entity", eoa))
		}
	}
	return nil
}
