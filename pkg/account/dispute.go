package account

import (
	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/hanko"
)

// DisputeProof is the self-contained evidence a single party can submit to
// the jurisdiction to force-settle an account whose counterparty stopped
// cooperating: the last mutually-signed frame plus the hanko that proves
// the counterparty accepted it.
type DisputeProof struct {
	Account        EntityID
	Counterparty   EntityID
	Frame          *Frame
	CounterpartyHanko hanko.Hanko
	ProofHash      codec.Hash32
}

// BuildDisputeProof packages the last committed frame and the
// counterparty's hanko over it, so a unilateral on-chain submission
// (spec section 4.3, "dispute proof") needs nothing else to verify.
func (a *Account) BuildDisputeProof(self EntityID, counterpartyHanko hanko.Hanko) (*DisputeProof, error) {
	f := a.CurrentFrame
	if f == nil || f.Height == 0 {
		return nil, errValidation("account.BuildDisputeProof", "no committed frame to dispute from")
	}
	proof := &DisputeProof{
		Account:           self,
		Counterparty:      a.counterpartyOf(self),
		Frame:             f,
		CounterpartyHanko: counterpartyHanko,
		ProofHash:         f.StateHash,
	}
	return proof, nil
}

// VerifyDisputeProof checks that proof.CounterpartyHanko actually
// authorizes proof.Counterparty over proof.Frame's state hash, the
// condition a jurisdiction contract would enforce before accepting a
// unilateral settlement.
func VerifyDisputeProof(proof *DisputeProof, cfg *hanko.QuorumConfig) error {
	if proof.Frame.StateHash != proof.ProofHash {
		return errConsensus("account.VerifyDisputeProof", "proof hash does not match frame state hash")
	}
	return hanko.VerifyAgainstEntity(proof.CounterpartyHanko, proof.ProofHash, proof.Counterparty, cfg)
}
