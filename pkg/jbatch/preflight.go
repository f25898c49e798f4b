package jbatch

import (
	"bytes"

	"github.com/certen/xln-settlement/pkg/abicoder"
)

// Preflight runs the structural checks spec section 4.5 requires before a
// batch may be broadcast. Grounded on the teacher's pkg/batch/proof_helpers.go
// pre-submission validation pattern.
func Preflight(b abicoder.Batch, submittingEntity [32]byte) error {
	for _, set := range b.Settlements {
		if bytes.Compare(set.LeftEntity[:], set.RightEntity[:]) >= 0 {
			return errValidation("jbatch.Preflight", "settlement leftEntity must sort before rightEntity")
		}
		if len(set.Diffs) > 0 && len(set.Sig) == 0 {
			return errValidation("jbatch.Preflight", "settlement for (%x,%x) carries diffs but no signature", set.LeftEntity, set.RightEntity)
		}
	}

	lastNonce := uint64(0)
	for _, ds := range b.DisputeStarts {
		n := ds.Nonce.Uint64()
		if n <= lastNonce && lastNonce != 0 {
			return errValidation("jbatch.Preflight", "disputeStarts nonces must be strictly increasing")
		}
		lastNonce = n
	}
	lastNonce = 0
	for _, df := range b.DisputeFinalizations {
		n := df.Nonce.Uint64()
		if n <= lastNonce && lastNonce != 0 {
			return errValidation("jbatch.Preflight", "disputeFinalizations nonces must be strictly increasing")
		}
		lastNonce = n
	}

	for _, et := range b.ExternalTokenToReserve {
		if et.Entity != submittingEntity {
			return errValidation("jbatch.Preflight", "externalTokenToReserve entity %x does not match submitting entity", et.Entity)
		}
	}
	for _, re := range b.ReserveToExternalToken {
		if re.Entity != submittingEntity {
			return errValidation("jbatch.Preflight", "reserveToExternalToken entity %x does not match submitting entity", re.Entity)
		}
	}

	var zeroAddr [20]byte
	for _, rs := range b.RevealSecrets {
		if rs.Transformer == zeroAddr {
			return errValidation("jbatch.Preflight", "revealSecrets entry has zero transformer address")
		}
	}
	return nil
}
