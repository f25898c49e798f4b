package jbatch

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/abicoder"
)

// appenders refuse to mutate a sent batch (spec section 4.5: "Appenders...
// refuse to mutate a state whose status is sent") -- a new current batch
// only starts accumulating again once the sent one is reconciled.
func (s *State) checkMutable(op string) error {
	if s.Sent != nil {
		return errValidation(op, "batch is sent and awaiting on-chain reconciliation")
	}
	return nil
}

// AddReserveToReserve appends a reserveToReserve operation; spec lists no
// merge rule for this op beyond append.
func (s *State) AddReserveToReserve(receivingEntity [32]byte, tokenID uint32, amount *big.Int) error {
	if err := s.checkMutable("jbatch.AddReserveToReserve"); err != nil {
		return err
	}
	s.Current.ReserveToReserve = append(s.Current.ReserveToReserve, abicoder.ReserveToReserve{
		ReceivingEntity: receivingEntity,
		TokenID:         new(big.Int).SetUint64(uint64(tokenID)),
		Amount:          new(big.Int).Set(amount),
	})
	s.refreshStatus()
	return nil
}

// AddReserveToCollateral merges amount into an existing
// (tokenId,receivingEntity,entity) row when one exists, per spec section
// 4.5's "duplicate R->C for same (entity,counterparty,token) merges
// amounts".
func (s *State) AddReserveToCollateral(tokenID uint32, receivingEntity, fromEntity [32]byte, amount *big.Int) error {
	if err := s.checkMutable("jbatch.AddReserveToCollateral"); err != nil {
		return err
	}
	tid := new(big.Int).SetUint64(uint64(tokenID))
	for i := range s.Current.ReserveToCollateral {
		row := &s.Current.ReserveToCollateral[i]
		if row.TokenID.Cmp(tid) != 0 || row.ReceivingEntity != receivingEntity {
			continue
		}
		for j := range row.Pairs {
			if row.Pairs[j].Entity == fromEntity {
				row.Pairs[j].Amount.Add(row.Pairs[j].Amount, amount)
				s.refreshStatus()
				return nil
			}
		}
		row.Pairs = append(row.Pairs, abicoder.ReserveToCollateralPair{
			Entity: fromEntity, Amount: new(big.Int).Set(amount),
		})
		s.refreshStatus()
		return nil
	}
	s.Current.ReserveToCollateral = append(s.Current.ReserveToCollateral, abicoder.ReserveToCollateral{
		TokenID:         tid,
		ReceivingEntity: receivingEntity,
		Pairs: []abicoder.ReserveToCollateralPair{
			{Entity: fromEntity, Amount: new(big.Int).Set(amount)},
		},
	})
	s.refreshStatus()
	return nil
}

// AddCollateralToReserve appends a pre-compressed C2R entry (see c2r.go for
// the compression decision itself).
func (s *State) AddCollateralToReserve(c abicoder.CollateralToReserve) error {
	if err := s.checkMutable("jbatch.AddCollateralToReserve"); err != nil {
		return err
	}
	s.Current.CollateralToReserve = append(s.Current.CollateralToReserve, c)
	s.refreshStatus()
	return nil
}

// AddSettlement merges diffs into an existing settlement for the same
// ordered (left,right) pair unless that settlement already carries a
// signature -- spec section 4.5: "unless a signed one already exists,
// which must not be silently re-signed."
func (s *State) AddSettlement(set abicoder.Settlement) error {
	if err := s.checkMutable("jbatch.AddSettlement"); err != nil {
		return err
	}
	for i := range s.Current.Settlements {
		row := &s.Current.Settlements[i]
		if row.LeftEntity != set.LeftEntity || row.RightEntity != set.RightEntity {
			continue
		}
		if len(row.Sig) > 0 {
			return errValidation("jbatch.AddSettlement", "settlement for (%x,%x) is already signed; cannot merge further diffs", set.LeftEntity, set.RightEntity)
		}
		row.Diffs = mergeSettlementDiffs(row.Diffs, set.Diffs)
		if len(set.Sig) > 0 {
			row.Sig = set.Sig
			row.EntityProvider = set.EntityProvider
			row.HankoData = set.HankoData
			row.Nonce = set.Nonce
		}
		s.refreshStatus()
		return nil
	}
	s.Current.Settlements = append(s.Current.Settlements, set)
	s.refreshStatus()
	return nil
}

func mergeSettlementDiffs(existing, incoming []abicoder.SettlementDiff) []abicoder.SettlementDiff {
	for _, in := range incoming {
		merged := false
		for i := range existing {
			if existing[i].TokenID.Cmp(in.TokenID) == 0 {
				existing[i].LeftDiff.Add(existing[i].LeftDiff, in.LeftDiff)
				existing[i].RightDiff.Add(existing[i].RightDiff, in.RightDiff)
				existing[i].CollateralDiff.Add(existing[i].CollateralDiff, in.CollateralDiff)
				existing[i].OndeltaDiff.Add(existing[i].OndeltaDiff, in.OndeltaDiff)
				merged = true
				break
			}
		}
		if !merged {
			existing = append(existing, in)
		}
	}
	return existing
}

// AddRevealSecret appends a secret reveal operation.
func (s *State) AddRevealSecret(transformer [20]byte, secret [32]byte) error {
	if err := s.checkMutable("jbatch.AddRevealSecret"); err != nil {
		return err
	}
	s.Current.RevealSecrets = append(s.Current.RevealSecrets, abicoder.RevealSecret{
		Transformer: transformer, Secret: secret,
	})
	s.refreshStatus()
	return nil
}

// AddDisputeStart appends a dispute-start operation.
func (s *State) AddDisputeStart(d abicoder.DisputeStart) error {
	if err := s.checkMutable("jbatch.AddDisputeStart"); err != nil {
		return err
	}
	s.Current.DisputeStarts = append(s.Current.DisputeStarts, d)
	s.refreshStatus()
	return nil
}

// AddDisputeFinalization appends a dispute-finalization operation.
func (s *State) AddDisputeFinalization(d abicoder.DisputeFinalization) error {
	if err := s.checkMutable("jbatch.AddDisputeFinalization"); err != nil {
		return err
	}
	s.Current.DisputeFinalizations = append(s.Current.DisputeFinalizations, d)
	s.refreshStatus()
	return nil
}

// Abort unconditionally discards both the current and sent batches (spec
// section 4.5, "j_clear_batch").
func (s *State) Abort() {
	s.Current = abicoder.Batch{}
	s.Sent = nil
	s.Status = StatusEmpty
}
