package jbatch

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/abicoder"
)

// TryCompressSettlement implements the C2R compression decision of spec
// section 4.5: a settlement whose single diff moves collateral to reserve
// for one side, with no other payloads, can be emitted as a compact
// collateralToReserve entry instead of a full settlements[] row. Returns
// ok=false when set does not match the pattern, in which case the caller
// must append set to Settlements unchanged.
func TryCompressSettlement(set abicoder.Settlement) (c abicoder.CollateralToReserve, ok bool) {
	if len(set.Diffs) != 1 || len(set.ForgiveDebtsInTokenIds) != 0 {
		return c, false
	}
	diff := set.Diffs[0]
	if diff.CollateralDiff == nil || diff.CollateralDiff.Sign() >= 0 {
		return c, false
	}
	amount := new(big.Int).Neg(diff.CollateralDiff)

	leftWithdraws := diff.OndeltaDiff != nil && diff.OndeltaDiff.Sign() < 0 && new(big.Int).Neg(diff.OndeltaDiff).Cmp(amount) == 0
	rightWithdraws := diff.OndeltaDiff != nil && diff.OndeltaDiff.Sign() == 0
	if !leftWithdraws && !rightWithdraws {
		return c, false
	}

	counterparty := set.RightEntity
	if rightWithdraws {
		counterparty = set.LeftEntity
	}
	return abicoder.CollateralToReserve{
		Counterparty: counterparty,
		TokenID:      diff.TokenID,
		Amount:       amount,
		Nonce:        set.Nonce,
		Sig:          set.Sig,
	}, true
}

// AddSettlementCompressed appends set as a compact collateralToReserve
// entry when it matches the C2R pattern, otherwise as a full settlement
// (spec §8 property 9: both forms must produce the same on-chain state
// transition, so the caller never needs to choose -- this always picks the
// smaller encoding).
func (s *State) AddSettlementCompressed(set abicoder.Settlement) error {
	if c, ok := TryCompressSettlement(set); ok {
		return s.AddCollateralToReserve(c)
	}
	return s.AddSettlement(set)
}
