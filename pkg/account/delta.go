package account

import "math/big"

// capacity holds the derived, non-negative send/receive capacities for one
// side of a delta row (spec section 3, "derived quantities").
type capacity struct {
	Out *big.Int // amount this side may currently send
	In  *big.Int // amount this side may currently receive, bounded by the counterparty's out capacity
}

// totalCapacity returns collateral + leftCreditLimit + rightCreditLimit, the
// invariant ceiling every derived capacity is measured against.
func (d *Delta) totalCapacity() *big.Int {
	t := new(big.Int).Set(d.Collateral)
	t.Add(t, d.LeftCreditLimit)
	t.Add(t, d.RightCreditLimit)
	return t
}

// ownCollateralShare splits collateral between left and right according to
// the signed net transfer ondelta+offdelta: a negative total means left has
// sent value away and its own share shrinks accordingly. The split is
// clamped to [0, collateral] so a share never goes negative or exceeds the
// deposited total.
func (d *Delta) ownCollateralShare(isLeft bool) *big.Int {
	total := new(big.Int).Add(d.Ondelta, d.Offdelta)
	left := new(big.Int).Add(d.Collateral, total)
	if left.Sign() < 0 {
		left.SetInt64(0)
	}
	if left.Cmp(d.Collateral) > 0 {
		left.Set(d.Collateral)
	}
	if isLeft {
		return left
	}
	return new(big.Int).Sub(d.Collateral, left)
}

func (d *Delta) holds(isLeft bool) *big.Int {
	h := new(big.Int)
	if isLeft {
		h.Add(h, d.LeftHtlcHold)
		h.Add(h, d.LeftSwapHold)
		h.Add(h, d.LeftSettleHold)
	} else {
		h.Add(h, d.RightHtlcHold)
		h.Add(h, d.RightSwapHold)
		h.Add(h, d.RightSettleHold)
	}
	return h
}

func (d *Delta) creditLimit(isLeft bool) *big.Int {
	if isLeft {
		return d.LeftCreditLimit
	}
	return d.RightCreditLimit
}

func (d *Delta) allowance(isLeft bool) *big.Int {
	if isLeft {
		return d.LeftAllowance
	}
	return d.RightAllowance
}

// outCapacity is the non-negative, hold-adjusted amount isLeft may currently
// send: its own collateral share plus the credit extended to it by the
// counterparty, less anything it has already committed via a hold. An
// allowance greater than zero additionally caps the result, modeling a
// voluntary self-imposed spending limit (spec's leftAllowance/rightAllowance
// fields; see DESIGN.md for this resolution of an otherwise-unspecified
// field).
func (d *Delta) outCapacity(isLeft bool) *big.Int {
	share := d.ownCollateralShare(isLeft)
	out := new(big.Int).Add(share, d.creditLimit(isLeft))
	out.Sub(out, d.holds(isLeft))
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	if allow := d.allowance(isLeft); allow.Sign() > 0 && allow.Cmp(out) < 0 {
		out.Set(allow)
	}
	return out
}

// inCapacity is the amount isLeft may currently receive: bounded by how much
// the counterparty can still send.
func (d *Delta) inCapacity(isLeft bool) *big.Int {
	return d.outCapacity(!isLeft)
}

func (d *Delta) capacities(isLeft bool) capacity {
	return capacity{Out: d.outCapacity(isLeft), In: d.inCapacity(isLeft)}
}
