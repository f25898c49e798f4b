package account

import "math/big"

// applyTx mutates a's delta table, HTLC/offer sets per tx's kind. It is the
// single dispatch point both frame construction (proposer side) and frame
// validation (acceptor side) call, so the two paths can never diverge (spec
// section 4.3 step 1: "the proposer applies exactly the same handler the
// acceptor will replay").
func (a *Account) applyTx(self EntityID, tx Tx) error {
	isLeft := self == a.Left
	switch tx.Kind {
	case TxDirectPayment:
		return a.applyDirectPayment(isLeft, tx.DirectPayment)
	case TxAddDelta:
		return a.applyAddDelta(tx.AddDelta)
	case TxSetCreditLimit:
		return a.applySetCreditLimit(tx.SetCreditLimit)
	case TxHTLCLock:
		return a.applyHTLCLock(tx.HTLCLock)
	case TxHTLCResolve:
		return a.applyHTLCResolve(tx.HTLCResolve)
	case TxSwapOffer:
		return a.applySwapOffer(tx.SwapOffer)
	case TxSwapCancel:
		return a.applySwapCancel(tx.SwapCancel)
	case TxSwapResolve:
		return a.applySwapResolve(tx.SwapResolve)
	case TxSettleHold:
		return a.applySettleHold(tx.SettleHold)
	case TxSettleRelease:
		return a.applySettleRelease(tx.SettleRelease)
	case TxJSync:
		return a.applyJSync(tx.JSync)
	default:
		return errProtocol("account.applyTx", "unknown account tx kind %q", tx.Kind)
	}
}

func (a *Account) applyDirectPayment(senderIsLeft bool, t *DirectPaymentTx) error {
	if t == nil {
		return errValidation("account.direct_payment", "missing payload")
	}
	if t.Amount == nil || t.Amount.Sign() <= 0 {
		return errValidation("account.direct_payment", "amount must be positive")
	}
	d := a.getOrCreateDelta(t.TokenID)
	if d.outCapacity(t.FromLeft).Cmp(t.Amount) < 0 {
		return errValidation("account.direct_payment", "amount %s exceeds sender capacity %s", t.Amount, d.outCapacity(t.FromLeft))
	}
	// A left-originated payment moves value to the right, which is
	// recorded as offdelta becoming more negative (positive offdelta
	// means the right owes the left); a right-originated payment does
	// the opposite.
	signed := new(big.Int).Set(t.Amount)
	if t.FromLeft {
		signed.Neg(signed)
	}
	d.Offdelta.Add(d.Offdelta, signed)
	return nil
}

func (a *Account) applyAddDelta(t *AddDeltaTx) error {
	if t == nil {
		return errValidation("account.add_delta", "missing payload")
	}
	a.getOrCreateDelta(t.TokenID) // no-op beyond ensuring the row exists
	return nil
}

func (a *Account) applySetCreditLimit(t *SetCreditLimitTx) error {
	if t == nil {
		return errValidation("account.set_credit_limit", "missing payload")
	}
	if t.NewLimit == nil || t.NewLimit.Sign() < 0 {
		return errValidation("account.set_credit_limit", "credit limit must be non-negative")
	}
	d := a.getOrCreateDelta(t.TokenID)
	if t.FromLeft {
		d.LeftCreditLimit = new(big.Int).Set(t.NewLimit)
	} else {
		d.RightCreditLimit = new(big.Int).Set(t.NewLimit)
	}
	return nil
}
