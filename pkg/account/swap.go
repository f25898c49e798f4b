package account

import "math/big"

// applySwapOffer opens a limit-order-like offer, holding GiveAmount against
// the offering side's capacity until filled or cancelled.
func (a *Account) applySwapOffer(t *SwapOfferTx) error {
	if t == nil {
		return errValidation("account.swap_offer", "missing payload")
	}
	if _, exists := a.Offers[t.OfferID]; exists {
		return errValidation("account.swap_offer", "offer id %x already open", t.OfferID)
	}
	if t.GiveAmount == nil || t.GiveAmount.Sign() <= 0 || t.WantAmount == nil || t.WantAmount.Sign() <= 0 {
		return errValidation("account.swap_offer", "give/want amounts must be positive")
	}
	d := a.getOrCreateDelta(t.GiveTokenID)
	if d.outCapacity(t.FromLeft).Cmp(t.GiveAmount) < 0 {
		return errValidation("account.swap_offer", "give amount exceeds offering side capacity")
	}
	if t.FromLeft {
		d.LeftSwapHold.Add(d.LeftSwapHold, t.GiveAmount)
	} else {
		d.RightSwapHold.Add(d.RightSwapHold, t.GiveAmount)
	}
	a.Offers[t.OfferID] = &SwapOffer{
		OfferID:      t.OfferID,
		FromLeft:     t.FromLeft,
		GiveTokenID:  t.GiveTokenID,
		GiveAmount:   new(big.Int).Set(t.GiveAmount),
		WantTokenID:  t.WantTokenID,
		WantAmount:   new(big.Int).Set(t.WantAmount),
		MinFillRatio: t.MinFillRatio,
	}
	return nil
}

// applySwapCancel releases an offer's hold without executing a trade.
func (a *Account) applySwapCancel(t *SwapCancelTx) error {
	if t == nil {
		return errValidation("account.swap_cancel", "missing payload")
	}
	offer, ok := a.Offers[t.OfferID]
	if !ok {
		return errValidation("account.swap_cancel", "no open offer %x", t.OfferID)
	}
	d := a.getOrCreateDelta(offer.GiveTokenID)
	releaseSwapHold(d, offer.FromLeft, offer.GiveAmount)
	delete(a.Offers, t.OfferID)
	return nil
}

// applySwapResolve fills all or part of an open offer: the counterparty
// (the side opposite offer.FromLeft) pays WantAmount scaled to FillAmount,
// the offering side's held GiveAmount is released to the counterparty in
// the same proportion.
func (a *Account) applySwapResolve(t *SwapResolveTx) error {
	if t == nil {
		return errValidation("account.swap_resolve", "missing payload")
	}
	offer, ok := a.Offers[t.OfferID]
	if !ok {
		return errValidation("account.swap_resolve", "no open offer %x", t.OfferID)
	}
	if t.FillAmount == nil || t.FillAmount.Sign() <= 0 || t.FillAmount.Cmp(offer.GiveAmount) > 0 {
		return errValidation("account.swap_resolve", "fill amount out of range")
	}
	if offer.MinFillRatio > 0 {
		ratio := new(big.Int).Mul(t.FillAmount, big.NewInt(65535))
		ratio.Div(ratio, offer.GiveAmount)
		if ratio.Cmp(big.NewInt(int64(offer.MinFillRatio))) < 0 {
			return errValidation("account.swap_resolve", "fill ratio below offer minimum")
		}
	}

	// proportional counter-payment: wantPaid = WantAmount * fill / give
	wantPaid := new(big.Int).Mul(offer.WantAmount, t.FillAmount)
	wantPaid.Div(wantPaid, offer.GiveAmount)

	giveDelta := a.getOrCreateDelta(offer.GiveTokenID)
	wantDelta := a.getOrCreateDelta(offer.WantTokenID)

	counterpartyIsLeft := !offer.FromLeft
	if wantDelta.outCapacity(counterpartyIsLeft).Cmp(wantPaid) < 0 {
		return errValidation("account.swap_resolve", "counterparty lacks capacity to fill")
	}

	releaseSwapHold(giveDelta, offer.FromLeft, t.FillAmount)
	giveSigned := new(big.Int).Set(t.FillAmount)
	if offer.FromLeft {
		giveSigned.Neg(giveSigned)
	}
	giveDelta.Offdelta.Add(giveDelta.Offdelta, giveSigned)

	wantSigned := new(big.Int).Set(wantPaid)
	if counterpartyIsLeft {
		wantSigned.Neg(wantSigned)
	}
	wantDelta.Offdelta.Add(wantDelta.Offdelta, wantSigned)

	offer.GiveAmount.Sub(offer.GiveAmount, t.FillAmount)
	offer.WantAmount.Sub(offer.WantAmount, wantPaid)
	if offer.GiveAmount.Sign() == 0 {
		delete(a.Offers, t.OfferID)
	}
	return nil
}

func releaseSwapHold(d *Delta, fromLeft bool, amount *big.Int) {
	if fromLeft {
		d.LeftSwapHold.Sub(d.LeftSwapHold, amount)
	} else {
		d.RightSwapHold.Sub(d.RightSwapHold, amount)
	}
}
