package account

// applySettleHold reserves Amount against FromLeft's capacity pending a
// jurisdiction-batch settlement (spec section 4.5: a settlement in flight
// must not be double-spent bilaterally while its batch is unconfirmed).
func (a *Account) applySettleHold(t *SettleHoldTx) error {
	if t == nil {
		return errValidation("account.settle_hold", "missing payload")
	}
	if t.Amount == nil || t.Amount.Sign() <= 0 {
		return errValidation("account.settle_hold", "amount must be positive")
	}
	d := a.getOrCreateDelta(t.TokenID)
	if d.outCapacity(t.FromLeft).Cmp(t.Amount) < 0 {
		return errValidation("account.settle_hold", "amount exceeds capacity")
	}
	if t.FromLeft {
		d.LeftSettleHold.Add(d.LeftSettleHold, t.Amount)
	} else {
		d.RightSettleHold.Add(d.RightSettleHold, t.Amount)
	}
	return nil
}

// applySettleRelease releases a previously held settlement amount, either
// because the batch confirmed (value has already moved on-chain, via a
// subsequent j_sync) or because it failed and the hold is simply undone.
func (a *Account) applySettleRelease(t *SettleReleaseTx) error {
	if t == nil {
		return errValidation("account.settle_release", "missing payload")
	}
	d := a.getOrCreateDelta(t.TokenID)
	hold := d.LeftSettleHold
	if !t.FromLeft {
		hold = d.RightSettleHold
	}
	if hold.Cmp(t.Amount) < 0 {
		return errValidation("account.settle_release", "release amount exceeds outstanding hold")
	}
	if t.FromLeft {
		d.LeftSettleHold.Sub(d.LeftSettleHold, t.Amount)
	} else {
		d.RightSettleHold.Sub(d.RightSettleHold, t.Amount)
	}
	return nil
}

// applyJSync folds a batch of on-chain events into the delta table,
// atomically, pegged to JHeight (spec section 4.3, "j_sync"). Ondelta and
// Collateral are the only fields a j_sync may mutate; offdelta is purely an
// off-chain bilateral quantity.
func (a *Account) applyJSync(t *JSyncTx) error {
	if t == nil {
		return errValidation("account.j_sync", "missing payload")
	}
	for _, ev := range t.Events {
		d := a.getOrCreateDelta(ev.TokenID)
		if ev.CollateralDelta != nil {
			d.Collateral.Add(d.Collateral, ev.CollateralDelta)
			if d.Collateral.Sign() < 0 {
				return errConsensus("account.j_sync", "collateral went negative for token %d", ev.TokenID)
			}
		}
		if ev.OndeltaDelta != nil {
			d.Ondelta.Add(d.Ondelta, ev.OndeltaDelta)
		}
	}
	return nil
}
