package account

// Clone returns a copy of a for the entity machine's PrepareProposal to
// probe a candidate entity frame against without mutating the committed
// account. The delta, HTLC and offer tables, the mempool and the history
// ring are copied independently; the committed frame and the pending
// proposal are copied one level deep, so their slices and the pending
// proposal's frame pointer stay shared with a.
func (a *Account) Clone() *Account {
	cp := &Account{
		Left:               a.Left,
		Right:              a.Right,
		Mempool:            append([]Tx{}, a.Mempool...),
		Deltas:             make(map[TokenID]*Delta, len(a.Deltas)),
		HTLCs:              make(map[[32]byte]*HTLCLock, len(a.HTLCs)),
		Offers:             make(map[[32]byte]*SwapOffer, len(a.Offers)),
		ProofHeader:        a.ProofHeader,
		LastCooperativeSig: a.LastCooperativeSig,
		LastSettledNonce:   a.LastSettledNonce,
		History:            a.History.clone(),
		RollbackCount:      a.RollbackCount,
		lastRolledBack:     a.lastRolledBack,
	}
	s := cloneState(stateSnapshot{Deltas: a.Deltas, HTLCs: a.HTLCs, Offers: a.Offers})
	cp.Deltas, cp.HTLCs, cp.Offers = s.Deltas, s.HTLCs, s.Offers
	if a.CurrentFrame != nil {
		f := *a.CurrentFrame
		cp.CurrentFrame = &f
	}
	if a.Pending != nil {
		p := *a.Pending
		cp.Pending = &p
	}
	return cp
}
