package account

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/workingcopy"
)

// stateSnapshot is the mutable portion of Account that a frame's
// transactions act on: delta table, HTLC locks, swap offers. It excludes
// structural fields (Left/Right/History/Mempool) that a frame never
// mutates, so WorkingCopy only ever clones what can actually change.
type stateSnapshot struct {
	Deltas map[TokenID]*Delta
	HTLCs  map[[32]byte]*HTLCLock
	Offers map[[32]byte]*SwapOffer
}

func (a *Account) snapshot() stateSnapshot {
	return stateSnapshot{Deltas: a.Deltas, HTLCs: a.HTLCs, Offers: a.Offers}
}

func cloneState(s stateSnapshot) stateSnapshot {
	deltas := make(map[TokenID]*Delta, len(s.Deltas))
	for k, v := range s.Deltas {
		deltas[k] = v.clone()
	}
	htlcs := make(map[[32]byte]*HTLCLock, len(s.HTLCs))
	for k, v := range s.HTLCs {
		cp := *v
		cp.Amount = new(big.Int).Set(v.Amount)
		htlcs[k] = &cp
	}
	offers := make(map[[32]byte]*SwapOffer, len(s.Offers))
	for k, v := range s.Offers {
		cp := *v
		cp.GiveAmount = new(big.Int).Set(v.GiveAmount)
		cp.WantAmount = new(big.Int).Set(v.WantAmount)
		offers[k] = &cp
	}
	return stateSnapshot{Deltas: deltas, HTLCs: htlcs, Offers: offers}
}

func newWorkingCopyFrom(a *Account) *workingcopy.WorkingCopy[stateSnapshot] {
	return workingcopy.New(a.snapshot(), cloneState)
}

// tryApply runs txs against a scratch copy of a's mutable state, always
// restoring a's original state before returning -- a pure probe used both
// to build a candidate frame and to replay one for verification. The
// caller decides whether to adopt the result via adoptState.
func (a *Account) tryApply(self EntityID, txs []Tx) (stateSnapshot, error) {
	wc := newWorkingCopyFrom(a)
	scratch := wc.Current()

	orig := a.snapshot()
	a.Deltas, a.HTLCs, a.Offers = scratch.Deltas, scratch.HTLCs, scratch.Offers
	defer func() { a.Deltas, a.HTLCs, a.Offers = orig.Deltas, orig.HTLCs, orig.Offers }()

	for i, tx := range txs {
		if err := a.applyTx(self, tx); err != nil {
			return stateSnapshot{}, errValidation("account.tryApply", "tx %d (%s): %v", i, tx.Kind, err)
		}
	}
	return a.snapshot(), nil
}

// adoptState replaces a's live delta/HTLC/offer tables with s -- called
// only once a frame has been fully verified (hash-checked and, where
// required, hanko-verified), never speculatively.
func (a *Account) adoptState(s stateSnapshot) {
	a.Deltas, a.HTLCs, a.Offers = s.Deltas, s.HTLCs, s.Offers
}
