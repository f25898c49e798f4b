package account

import (
	"bytes"
	"math/big"
	"sort"
)

// CanonicalOrder returns (left, right) such that left's byte representation
// sorts before right's, the deterministic tiebreaker spec section 4.3 uses
// both to assign the left/right roles for a new account and to resolve
// simultaneous proposals.
func CanonicalOrder(a, b EntityID) (left, right EntityID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// New creates an empty account between the canonically ordered pair.
func New(a, b EntityID) *Account {
	left, right := CanonicalOrder(a, b)
	return &Account{
		Left:    left,
		Right:   right,
		Deltas:  make(map[TokenID]*Delta),
		HTLCs:   make(map[[32]byte]*HTLCLock),
		Offers:  make(map[[32]byte]*SwapOffer),
		History: newFrameHistory(),
		CurrentFrame: &Frame{
			Height: 0,
		},
	}
}

func (a *Account) getOrCreateDelta(tokenID TokenID) *Delta {
	if d, ok := a.Deltas[tokenID]; ok {
		return d
	}
	d := newDelta(tokenID)
	a.Deltas[tokenID] = d
	return d
}

// sortedTokenIDs returns the set of token IDs with a non-elidable delta row
// or nonzero collateral, ascending -- the canonical order a frame's TokenIDs/Deltas slices use.
func (a *Account) sortedTokenIDs() []TokenID {
	ids := make([]TokenID, 0, len(a.Deltas))
	for id, d := range a.Deltas {
		if !d.isElidable() || d.Collateral.Sign() != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (a *Account) snapshotDeltas() ([]TokenID, []*Delta) {
	ids := a.sortedTokenIDs()
	deltas := make([]*Delta, len(ids))
	for i, id := range ids {
		deltas[i] = a.Deltas[id].clone()
	}
	return ids, deltas
}

// Capacity exposes the derived in/out capacity for tokenID from the
// perspective of self (which must be a.Left or a.Right).
func (a *Account) Capacity(self EntityID, tokenID TokenID) (in, out *big.Int) {
	d, ok := a.Deltas[tokenID]
	if !ok {
		d = newDelta(tokenID)
	}
	c := d.capacities(self == a.Left)
	return c.In, c.Out
}
