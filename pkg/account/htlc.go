package account

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/codec"
)

// applyHTLCLock opens a hash-time-locked commitment, moving Amount into the
// sender's hold so it cannot be double-spent while the lock is outstanding
// (spec section 4.3, HTLC semantics).
func (a *Account) applyHTLCLock(t *HTLCLockTx) error {
	if t == nil {
		return errValidation("account.htlc_lock", "missing payload")
	}
	if _, exists := a.HTLCs[t.LockID]; exists {
		return errValidation("account.htlc_lock", "lock id %x already open", t.LockID)
	}
	if t.Amount == nil || t.Amount.Sign() <= 0 {
		return errValidation("account.htlc_lock", "amount must be positive")
	}
	if t.RevealBeforeHeight == 0 {
		return errValidation("account.htlc_lock", "revealBeforeHeight must reference a J-height")
	}
	d := a.getOrCreateDelta(t.TokenID)
	if d.outCapacity(t.FromLeft).Cmp(t.Amount) < 0 {
		return errValidation("account.htlc_lock", "amount %s exceeds sender capacity", t.Amount)
	}
	if t.FromLeft {
		d.LeftHtlcHold.Add(d.LeftHtlcHold, t.Amount)
	} else {
		d.RightHtlcHold.Add(d.RightHtlcHold, t.Amount)
	}
	a.HTLCs[t.LockID] = &HTLCLock{
		LockID:             t.LockID,
		HashLock:           t.HashLock,
		Timelock:           t.Timelock,
		RevealBeforeHeight: t.RevealBeforeHeight,
		Amount:             new(big.Int).Set(t.Amount),
		TokenID:            t.TokenID,
		FromLeft:           t.FromLeft,
		Envelope:           t.Envelope,
	}
	return nil
}

// applyHTLCResolve settles an open HTLC either by revealing the preimage
// (releasing the hold and crediting the recipient) or by error (releasing
// the hold back to the sender unmoved).
func (a *Account) applyHTLCResolve(t *HTLCResolveTx) error {
	if t == nil {
		return errValidation("account.htlc_resolve", "missing payload")
	}
	lock, ok := a.HTLCs[t.LockID]
	if !ok {
		return errValidation("account.htlc_resolve", "no open lock %x", t.LockID)
	}
	d := a.getOrCreateDelta(lock.TokenID)

	switch t.Outcome {
	case HTLCOutcomeSecret:
		h := codec.Keccak256(t.Secret)
		if h != lock.HashLock {
			return errValidation("account.htlc_resolve", "secret does not match hashlock")
		}
		releaseHold(d, lock.FromLeft, lock.Amount)
		signed := new(big.Int).Set(lock.Amount)
		if lock.FromLeft {
			signed.Neg(signed)
		}
		d.Offdelta.Add(d.Offdelta, signed)
	case HTLCOutcomeError:
		releaseHold(d, lock.FromLeft, lock.Amount)
	default:
		return errValidation("account.htlc_resolve", "unknown outcome %q", t.Outcome)
	}

	delete(a.HTLCs, t.LockID)
	return nil
}

// FindHTLCBySecret returns the lock id of an open HTLC whose hashlock
// matches keccak256(secret), if any -- used by the entity layer to route a
// jurisdiction-observed secret reveal to the right local lock without the
// caller needing to know lock ids in advance.
func (a *Account) FindHTLCBySecret(secret []byte) ([32]byte, bool) {
	h := codec.Keccak256(secret)
	for id, lock := range a.HTLCs {
		if lock.HashLock == h {
			return id, true
		}
	}
	return [32]byte{}, false
}

func releaseHold(d *Delta, fromLeft bool, amount *big.Int) {
	if fromLeft {
		d.LeftHtlcHold.Sub(d.LeftHtlcHold, amount)
	} else {
		d.RightHtlcHold.Sub(d.RightHtlcHold, amount)
	}
}
