// Package account implements the bilateral account frame machine of spec
// section 4.3: delta accounting, HTLCs, swap offers, and the
// proposer/acceptor frame consensus protocol between exactly two entities.
package account

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/hanko"
)

// EntityID is a 32-byte entity identifier.
type EntityID = hanko.EntityID

// TokenID is a small non-negative integer assigned by the jurisdiction
// registry.
type TokenID uint32

// Delta is the per-token bilateral accounting record of spec section 3.
type Delta struct {
	TokenID TokenID

	Collateral *big.Int // >= 0
	Ondelta    *big.Int // signed, on-chain portion
	Offdelta   *big.Int // signed, off-chain portion

	LeftCreditLimit  *big.Int // >= 0
	RightCreditLimit *big.Int // >= 0
	LeftAllowance    *big.Int
	RightAllowance   *big.Int

	LeftHtlcHold   *big.Int
	RightHtlcHold  *big.Int
	LeftSwapHold   *big.Int
	RightSwapHold  *big.Int
	LeftSettleHold *big.Int
	RightSettleHold *big.Int
}

// isElidable reports whether d's offdelta, credit limits, allowances and
// holds are all zero; collateral and ondelta are not considered. Used to
// elide a token row from a serialized frame (spec section 4.3 step 2).
func (d *Delta) isElidable() bool {
	return isZero(d.Offdelta) &&
		isZero(d.LeftCreditLimit) && isZero(d.RightCreditLimit) &&
		isZero(d.LeftAllowance) && isZero(d.RightAllowance) &&
		isZero(d.LeftHtlcHold) && isZero(d.RightHtlcHold) &&
		isZero(d.LeftSwapHold) && isZero(d.RightSwapHold) &&
		isZero(d.LeftSettleHold) && isZero(d.RightSettleHold)
}

func isZero(b *big.Int) bool { return b == nil || b.Sign() == 0 }

func newDelta(tokenID TokenID) *Delta {
	zero := func() *big.Int { return big.NewInt(0) }
	return &Delta{
		TokenID:          tokenID,
		Collateral:       zero(),
		Ondelta:          zero(),
		Offdelta:         zero(),
		LeftCreditLimit:  zero(),
		RightCreditLimit: zero(),
		LeftAllowance:    zero(),
		RightAllowance:   zero(),
		LeftHtlcHold:     zero(),
		RightHtlcHold:    zero(),
		LeftSwapHold:     zero(),
		RightSwapHold:    zero(),
		LeftSettleHold:   zero(),
		RightSettleHold:  zero(),
	}
}

func (d *Delta) clone() *Delta {
	cp := *d
	clone := func(b *big.Int) *big.Int { return new(big.Int).Set(b) }
	cp.Collateral = clone(d.Collateral)
	cp.Ondelta = clone(d.Ondelta)
	cp.Offdelta = clone(d.Offdelta)
	cp.LeftCreditLimit = clone(d.LeftCreditLimit)
	cp.RightCreditLimit = clone(d.RightCreditLimit)
	cp.LeftAllowance = clone(d.LeftAllowance)
	cp.RightAllowance = clone(d.RightAllowance)
	cp.LeftHtlcHold = clone(d.LeftHtlcHold)
	cp.RightHtlcHold = clone(d.RightHtlcHold)
	cp.LeftSwapHold = clone(d.LeftSwapHold)
	cp.RightSwapHold = clone(d.RightSwapHold)
	cp.LeftSettleHold = clone(d.LeftSettleHold)
	cp.RightSettleHold = clone(d.RightSettleHold)
	return &cp
}

// HTLCOutcome discriminates a resolved HTLC.
type HTLCOutcome string

const (
	HTLCOutcomeSecret HTLCOutcome = "secret"
	HTLCOutcomeError  HTLCOutcome = "error"
)

// HTLCLock is an open hash-time-locked commitment.
type HTLCLock struct {
	LockID             [32]byte
	HashLock           codec.Hash32
	Timelock           uint64
	RevealBeforeHeight uint64
	Amount             *big.Int
	TokenID            TokenID
	FromLeft           bool // true if the sender is the left entity
	Envelope           []byte
}

// SwapOffer is an open limit-order-like offer (spec section 4.3).
type SwapOffer struct {
	OfferID       [32]byte
	FromLeft      bool
	GiveTokenID   TokenID
	GiveAmount    *big.Int
	WantTokenID   TokenID
	WantAmount    *big.Int
	MinFillRatio  uint16 // out of 65535
}

// ProofHeader carries the on-chain dispute domain counters of spec section
// 4.3: cooperativeNonce lives per-frame (see DESIGN.md open question
// resolution), disputeNonce mirrors the current committed height.
type ProofHeader struct {
	FromEntity      EntityID
	ToEntity        EntityID
	CooperativeNonce uint64
	DisputeNonce    uint64
}

// Frame is the atomic, height-indexed account state-update record.
type Frame struct {
	Height         uint64
	Timestamp      uint64 // unix millis
	JHeight        uint64
	AccountTxs     []Tx
	PrevFrameHash  codec.Hash32
	TokenIDs       []TokenID
	Deltas         []*Delta // canonically sorted by TokenID, zero rows elided
	StateHash      codec.Hash32
}

// frameForHashing drops StateHash so hashing the struct never includes
// itself (spec section 4.3 step 2: stateHash = keccak256(canonical(frame
// without stateHash))).
type frameForHashing struct {
	Height        uint64
	Timestamp     uint64
	JHeight       uint64
	AccountTxs    []Tx
	PrevFrameHash codec.Hash32
	TokenIDs      []TokenID
	Deltas        []*Delta
}

func (f *Frame) computeStateHash() (codec.Hash32, error) {
	return codec.HashCanonical(frameForHashing{
		Height:        f.Height,
		Timestamp:     f.Timestamp,
		JHeight:       f.JHeight,
		AccountTxs:    f.AccountTxs,
		PrevFrameHash: f.PrevFrameHash,
		TokenIDs:      f.TokenIDs,
		Deltas:        f.Deltas,
	})
}

// Proposal is a pending, not-yet-committed frame awaiting the
// counterparty's ACK.
type Proposal struct {
	Frame       *Frame
	FrameHanko  hanko.Hanko
	DisputeHanko hanko.Hanko
}

// Account is the bilateral state between a canonical left and right entity.
// Both sides store identical structure (spec section 3).
type Account struct {
	Left  EntityID
	Right EntityID

	CurrentFrame *Frame
	Mempool      []Tx
	Pending      *Proposal

	Deltas map[TokenID]*Delta

	HTLCs  map[[32]byte]*HTLCLock
	Offers map[[32]byte]*SwapOffer

	ProofHeader        ProofHeader
	LastCooperativeSig hanko.Hanko // counterparty's dispute hanko over the latest proof body
	LastSettledNonce   uint64

	History *frameHistory // bounded to last 10, see history.go

	RollbackCount   int
	lastRolledBack  codec.Hash32
}

// IsLocalLeft reports whether self plays the canonical "left" role for this
// pair. The caller must have already canonicalized left/right via
// CanonicalOrder.
func (a *Account) IsLocalLeft(self EntityID) bool { return self == a.Left }

// signer is the minimal signing surface the account layer needs; entity
// replicas supply their own derived key through this interface, so account
// has no key-management responsibility of its own (spec section 9, "Global
// mutable state").
type Signer interface {
	Sign(hash codec.Hash32) (cryptokeys.Signature65, error)
	EntityID() EntityID
	QuorumConfig() hanko.QuorumConfig
	BuildHanko(hash codec.Hash32) (hanko.Hanko, error)
}
