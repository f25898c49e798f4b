package account

import "math/big"

// TxKind discriminates the account-transaction tagged union of spec section
// 4.3.
type TxKind string

const (
	TxDirectPayment  TxKind = "direct_payment"
	TxAddDelta       TxKind = "add_delta"
	TxSetCreditLimit TxKind = "set_credit_limit"
	TxHTLCLock       TxKind = "htlc_lock"
	TxHTLCResolve    TxKind = "htlc_resolve"
	TxSwapOffer      TxKind = "swap_offer"
	TxSwapCancel     TxKind = "swap_cancel"
	TxSwapResolve    TxKind = "swap_resolve"
	TxSettleHold     TxKind = "settle_hold"
	TxSettleRelease  TxKind = "settle_release"
	TxJSync          TxKind = "j_sync"
)

// Tx is one account-transaction envelope. Exactly one payload field is set,
// matching Kind; this mirrors a tagged sum type without resorting to
// interface{} payloads, so canonical encoding stays a plain struct walk.
type Tx struct {
	Kind TxKind

	DirectPayment  *DirectPaymentTx  `json:"directPayment,omitempty"`
	AddDelta       *AddDeltaTx       `json:"addDelta,omitempty"`
	SetCreditLimit *SetCreditLimitTx `json:"setCreditLimit,omitempty"`
	HTLCLock       *HTLCLockTx       `json:"htlcLock,omitempty"`
	HTLCResolve    *HTLCResolveTx    `json:"htlcResolve,omitempty"`
	SwapOffer      *SwapOfferTx      `json:"swapOffer,omitempty"`
	SwapCancel     *SwapCancelTx     `json:"swapCancel,omitempty"`
	SwapResolve    *SwapResolveTx    `json:"swapResolve,omitempty"`
	SettleHold     *SettleHoldTx     `json:"settleHold,omitempty"`
	SettleRelease  *SettleReleaseTx  `json:"settleRelease,omitempty"`
	JSync          *JSyncTx          `json:"jSync,omitempty"`
}

type DirectPaymentTx struct {
	TokenID TokenID
	Amount  *big.Int
	FromLeft bool
}

type AddDeltaTx struct {
	TokenID TokenID
}

type SetCreditLimitTx struct {
	TokenID    TokenID
	FromLeft   bool // which side's extended credit limit is being set
	NewLimit   *big.Int
}

type HTLCLockTx struct {
	LockID             [32]byte
	TokenID            TokenID
	Amount             *big.Int
	FromLeft           bool
	HashLock           [32]byte
	Timelock           uint64
	RevealBeforeHeight uint64
	Envelope           []byte
}

type HTLCResolveTx struct {
	LockID  [32]byte
	Outcome HTLCOutcome
	Secret  []byte // present when Outcome == HTLCOutcomeSecret
}

type SwapOfferTx struct {
	OfferID      [32]byte
	FromLeft     bool
	GiveTokenID  TokenID
	GiveAmount   *big.Int
	WantTokenID  TokenID
	WantAmount   *big.Int
	MinFillRatio uint16
}

type SwapCancelTx struct {
	OfferID [32]byte
}

type SwapResolveTx struct {
	OfferID    [32]byte
	FillAmount *big.Int // amount of GiveAmount actually filled
}

type SettleHoldTx struct {
	TokenID  TokenID
	FromLeft bool
	Amount   *big.Int
}

type SettleReleaseTx struct {
	TokenID  TokenID
	FromLeft bool
	Amount   *big.Int
}

// JSyncTx carries a batch of jurisdiction-observed events pegged to a
// specific J-height, applied atomically (spec section 4.3, "j_sync").
type JSyncTx struct {
	JHeight uint64
	Events  []JEvent
}

// JEvent is one on-chain event folded into the delta table by a j_sync.
type JEvent struct {
	TokenID          TokenID
	CollateralDelta  *big.Int // signed change to Collateral
	OndeltaDelta     *big.Int // signed change to Ondelta
}
