package entity

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/abicoder"
	"github.com/certen/xln-settlement/pkg/account"
	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/hanko"
	"github.com/certen/xln-settlement/pkg/jurisdiction"
)

// TxKind discriminates the entity-transaction tagged union of spec section
// 4.4.
type TxKind string

const (
	TxChat              TxKind = "chat"
	TxProfileUpdate     TxKind = "profile_update"
	TxGovernancePropose TxKind = "propose"
	TxGovernanceVote    TxKind = "vote"

	TxOpenAccount        TxKind = "open_account"
	TxAccountInput       TxKind = "account_input"
	TxDirectPayment      TxKind = "direct_payment"
	TxRequestWithdrawal  TxKind = "request_withdrawal"
	TxExtendCredit       TxKind = "extend_credit"
	TxSettleHold         TxKind = "settle_hold"
	TxSettleRelease      TxKind = "settle_release"
	TxHTLCPayment        TxKind = "htlc_payment"
	TxSwapOffer          TxKind = "swap_offer"
	TxSwapCancel         TxKind = "swap_cancel"
	TxSwapResolve        TxKind = "swap_resolve"

	TxJEvent              TxKind = "j_event"
	TxJEventAccountClaim  TxKind = "j_event_account_claim"
	TxJBroadcast          TxKind = "j_broadcast"
	TxJClearBatch         TxKind = "j_clear_batch"

	TxPayToReserve     TxKind = "pay_to_reserve"
	TxPayFromReserve   TxKind = "pay_from_reserve"
	TxReserveToReserve TxKind = "reserve_to_reserve"
	TxCreateSettlement TxKind = "create_settlement"
)

// Tx is one entity-transaction envelope; exactly one payload field is set,
// matching Kind (same tagged-sum shape pkg/account uses).
type Tx struct {
	Kind TxKind

	Chat              *ChatTx              `json:"chat,omitempty"`
	ProfileUpdate     *ProfileUpdateTx     `json:"profileUpdate,omitempty"`
	GovernancePropose *GovernanceProposeTx `json:"governancePropose,omitempty"`
	GovernanceVote    *GovernanceVoteTx    `json:"governanceVote,omitempty"`

	OpenAccount       *OpenAccountTx       `json:"openAccount,omitempty"`
	AccountInput      *AccountInputTx      `json:"accountInput,omitempty"`
	DirectPayment     *DirectPaymentTx     `json:"directPayment,omitempty"`
	RequestWithdrawal *RequestWithdrawalTx `json:"requestWithdrawal,omitempty"`
	ExtendCredit      *ExtendCreditTx      `json:"extendCredit,omitempty"`
	SettleHold        *SettleHoldTx        `json:"settleHold,omitempty"`
	SettleRelease     *SettleReleaseTx     `json:"settleRelease,omitempty"`
	HTLCPayment       *HTLCPaymentTx       `json:"htlcPayment,omitempty"`
	SwapOffer         *SwapOfferTx         `json:"swapOffer,omitempty"`
	SwapCancel        *SwapCancelTx        `json:"swapCancel,omitempty"`
	SwapResolve       *SwapResolveTx       `json:"swapResolve,omitempty"`

	JEvent             *JEventTx             `json:"jEvent,omitempty"`
	JEventAccountClaim *JEventAccountClaimTx `json:"jEventAccountClaim,omitempty"`
	JBroadcast         *JBroadcastTx         `json:"jBroadcast,omitempty"`
	JClearBatch        *JClearBatchTx        `json:"jClearBatch,omitempty"`

	PayToReserve     *PayToReserveTx     `json:"payToReserve,omitempty"`
	PayFromReserve   *PayFromReserveTx   `json:"payFromReserve,omitempty"`
	ReserveToReserve *ReserveToReserveTx `json:"reserveToReserve,omitempty"`
	CreateSettlement *CreateSettlementTx `json:"createSettlement,omitempty"`
}

type ChatTx struct {
	From    EntityID
	Message string
}

type ProfileUpdateTx struct {
	Field string
	Value string
}

type GovernanceProposeTx struct {
	ProposalID [32]byte
	Action     string
	Payload    []byte
}

type GovernanceVoteTx struct {
	ProposalID [32]byte
	Voter      [32]byte
	Approve    bool
}

type OpenAccountTx struct {
	Counterparty EntityID
}

// AccountInputTx carries a bilateral message (a fresh proposal or an ACK)
// addressed to the account shared with Counterparty (spec section 4.4,
// "Account-input routing"). When both fields are set, applyAccountInput
// processes only the proposal.
type AccountInputTx struct {
	Counterparty EntityID
	Proposal     *account.Proposal // set when forwarding a proposal
	Ack          *AckMessage       // set when forwarding an ACK
}

// AckMessage is the counterparty's signed acknowledgement of a frame this
// entity proposed.
type AckMessage struct {
	FrameHeight uint64
	StateHash   codec.Hash32
	Hanko       hanko.Hanko
}

type DirectPaymentTx struct {
	Counterparty EntityID
	TokenID      TokenID
	Amount       *big.Int
}

type RequestWithdrawalTx struct {
	Counterparty EntityID
	TokenID      TokenID
	Amount       *big.Int
}

type ExtendCreditTx struct {
	Counterparty EntityID
	TokenID      TokenID
	NewLimit     *big.Int
}

type SettleHoldTx struct {
	Counterparty EntityID
	TokenID      TokenID
	Amount       *big.Int
}

type SettleReleaseTx struct {
	Counterparty EntityID
	TokenID      TokenID
	Amount       *big.Int
}

// HTLCPaymentTx routes a payment through an intermediary account, locking
// funds on the outbound leg (spec section 4.4 bookkeeping op list).
type HTLCPaymentTx struct {
	Counterparty       EntityID
	LockID             [32]byte
	TokenID            TokenID
	Amount             *big.Int
	HashLock           [32]byte
	Timelock           uint64
	RevealBeforeHeight uint64
}

type SwapOfferTx struct {
	Counterparty EntityID
	OfferID      [32]byte
	GiveTokenID  TokenID
	GiveAmount   *big.Int
	WantTokenID  TokenID
	WantAmount   *big.Int
	MinFillRatio uint16
}

type SwapCancelTx struct {
	Counterparty EntityID
	OfferID      [32]byte
}

type SwapResolveTx struct {
	Counterparty EntityID
	OfferID      [32]byte
	FillAmount   *big.Int
}

// JEventTx is one signer's observation report (spec section 4.4,
// "J-block observation").
type JEventTx struct {
	SignerID   [32]byte
	JHeight    uint64
	JBlockHash [32]byte
	Events     []jurisdiction.Event
}

// JEventAccountClaimTx is a tx submitted to the entity that translates an
// account-relevant event into a j_sync on the matching account. J-block
// finalization does not emit it: replayJEvents calls applyJSyncClaim
// directly.
type JEventAccountClaimTx struct {
	Counterparty    EntityID
	TokenID         TokenID
	CollateralDelta *big.Int
	OndeltaDelta    *big.Int
	JHeight         uint64
}

type JBroadcastTx struct{}

type JClearBatchTx struct{}

type PayToReserveTx struct {
	TokenID TokenID
	Amount  *big.Int
}

type PayFromReserveTx struct {
	TokenID TokenID
	Amount  *big.Int
}

type ReserveToReserveTx struct {
	ReceivingEntity EntityID
	TokenID         TokenID
	Amount          *big.Int
}

// CreateSettlementTx appends a settlement operation (or its C2R-compressed
// form) to the entity's J-batch (spec section 4.5).
type CreateSettlementTx struct {
	Settlement abicoder.Settlement
}

// Output is an entity-input destined for another entity's mempool, queued
// for delivery on the *next* tick (spec section 4.4, "no same-tick
// cascades").
type Output struct {
	TargetEntity EntityID
	Input        Tx
}
