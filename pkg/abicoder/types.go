// Package abicoder produces the byte layout the Depository and
// EntityProvider contracts expect (spec section 4.1, section 6). It wraps
// go-ethereum's accounts/abi package rather than hand-rolling ABI encoding,
// since bit-exact EVM compatibility is required: the same bytes are hashed
// and recovered on both the off-chain side and inside the contract.
package abicoder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// mustType panics only at package init on a malformed literal ABI type
// string -- a programmer error, never a runtime condition.
func mustType(t string, components ...abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic("abicoder: invalid type literal " + t + ": " + err.Error())
	}
	return typ
}

// FlashLoan mirrors the Depository.Batch.flashloans[] tuple.
type FlashLoan struct {
	TokenID *big.Int
	Amount  *big.Int
}

// ReserveToReserve mirrors Batch.reserveToReserve[].
type ReserveToReserve struct {
	ReceivingEntity [32]byte
	TokenID         *big.Int
	Amount          *big.Int
}

// ReserveToCollateralPair is the nested (entity, amount) pair inside
// ReserveToCollateral.Pairs.
type ReserveToCollateralPair struct {
	Entity [32]byte
	Amount *big.Int
}

// ReserveToCollateral mirrors Batch.reserveToCollateral[].
type ReserveToCollateral struct {
	TokenID         *big.Int
	ReceivingEntity [32]byte
	Pairs           []ReserveToCollateralPair
}

// CollateralToReserve mirrors Batch.collateralToReserve[] -- the compact C2R
// compression entry of spec section 4.5.
type CollateralToReserve struct {
	Counterparty [32]byte
	TokenID      *big.Int
	Amount       *big.Int
	Nonce        *big.Int
	Sig          []byte
}

// SettlementDiff is one per-token diff inside a Settlement.
type SettlementDiff struct {
	TokenID       *big.Int
	LeftDiff      *big.Int
	RightDiff     *big.Int
	CollateralDiff *big.Int
	OndeltaDiff   *big.Int
}

// Settlement mirrors Batch.settlements[].
type Settlement struct {
	LeftEntity             [32]byte
	RightEntity            [32]byte
	Diffs                  []SettlementDiff
	ForgiveDebtsInTokenIds []*big.Int
	Sig                    []byte
	EntityProvider         common.Address
	HankoData              []byte
	Nonce                  *big.Int
}

// DisputeStart mirrors Batch.disputeStarts[].
type DisputeStart struct {
	CounterEntity      [32]byte
	Nonce              *big.Int
	ProofBodyHash      [32]byte
	Sig                []byte
	InitialArguments   []byte
}

// ProofBodyHTLC is one HTLC lock row inside a dispute proof body.
type ProofBodyHTLC struct {
	LockID    [32]byte
	HashLock  [32]byte
	Timelock  *big.Int
	Amount    *big.Int
	TokenID   *big.Int
}

// ProofBody is the DeltaTransformer-shaped dispute proof body of spec 4.3.
type ProofBody struct {
	TokenIDs []*big.Int
	Deltas   []SettlementDiff
	HTLCs    []ProofBodyHTLC
}

// DisputeFinalization mirrors Batch.disputeFinalizations[].
type DisputeFinalization struct {
	CounterEntity [32]byte
	Nonce         *big.Int
	ProofBody     ProofBody
	Sig           []byte
}

// ExternalTokenToReserve mirrors Batch.externalTokenToReserve[].
type ExternalTokenToReserve struct {
	Entity   [32]byte
	Token    common.Address
	Amount   *big.Int
}

// ReserveToExternalToken mirrors Batch.reserveToExternalToken[].
type ReserveToExternalToken struct {
	Entity   [32]byte
	Token    common.Address
	Amount   *big.Int
}

// RevealSecret mirrors Batch.revealSecrets[].
type RevealSecret struct {
	Transformer common.Address
	Secret      [32]byte
}

// Batch is the single ABI-encoded tuple the entity submits to
// Depository.processBatch, field order fixed by spec section 6.
type Batch struct {
	FlashLoans             []FlashLoan
	ReserveToReserve       []ReserveToReserve
	ReserveToCollateral    []ReserveToCollateral
	CollateralToReserve    []CollateralToReserve
	Settlements            []Settlement
	DisputeStarts          []DisputeStart
	DisputeFinalizations   []DisputeFinalization
	ExternalTokenToReserve []ExternalTokenToReserve
	ReserveToExternalToken []ReserveToExternalToken
	RevealSecrets          []RevealSecret
	HubID                  *big.Int
}
