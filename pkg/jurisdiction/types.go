// Package jurisdiction implements the J-layer adapter of spec section 4.5:
// batch submission to the Depository contract and decoding of the events it
// emits. Two implementations share one Adapter interface, grounded on the
// teacher's pkg/ethereum client wrapper and pkg/chain/strategy pluggable
// adapter shape: EVMAdapter talks to a real chain over go-ethereum,
// InProcessAdapter is a deterministic in-memory stand-in for scenario tests
// and time travel.
package jurisdiction

import (
	"math/big"

	"github.com/certen/xln-settlement/pkg/codec"
)

// TokenID mirrors account.TokenID without importing pkg/account, so this
// package has no dependency on the bilateral layer.
type TokenID uint32

// EventKind discriminates the on-chain events the core must agree on (spec
// section 6, "Events consumed").
type EventKind string

const (
	EventReserveUpdated      EventKind = "ReserveUpdated"
	EventAccountSettled      EventKind = "AccountSettled"
	EventInsuranceClaimed    EventKind = "InsuranceClaimed"
	EventInsuranceRegistered EventKind = "InsuranceRegistered"
	EventInsuranceExpired    EventKind = "InsuranceExpired"
	EventDebtCreated         EventKind = "DebtCreated"
	EventDebtEnforced        EventKind = "DebtEnforced"
	EventDisputeStarted      EventKind = "DisputeStarted"
	EventDisputeFinalized    EventKind = "DisputeFinalized"
	EventHankoBatchProcessed EventKind = "HankoBatchProcessed"
	EventSecretRevealed      EventKind = "SecretRevealed"
	EventGovernanceEnabled   EventKind = "GovernanceEnabled"
)

// Event is a single decoded on-chain log. Not every field is populated for
// every Kind; callers switch on Kind first.
type Event struct {
	Kind        EventKind
	BlockNumber uint64
	BlockHash   codec.Hash32

	Entity          [32]byte
	Counterparty    [32]byte
	TokenID         TokenID
	CollateralDelta *big.Int
	OndeltaDelta    *big.Int
	Nonce           uint64
	Success         bool
	Secret          []byte
	Transformer     [20]byte
}

// Block is one finalized (or tentative) jurisdiction block: the unit
// J-observation consensus agrees on (spec section 4.4).
type Block struct {
	Height uint64
	Hash   codec.Hash32
	Events []Event
}
