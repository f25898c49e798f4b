// Package entity implements the entity machine E of spec section 4.4: a
// BFT-replicated state machine that holds reserve balances, bilateral
// accounts, jurisdiction observations, and an aggregating J-batch, driven
// by a proposer/validator consensus loop shaped like CometBFT's ABCI
// Application lifecycle (PrepareProposal / ProcessProposal / FinalizeBlock
// / Commit), grounded on the teacher's pkg/consensus/abci_validator.go.
package entity

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/certen/xln-settlement/pkg/account"
	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/hanko"
	"github.com/certen/xln-settlement/pkg/jbatch"
)

// EntityID and TokenID reuse the account package's definitions so handlers
// can pass values between the two layers without conversion.
type EntityID = account.EntityID
type TokenID = account.TokenID

// ValidatorInfo is one member of an entity's validator set: its EOA (or,
// for a nested quorum member, a board hash) and voting weight.
type ValidatorInfo struct {
	ID     [32]byte
	Weight uint64
}

// Config is the entity's validator set: threshold and ordered member list.
// Order matters -- it fixes the index space BuildQuorumHanko must preserve
// (spec section 4.2, "Signing for a single-signer entity").
type Config struct {
	Threshold  uint64
	Validators []ValidatorInfo
}

// QuorumConfig projects Config into the shape hanko.VerifyAgainstEntity and
// hanko.BuildQuorumHanko expect.
func (c Config) QuorumConfig() hanko.QuorumConfig {
	eoas := make([][32]byte, len(c.Validators))
	weights := make([]uint64, len(c.Validators))
	for i, v := range c.Validators {
		eoas[i] = v.ID
		weights[i] = v.Weight
	}
	return hanko.QuorumConfig{Threshold: c.Threshold, ValidatorEOAs: eoas, ValidatorWeights: weights}
}

func (c Config) indexOf(id [32]byte) (int, bool) {
	for i, v := range c.Validators {
		if v.ID == id {
			return i, true
		}
	}
	return 0, false
}

// FinalizedJBlock is one entry of the entity's finalized jurisdiction-block
// chain (spec section 4.4, "J-block observation").
type FinalizedJBlock struct {
	Height uint64
	Hash   [32]byte
}

// State is the replicated portion of an entity: everything a proposer
// commits and every validator reproduces identically. Crypto key material
// and the local replica's own precommit bookkeeping live outside State, on
// Replica, since they differ per signer even for replicas of the same
// entity (spec section 3, "Entity (E)").
type State struct {
	EntityID  EntityID
	Height    uint64
	Timestamp uint64
	Config    Config

	Mempool []Tx

	Reserves map[TokenID]*big.Int
	Accounts map[[32]byte]*account.Account // keyed by sha of canonical (left,right) pair, see accountKey

	Observations         map[jObservationKey]*jObservation
	FinalizedChain        []FinalizedJBlock
	LastFinalizedJHeight  uint64

	Batch *jbatch.State

	// BroadcastRequested is set by a j_broadcast tx and cleared once the
	// Runtime's tick loop actually submits the batch (spec section 4.5:
	// broadcast also fires automatically on size/time thresholds, checked
	// independently via Batch.ShouldBroadcast -- this flag only covers the
	// explicit request path). Entity handlers never reach out to a
	// jurisdiction adapter themselves; they only flag intent for the tick
	// loop to act on.
	BroadcastRequested bool

	Log *messageLog
}

// New returns an empty entity replica state for id under cfg.
func New(id EntityID, cfg Config) *State {
	return &State{
		EntityID:     id,
		Config:       cfg,
		Reserves:     make(map[TokenID]*big.Int),
		Accounts:     make(map[[32]byte]*account.Account),
		Observations: make(map[jObservationKey]*jObservation),
		Batch:        jbatch.New(id),
		Log:          newMessageLog(),
	}
}

func accountKey(a, b EntityID) [32]byte {
	left, right := account.CanonicalOrder(a, b)
	var buf bytes.Buffer
	buf.Write(left[:])
	buf.Write(right[:])
	return [32]byte(codec.Keccak256(buf.Bytes()))
}

func (s *State) getOrCreateAccount(counterparty EntityID) *account.Account {
	key := accountKey(s.EntityID, counterparty)
	if a, ok := s.Accounts[key]; ok {
		return a
	}
	a := account.New(s.EntityID, counterparty)
	s.Accounts[key] = a
	return a
}

func (s *State) getOrCreateReserve(tokenID TokenID) *big.Int {
	if b, ok := s.Reserves[tokenID]; ok {
		return b
	}
	b := big.NewInt(0)
	s.Reserves[tokenID] = b
	return b
}

// sortedReserveTokenIDs returns reserve token ids in ascending order, the
// canonical iteration order snapshot encoding requires.
func (s *State) sortedReserveTokenIDs() []TokenID {
	ids := make([]TokenID, 0, len(s.Reserves))
	for id := range s.Reserves {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// clone produces a deep copy of the mutable replicated state for a
// candidate proposal to apply against (spec section 5, "Maps whose
// identity matters ... are always cloned on write during validation").
func (s *State) clone() *State {
	cp := &State{
		EntityID:             s.EntityID,
		Height:               s.Height,
		Timestamp:            s.Timestamp,
		Config:               s.Config,
		Mempool:              append([]Tx{}, s.Mempool...),
		Reserves:             make(map[TokenID]*big.Int, len(s.Reserves)),
		Accounts:             make(map[[32]byte]*account.Account, len(s.Accounts)),
		Observations:         make(map[jObservationKey]*jObservation, len(s.Observations)),
		FinalizedChain:       append([]FinalizedJBlock{}, s.FinalizedChain...),
		LastFinalizedJHeight: s.LastFinalizedJHeight,
		Batch:                s.Batch.Clone(),
		BroadcastRequested:   s.BroadcastRequested,
		Log:                  s.Log.clone(),
	}
	for id, amt := range s.Reserves {
		cp.Reserves[id] = new(big.Int).Set(amt)
	}
	for k, a := range s.Accounts {
		cp.Accounts[k] = a.Clone()
	}
	for k, o := range s.Observations {
		cp.Observations[k] = o.clone()
	}
	return cp
}
