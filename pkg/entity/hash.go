package entity

import (
	"math/big"
	"sort"

	"github.com/certen/xln-settlement/pkg/codec"
)

// accountSummary is the minimal per-account fingerprint folded into the
// entity state hash: enough to detect divergence without re-hashing every
// account's full delta table on every entity tick.
type accountSummary struct {
	Key           [32]byte
	FrameHeight   uint64
	FrameStateHash codec.Hash32
	MempoolLen    int
}

type stateForHashing struct {
	Height               uint64
	Timestamp            uint64
	ReserveTokenIDs      []TokenID
	ReserveAmounts       []*big.Int
	Accounts             []accountSummary
	BatchOpsCount        int
	FinalizedChain       []FinalizedJBlock
	LastFinalizedJHeight uint64
}

// committedHash is the canonical hash of the replicated portion of s, used
// both as the entity-frame hash validators precommit on and as the
// divergence check at FinalizeBlock (spec section 4.4 step 3).
func (s *State) committedHash() (codec.Hash32, error) {
	ids := s.sortedReserveTokenIDs()
	amounts := make([]*big.Int, len(ids))
	for i, id := range ids {
		amounts[i] = s.Reserves[id]
	}

	keys := make([][32]byte, 0, len(s.Accounts))
	for k := range s.Accounts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i][:]) < string(keys[j][:])
	})
	summaries := make([]accountSummary, len(keys))
	for i, k := range keys {
		a := s.Accounts[k]
		summaries[i] = accountSummary{
			Key:            k,
			FrameHeight:    a.CurrentFrame.Height,
			FrameStateHash: a.CurrentFrame.StateHash,
			MempoolLen:     len(a.Mempool),
		}
	}

	return codec.HashCanonical(stateForHashing{
		Height:               s.Height,
		Timestamp:            s.Timestamp,
		ReserveTokenIDs:      ids,
		ReserveAmounts:       amounts,
		Accounts:             summaries,
		BatchOpsCount:        s.Batch.PendingOpsCount(),
		FinalizedChain:       s.FinalizedChain,
		LastFinalizedJHeight: s.LastFinalizedJHeight,
	})
}
