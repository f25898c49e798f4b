package jurisdiction

import (
	"context"

	"github.com/certen/xln-settlement/pkg/codec"
)

// Adapter is the single surface the Runtime's J-replica and the J-batch
// broadcaster need, independent of which chain family backs it. Spec
// section 4.6 requires jurisdiction calls to be expressible as "pure
// function invocations against an adapter" so the Runtime tick loop stays
// synchronous regardless of whether the adapter is in-process or an async
// RPC client.
type Adapter interface {
	// ChainID is mixed into the batch-hanko domain separator (spec §6).
	ChainID() uint64
	DepositoryAddress() [20]byte

	// OnChainNonce returns the entity's current on-chain nonce; a batch
	// submission must use nonce+1.
	OnChainNonce(ctx context.Context, entity [32]byte) (uint64, error)

	// SubmitBatch calls Depository.processBatch(encodedBatch,
	// entityProvider, hankoData, nonce). Returns a BroadcastError-kind
	// error on revert or transport failure.
	SubmitBatch(ctx context.Context, encodedBatch []byte, entityProvider [20]byte, hankoData []byte, nonce uint64) error

	// Events delivers newly observed logs. The Runtime drains this
	// between ticks and folds results into JObservation txs; it never
	// blocks a tick waiting on it.
	Events() <-chan Event

	// Height is the adapter's current view of the jurisdiction's block
	// height.
	Height() uint64

	// StateRoot/SetStateRoot support time travel (spec §4.6): restoring a
	// snapshot resets the adapter to the state it captured at that
	// height.
	StateRoot() codec.Hash32
	SetStateRoot(root codec.Hash32) error

	// Close releases any underlying connection (RPC client, subscription).
	Close() error
}
