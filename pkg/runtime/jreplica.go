package runtime

import (
	"context"

	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/jurisdiction"
)

// defaultBlockDelayMillis mirrors the teacher's on-cadence batch scheduling
// (pkg/anchor scheduler's BatchDelaySeconds), retargeted to the spec's
// per-jurisdiction block cadence: a j-replica only drains and routes its
// adapter's events once this many milliseconds have passed since the last
// time it did so, so a jurisdiction with a slow block time doesn't get
// polled every tick for nothing.
const defaultBlockDelayMillis = 2000

// JReplica wraps one jurisdiction.Adapter with the timing state the
// Runtime's tick loop needs to drive it deterministically (spec section
// 4.6 step 4). The adapter itself owns block production and event
// emission -- an InProcessAdapter emits the events passed to SubmitEvents
// immediately, an EVMAdapter surfaces them as its
// subscription delivers real log entries -- so JReplica's only job is to
// drain whatever has accumulated on Events() without blocking the tick.
type JReplica struct {
	Adapter          jurisdiction.Adapter
	EntityProvider   [20]byte
	BlockDelayMillis uint64

	LastBlockTimestamp uint64
}

// NewJReplica wraps adapter for entityProvider (the Depository-registered
// address this jurisdiction's batch submissions are attributed to).
func NewJReplica(adapter jurisdiction.Adapter, entityProvider [20]byte) *JReplica {
	return &JReplica{Adapter: adapter, EntityProvider: entityProvider, BlockDelayMillis: defaultBlockDelayMillis}
}

func (j *JReplica) ready(nowMillis uint64) bool {
	return nowMillis-j.LastBlockTimestamp >= j.BlockDelayMillis
}

// drainEvents pulls every event currently buffered on the adapter's
// channel without blocking -- the Runtime never waits on a jurisdiction
// adapter mid-tick (spec section 4.6 step 4, "non-blocking drain"; spec
// section 5, "network messages ... never block a tick").
func (j *JReplica) drainEvents() []jurisdiction.Event {
	var events []jurisdiction.Event
	for {
		select {
		case ev, ok := <-j.Adapter.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

// groupEventsByEntity buckets events by the entity they're addressed to,
// so each bucket becomes exactly one JEventTx that entity's observers
// report (spec section 4.4, "J-block observation").
func groupEventsByEntity(events []jurisdiction.Event) map[[32]byte][]jurisdiction.Event {
	byEntity := make(map[[32]byte][]jurisdiction.Event)
	for _, ev := range events {
		byEntity[ev.Entity] = append(byEntity[ev.Entity], ev)
	}
	return byEntity
}

// observedBlock is one jurisdiction block's events, bucketed by the entity
// they're addressed to, still awaiting conversion into per-validator
// JEventTx reports (that conversion needs each entity's Config.Validators,
// which only Env's group map has access to).
type observedBlock struct {
	JHeight    uint64
	JBlockHash codec.Hash32
	ByEntity   map[[32]byte][]jurisdiction.Event
}

// observe drains j's adapter and buckets whatever it finds by entity. A nil
// return means nothing arrived this tick.
func (j *JReplica) observe(jHeight uint64) *observedBlock {
	events := j.drainEvents()
	if len(events) == 0 {
		return nil
	}
	blockHash, err := codec.HashCanonical(events)
	if err != nil {
		log.Error().Err(err).Msg("hash jurisdiction event batch")
		return nil
	}
	return &observedBlock{JHeight: jHeight, JBlockHash: blockHash, ByEntity: groupEventsByEntity(events)}
}

// broadcastJ calls MaybeBroadcast on every local entity group's proposer
// against j's adapter -- only the proposer submits, since every group
// member's State converges identically after FinalizeBlock and a second
// submission would just collide with the first's on-chain nonce.
func (e *Env) broadcastJ(ctx context.Context, j *JReplica, nowMillis uint64) {
	for _, group := range e.Entities {
		proposer := group.proposer()
		entityID := hexID(proposer.State.EntityID)
		pendingBefore := proposer.State.Batch.PendingOpsCount()
		if err := proposer.MaybeBroadcast(ctx, j.Adapter, j.EntityProvider, nowMillis); err != nil {
			log.Warn().Err(err).Str("entity", entityID).Msg("j-batch broadcast failed")
			if e.Metrics != nil {
				e.Metrics.ObserveBroadcastFailure(entityID)
			}
			continue
		}
		// MaybeBroadcast is also a no-op when thresholds haven't fired;
		// Current only shrinks when Broadcast actually ran and succeeded
		// (it moves Current to Sent and zeroes Current), so that's the
		// signal a submission happened at all.
		if pendingAfter := proposer.State.Batch.PendingOpsCount(); e.Metrics != nil && pendingAfter < pendingBefore {
			e.Metrics.ObserveBroadcastSuccess(entityID, pendingBefore)
		}
	}
}
