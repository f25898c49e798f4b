package runtime

import (
	"github.com/certen/xln-settlement/pkg/entity"
)

// Snapshot is a point-in-time capture of every locally-replicated entity's
// committed state (spec section 4.6, "append+persist a snapshot"). Capture
// is by reference, not by deep copy: entity.Replica.FinalizeBlock always
// commits a brand-new *entity.State built from a clone, never mutates a
// previously-committed one in place, so a State pointer captured at the
// end of a tick stays a valid, immutable record of that tick forever
// (spec section 5, "maps whose identity matters are always cloned on
// write").
type Snapshot struct {
	Height    uint64
	Timestamp uint64
	Entities  map[[32]byte]*entity.State
	JHeights  map[string]uint64
}

// appendSnapshot captures the current committed state of every group's
// proposer, appends it to the bounded in-memory History ring, and, if an
// Encoder and SnapshotStore are configured, persists it under
// "snapshot:{height}" (spec section 6, persisted snapshot format).
func (e *Env) appendSnapshot(nowMillis uint64) {
	snap := Snapshot{
		Height:    e.Height,
		Timestamp: nowMillis,
		Entities:  make(map[[32]byte]*entity.State, len(e.Entities)),
		JHeights:  make(map[string]uint64, len(e.J)),
	}
	for id, group := range e.Entities {
		snap.Entities[id] = group.proposer().State
	}
	for name, j := range e.J {
		snap.JHeights[name] = j.Adapter.Height()
	}

	e.mu.Lock()
	e.History = append(e.History, snap)
	if len(e.History) > historyLimit {
		e.History = e.History[len(e.History)-historyLimit:]
	}
	e.mu.Unlock()

	if e.Store == nil || e.Encoder == nil {
		return
	}
	data, err := e.Encoder.Encode(snap)
	if err != nil {
		log.Error().Err(err).Uint64("height", snap.Height).Msg("encode snapshot")
		return
	}
	if err := e.Store.Save(snap.Height, data); err != nil {
		log.Error().Err(err).Uint64("height", snap.Height).Msg("persist snapshot")
	}
}

// SnapshotAt returns the History entry for height, if it's still within the
// in-memory window.
func (e *Env) SnapshotAt(height uint64) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, snap := range e.History {
		if snap.Height == height {
			return snap, true
		}
	}
	return Snapshot{}, false
}
