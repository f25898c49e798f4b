// Package runtime implements the Runtime R of spec section 4.6: the
// deterministic tick loop that owns every local entity replica and
// jurisdiction adapter, dispatches routed inputs between them with a
// one-tick delay, drives each jurisdiction's event drain and batch
// broadcast, and appends a snapshot every tick. Grounded on the teacher's
// pkg/consensus/abci_validator.go Commit/persistConsensusData cadence,
// generalized from a single chain's block-commit loop to a tick that
// advances many independent entity and jurisdiction replicas at once.
package runtime

import (
	"sync"

	"github.com/certen/xln-settlement/pkg/entity"
	"github.com/certen/xln-settlement/pkg/xlog"
)

var log = xlog.Component("runtime")

// Group is every local replica of one entity. More than one member only
// occurs when a scenario simulates a multi-validator entity's distributed
// consensus round within a single process; the common case is a single
// member driven through entity.Replica.SoloCommit.
type Group struct {
	Members []*entity.Replica
}

func (g *Group) proposer() *entity.Replica { return g.Members[0] }

// Encoder serializes a Snapshot into the canonical format pkg/snapshot
// defines. Runtime depends on this narrow interface rather than importing
// the encoding package directly, so the tick loop's I/O stays isolated
// behind an adapter the way spec section 9 asks of the whole core ("I/O
// isolated to the runtime loop via adapters").
type Encoder interface {
	Encode(snap Snapshot) ([]byte, error)
}

// SnapshotStore persists encoded snapshots keyed by height. pkg/storage
// supplies concrete backends (bbolt, Postgres, Firestore); a nil store
// makes persistence a no-op while an Env still keeps its in-memory
// History ring.
type SnapshotStore interface {
	Save(height uint64, data []byte) error
}

// Metrics reports tick and broadcast shape to an external collector.
// pkg/metrics.Recorder implements this with Prometheus collectors; kept to
// primitive arguments only so this package never has to import a metrics
// library, matching Encoder/SnapshotStore's narrow-interface isolation.
type Metrics interface {
	ObserveTick(groupsRun, outputsRouted, outputsUnrouted, jObserved int, durationSeconds float64)
	ObserveBroadcastFailure(entityID string)
	ObserveBroadcastSuccess(entityID string, pendingOps int)
}

// historyLimit bounds the in-memory snapshot ring so a long-running
// process doesn't grow without bound; a persisted Store is the durable
// record beyond this window.
const historyLimit = 256

// Env is the Runtime's entire process-local world: every entity group,
// every jurisdiction replica, the gossip snapshot other runtimes read, and
// the pending input/output queues a tick drains (spec section 4.6, "Env").
type Env struct {
	// mu guards only the externally-facing queues (incoming, History,
	// pendingNetwork) against concurrent readers like a status handler --
	// Tick itself is the single cooperative owner of everything else while
	// it runs, the same single-threaded-core model spec section 5
	// describes ("no internal tick cancellation ... handlers operate on
	// clones"). Callers must not run two Ticks concurrently on the same
	// Env.
	mu sync.Mutex

	Timestamp uint64
	Height    uint64

	Entities map[[32]byte]*Group
	J        map[string]*JReplica

	Gossip *GossipStore

	History []Snapshot
	Store   SnapshotStore
	Encoder Encoder
	Metrics Metrics

	incoming         []Input
	nextEntityInputs map[[32]byte][]entity.Tx
	pendingNetwork   []entity.Output
}

// SetMetrics attaches m as e's metrics sink. Optional: a nil (or never
// called) Metrics leaves instrumentation disabled, the same nil-is-no-op
// convention Store and Encoder already follow.
func (e *Env) SetMetrics(m Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Metrics = m
}

// NewEnv returns an empty runtime world. store and encoder may be nil, in
// which case Tick keeps the in-memory History ring but persists nothing.
func NewEnv(store SnapshotStore, encoder Encoder) *Env {
	return &Env{
		Entities:         make(map[[32]byte]*Group),
		J:                make(map[string]*JReplica),
		Gossip:           NewGossipStore(),
		Store:            store,
		Encoder:          encoder,
		nextEntityInputs: make(map[[32]byte][]entity.Tx),
	}
}

// AddEntity registers a local group under id, replacing any existing group
// for that id (spec section 4.6 step 2, "importReplica").
func (e *Env) AddEntity(id [32]byte, members ...*entity.Replica) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Entities[id] = &Group{Members: members}
}

// AddJurisdiction registers a jurisdiction replica under name (spec section
// 4.6 step 2, "importJ").
func (e *Env) AddJurisdiction(name string, j *JReplica) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.J[name] = j
}

// Submit enqueues in for processing on the next call to Tick (spec section
// 4.6 step 1: "snapshot incoming runtimeInput into a local buffer and reset
// env.runtimeInput").
func (e *Env) Submit(in Input) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.incoming = append(e.incoming, in)
}

// PendingNetworkOutputs returns outputs addressed to an entity this Env has
// no local replica for, queued until gossip resolves where they belong
// (spec section 5, "unknown-target outputs go to pendingNetworkOutputs
// until gossip resolves").
func (e *Env) PendingNetworkOutputs() []entity.Output {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entity.Output{}, e.pendingNetwork...)
}
