package storage

import (
	dbm "github.com/cometbft/cometbft-db"
)

// ConsensusKV adapts a cometbft-db handle to this package's KV contract,
// grounded verbatim on the teacher's pkg/kvdb/adapter.go KVAdapter: a nil
// db is a no-op, and writes go through SetSync so consensus-local state
// (ABCI app height/vote bookkeeping, in the eventual cmd/validatornode
// wiring of pkg/entity's consensus loop to a real CometBFT node) is
// durable before the adapter's Set call returns.
type ConsensusKV struct {
	db dbm.DB
}

// NewConsensusKV wraps an already-open cometbft-db handle.
func NewConsensusKV(db dbm.DB) *ConsensusKV {
	return &ConsensusKV{db: db}
}

// OpenGoLevelDBConsensusKV opens (creating if necessary) a goleveldb-backed
// cometbft-db database at dir/name.db, the persistent backend the teacher
// selects via its BackendType config.
func OpenGoLevelDBConsensusKV(name, dir string) (*ConsensusKV, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, xStorage("consensus.open", err)
	}
	return &ConsensusKV{db: db}, nil
}

// NewMemConsensusKV returns a ConsensusKV backed by an in-process MemDB,
// for tests and single-run scenarios that don't need durability across
// restarts.
func NewMemConsensusKV() *ConsensusKV {
	return &ConsensusKV{db: dbm.NewMemDB()}
}

// Close releases the underlying database handle.
func (a *ConsensusKV) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Get implements KV.Get; a nil db (zero-value ConsensusKV) reads as empty
// rather than panicking, matching the teacher adapter's own nil guard.
func (a *ConsensusKV) Get(key []byte) ([]byte, error) {
	if a.db == nil {
		return nil, nil
	}
	v, err := a.db.Get(key)
	if err != nil {
		return nil, xStorage("consensus.get", err)
	}
	return v, nil
}

// Set implements KV.Set via SetSync, matching the teacher adapter's choice
// to make every write durable at commit time rather than batching it.
func (a *ConsensusKV) Set(key, value []byte) error {
	if a.db == nil {
		return nil
	}
	if err := a.db.SetSync(key, value); err != nil {
		return xStorage("consensus.set", err)
	}
	return nil
}
