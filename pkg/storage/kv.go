// Package storage implements the pluggable snapshot backends spec section
// 6 names -- "a validator persists snapshots under a jurisdiction-keyed
// KV namespace; bbolt for a single process, Postgres or Firestore for a
// managed deployment" -- behind the narrow runtime.SnapshotStore interface
// so pkg/runtime never imports a storage driver directly. Grounded on the
// teacher's pkg/ledger/store.go: the same KV interface shape, the same
// big-endian-height-suffixed key idiom, and the same "every failure is
// wrapped and returned, never panics" posture, generalized from ledger
// blocks to runtime snapshots.
package storage

import (
	"encoding/binary"

	"github.com/certen/xln-settlement/pkg/xerrors"
)

// KV is the minimal key-value contract every backend in this package
// implements against, exactly as the teacher's ledger store names it: get
// and set by opaque key, nothing more. Keeping it this narrow is what lets
// SnapshotStore stay backend-agnostic.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// KV.Get returns a nil slice with a nil error for a missing key, the same
// convention the teacher's backends use ("err != nil || len(b) == 0" at
// every call site) rather than a sentinel not-found error.

const (
	snapshotKeyPrefix = "snapshot:"
	latestHeightKey   = "latest_height"
)

// snapshotKey builds the "snapshot:{height}" key spec section 6 names,
// using the teacher's big-endian-height-suffixed layout (systemBlockKey)
// so keys sort in height order under any backend that orders by key bytes.
func snapshotKey(height uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	return append([]byte(snapshotKeyPrefix), b...)
}

// Store wraps any KV into a runtime.SnapshotStore, maintaining the
// "latest_height" pointer alongside each per-height record the same way
// the teacher's LedgerStore keeps a latest-block key beside its per-block
// keys.
type Store struct {
	kv KV
}

// NewStore returns a Store backed by kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Save persists data under "snapshot:{height}" and advances "latest_height"
// if height is newer than whatever was last recorded there. Every error is
// wrapped as a KindStorage CoreError, matching spec section 7's policy
// that a storage failure is logged by the caller and otherwise ignored --
// it never aborts a tick.
func (s *Store) Save(height uint64, data []byte) error {
	if err := s.kv.Set(snapshotKey(height), data); err != nil {
		return xerrors.Storage("storage.save", err)
	}

	latest, ok, err := s.latestHeight()
	if err != nil {
		return xerrors.Storage("storage.save", err)
	}
	if ok && height <= latest {
		return nil
	}

	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	if err := s.kv.Set([]byte(latestHeightKey), b); err != nil {
		return xerrors.Storage("storage.save", err)
	}
	return nil
}

// Load reads back the snapshot persisted under height, if any.
func (s *Store) Load(height uint64) ([]byte, bool, error) {
	data, err := s.kv.Get(snapshotKey(height))
	if err != nil {
		return nil, false, xerrors.Storage("storage.load", err)
	}
	if data == nil {
		return nil, false, nil
	}
	return data, true, nil
}

// LatestHeight returns the most recent height Save has recorded, if any.
func (s *Store) LatestHeight() (uint64, bool, error) {
	height, ok, err := s.latestHeight()
	if err != nil {
		return 0, false, xerrors.Storage("storage.latest_height", err)
	}
	return height, ok, nil
}

func (s *Store) latestHeight() (uint64, bool, error) {
	b, err := s.kv.Get([]byte(latestHeightKey))
	if err != nil {
		return 0, false, err
	}
	if len(b) != 8 {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(b), true, nil
}
