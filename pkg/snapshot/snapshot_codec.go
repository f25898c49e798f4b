package snapshot

import (
	"github.com/certen/xln-settlement/pkg/runtime"
	"github.com/certen/xln-settlement/pkg/xerrors"
)

// BinaryEncoder implements runtime.Encoder with the canonical binary format
// this package defines, so Env.Tick can persist snapshots through the
// narrow seam env.go documents without importing this package directly.
type BinaryEncoder struct{}

func (BinaryEncoder) Encode(snap runtime.Snapshot) ([]byte, error) {
	return Encode(snap)
}

// DecodeSnapshot is the inverse of BinaryEncoder.Encode, used on startup to
// load "snapshot:{height}" rows out of a pkg/storage backend (spec section
// 6, "on startup the latest snapshot is loaded").
func DecodeSnapshot(data []byte) (runtime.Snapshot, error) {
	var snap runtime.Snapshot
	if err := Decode(data, &snap); err != nil {
		return runtime.Snapshot{}, xerrors.Storage("snapshot.DecodeSnapshot", err)
	}
	return snap, nil
}
