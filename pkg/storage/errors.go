package storage

import "github.com/certen/xln-settlement/pkg/xerrors"

// xStorage wraps a backend-level error as the KindStorage CoreError every
// KV implementation in this package returns, so callers never need to
// know which driver produced a failure.
func xStorage(op string, err error) error {
	return xerrors.Storage(op, err)
}
