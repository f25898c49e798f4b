// Package xerrors defines the tagged error kinds shared across the
// runtime/entity/account/jurisdiction layers (see spec section 7).
package xerrors

import (
	"errors"
	"fmt"
)

// Kind tags a CoreError with one of the six error categories the core
// distinguishes. Kinds are never exposed as Go exception types -- callers
// switch on Kind, not on concrete error values.
type Kind string

const (
	// KindConsensusFailure marks a bilateral or BFT state mismatch: frame
	// chain break, invalid hanko, state injection, double rollback.
	// Unrecoverable for the affected account until dispute.
	KindConsensusFailure Kind = "consensus_failure"

	// KindValidation marks a single transaction that failed its
	// preconditions (capacity exceeded, HTLC expired, unknown offer). The
	// transaction is evicted from its mempool; siblings proceed.
	KindValidation Kind = "validation"

	// KindEncoding marks a canonical-encoding invariant violation
	// (unsortable map keys, floating point). Fatal to the handler.
	KindEncoding Kind = "encoding"

	// KindBroadcast marks a jurisdiction adapter refusal or revert.
	KindBroadcast Kind = "broadcast"

	// KindStorage marks a snapshot/persistence write failure. Logged and
	// ignored -- in-memory state stays authoritative.
	KindStorage Kind = "storage"

	// KindProtocol marks a malformed network message (bad hanko length,
	// unknown tx type, oversized payload).
	KindProtocol Kind = "protocol"
)

// CoreError is the single error type returned across layer boundaries.
// Op names the failing operation (e.g. "account.proposeFrame") for logging.
type CoreError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *CoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CoreError) Unwrap() error { return e.Err }

// New builds a CoreError of the given kind.
func New(kind Kind, op string, err error) *CoreError {
	return &CoreError{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or anything it wraps) is a CoreError of kind.
func Is(err error, kind Kind) bool {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func ConsensusFailure(op string, err error) *CoreError { return New(KindConsensusFailure, op, err) }
func Validation(op string, err error) *CoreError       { return New(KindValidation, op, err) }
func Encoding(op string, err error) *CoreError         { return New(KindEncoding, op, err) }
func Broadcast(op string, err error) *CoreError        { return New(KindBroadcast, op, err) }
func Storage(op string, err error) *CoreError          { return New(KindStorage, op, err) }
func Protocol(op string, err error) *CoreError         { return New(KindProtocol, op, err) }
