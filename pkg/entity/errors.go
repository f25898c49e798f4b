package entity

import (
	"fmt"

	"github.com/certen/xln-settlement/pkg/xerrors"
)

func errValidation(op string, format string, args ...any) error {
	return xerrors.Validation(op, fmt.Errorf(format, args...))
}

func errNotSolo() error {
	return fmt.Errorf("SoloCommit requires exactly one validator; use PrepareProposal/ProcessProposal/FinalizeBlock directly")
}

func errAlreadyLocked(height uint64) error {
	return fmt.Errorf("already locked a precommit at height %d", height)
}

func errStateMismatch() error {
	return fmt.Errorf("replayed state hash diverges from proposer's claimed newState")
}

func errHashSetMismatch() error {
	return fmt.Errorf("replayed hashesToSign set has a different length than the proposal's")
}

func errQuorumNotMet() error {
	return fmt.Errorf("collected precommit weight below entity threshold")
}
