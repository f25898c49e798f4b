package account

import (
	"fmt"

	"github.com/certen/xln-settlement/pkg/xerrors"
)

func errValidation(op string, format string, args ...any) error {
	return xerrors.Validation(op, fmt.Errorf(format, args...))
}

func errConsensus(op string, format string, args ...any) error {
	return xerrors.ConsensusFailure(op, fmt.Errorf(format, args...))
}

func errProtocol(op string, format string, args ...any) error {
	return xerrors.Protocol(op, fmt.Errorf(format, args...))
}
