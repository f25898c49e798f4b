package jbatch

import (
	"fmt"

	"github.com/certen/xln-settlement/pkg/xerrors"
)

func errValidation(op string, format string, args ...any) error {
	return xerrors.Validation(op, fmt.Errorf(format, args...))
}

func errBroadcast(op string, format string, args ...any) error {
	return xerrors.Broadcast(op, fmt.Errorf(format, args...))
}
