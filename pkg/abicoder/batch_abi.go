package abicoder

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/certen/xln-settlement/pkg/xerrors"
)

// settlementDiffComponents describes the (tokenId, leftDiff, rightDiff,
// collateralDiff, ondeltaDiff) tuple of spec section 6.
var settlementDiffComponents = []abi.ArgumentMarshaling{
	{Name: "tokenId", Type: "uint256"},
	{Name: "leftDiff", Type: "int256"},
	{Name: "rightDiff", Type: "int256"},
	{Name: "collateralDiff", Type: "int256"},
	{Name: "ondeltaDiff", Type: "int256"},
}

var proofBodyHTLCComponents = []abi.ArgumentMarshaling{
	{Name: "lockId", Type: "bytes32"},
	{Name: "hashLock", Type: "bytes32"},
	{Name: "timelock", Type: "uint256"},
	{Name: "amount", Type: "uint256"},
	{Name: "tokenId", Type: "uint256"},
}

var proofBodyComponents = []abi.ArgumentMarshaling{
	{Name: "tokenIds", Type: "uint256[]"},
	{Name: "deltas", Type: "tuple[]", Components: settlementDiffComponents},
	{Name: "htlcs", Type: "tuple[]", Components: proofBodyHTLCComponents},
}

var batchComponents = []abi.ArgumentMarshaling{
	{Name: "flashLoans", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "tokenId", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
	}},
	{Name: "reserveToReserve", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "receivingEntity", Type: "bytes32"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
	}},
	{Name: "reserveToCollateral", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "tokenId", Type: "uint256"},
		{Name: "receivingEntity", Type: "bytes32"},
		{Name: "pairs", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "entity", Type: "bytes32"},
			{Name: "amount", Type: "uint256"},
		}},
	}},
	{Name: "collateralToReserve", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "counterparty", Type: "bytes32"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "sig", Type: "bytes"},
	}},
	{Name: "settlements", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "leftEntity", Type: "bytes32"},
		{Name: "rightEntity", Type: "bytes32"},
		{Name: "diffs", Type: "tuple[]", Components: settlementDiffComponents},
		{Name: "forgiveDebtsInTokenIds", Type: "uint256[]"},
		{Name: "sig", Type: "bytes"},
		{Name: "entityProvider", Type: "address"},
		{Name: "hankoData", Type: "bytes"},
		{Name: "nonce", Type: "uint256"},
	}},
	{Name: "disputeStarts", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "counterEntity", Type: "bytes32"},
		{Name: "nonce", Type: "uint256"},
		{Name: "proofBodyHash", Type: "bytes32"},
		{Name: "sig", Type: "bytes"},
		{Name: "initialArguments", Type: "bytes"},
	}},
	{Name: "disputeFinalizations", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "counterEntity", Type: "bytes32"},
		{Name: "nonce", Type: "uint256"},
		{Name: "proofBody", Type: "tuple", Components: proofBodyComponents},
		{Name: "sig", Type: "bytes"},
	}},
	{Name: "externalTokenToReserve", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "entity", Type: "bytes32"},
		{Name: "token", Type: "address"},
		{Name: "amount", Type: "uint256"},
	}},
	{Name: "reserveToExternalToken", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "entity", Type: "bytes32"},
		{Name: "token", Type: "address"},
		{Name: "amount", Type: "uint256"},
	}},
	{Name: "revealSecrets", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
		{Name: "transformer", Type: "address"},
		{Name: "secret", Type: "bytes32"},
	}},
	{Name: "hubId", Type: "uint256"},
}

var batchArguments = abi.Arguments{
	{Name: "batch", Type: mustType("tuple", batchComponents...)},
}

// EncodeBatch ABI-encodes a Batch exactly as Depository.processBatch
// expects it, field order fixed by spec section 6.
func EncodeBatch(b Batch) ([]byte, error) {
	out, err := batchArguments.Pack(b)
	if err != nil {
		return nil, xerrors.Encoding("abicoder.EncodeBatch", fmt.Errorf("pack batch: %w", err))
	}
	return out, nil
}

// DecodeBatch reverses EncodeBatch, used by tests and by replay tooling
// that needs to inspect what was actually broadcast.
func DecodeBatch(data []byte) (Batch, error) {
	values, err := batchArguments.Unpack(data)
	if err != nil {
		return Batch{}, xerrors.Encoding("abicoder.DecodeBatch", fmt.Errorf("unpack batch: %w", err))
	}
	if len(values) != 1 {
		return Batch{}, xerrors.Encoding("abicoder.DecodeBatch", fmt.Errorf("expected 1 value, got %d", len(values)))
	}
	var out Batch
	if err := batchArguments.Copy(&out, values); err != nil {
		return Batch{}, xerrors.Encoding("abicoder.DecodeBatch", fmt.Errorf("copy batch: %w", err))
	}
	return out, nil
}
