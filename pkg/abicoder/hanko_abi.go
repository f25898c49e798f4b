package abicoder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/certen/xln-settlement/pkg/xerrors"
)

// HankoClaim mirrors one entry of Hanko.claims[] in the EntityProvider's
// verification ABI (spec section 4.2).
type HankoClaim struct {
	EntityID      [32]byte
	EntityIndexes []uint32
	Weights       []*big.Int
	Threshold     *big.Int
}

// HankoTuple is the wire encoding of a hanko: placeholders, a single bytes
// blob of concatenated 65-byte packed signatures, and the claims array.
type HankoTuple struct {
	Placeholders [][32]byte
	PackedSigs   []byte
	Claims       []HankoClaim
}

var hankoArguments = abi.Arguments{
	{Name: "hanko", Type: mustType("tuple", []abi.ArgumentMarshaling{
		{Name: "placeholders", Type: "bytes32[]"},
		{Name: "packedSigs", Type: "bytes"},
		{Name: "claims", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "entityId", Type: "bytes32"},
			{Name: "entityIndexes", Type: "uint32[]"},
			{Name: "weights", Type: "uint256[]"},
			{Name: "threshold", Type: "uint256"},
		}},
	}...)},
}

// EncodeHanko ABI-encodes a HankoTuple exactly as the EntityProvider
// contract's recoverHankoEntities expects it.
func EncodeHanko(h HankoTuple) ([]byte, error) {
	out, err := hankoArguments.Pack(h)
	if err != nil {
		return nil, xerrors.Encoding("abicoder.EncodeHanko", fmt.Errorf("pack hanko: %w", err))
	}
	return out, nil
}

// DecodeHanko reverses EncodeHanko.
func DecodeHanko(data []byte) (HankoTuple, error) {
	values, err := hankoArguments.Unpack(data)
	if err != nil {
		return HankoTuple{}, xerrors.Encoding("abicoder.DecodeHanko", fmt.Errorf("unpack hanko: %w", err))
	}
	var out HankoTuple
	if err := hankoArguments.Copy(&out, values); err != nil {
		return HankoTuple{}, xerrors.Encoding("abicoder.DecodeHanko", fmt.Errorf("copy hanko: %w", err))
	}
	return out, nil
}
