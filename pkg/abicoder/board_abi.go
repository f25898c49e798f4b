package abicoder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/certen/xln-settlement/pkg/xerrors"
)

// Board is the on-chain quorum descriptor a hanko claim's entity-id is
// checked against: keccak256(encodeBoard(threshold, members, weights))
// either equals the claim's entity-id directly (a "lazy" entity that never
// registered on-chain) or equals the entity's registered on-chain board
// hash (spec section 4.2).
//
// The three trailing zero fields mirror the EntityProvider contract's board
// tuple, which reserves room for board metadata (conversion timestamp,
// parent board hash, fork marker) that lazy/simple entities always submit
// as zero.
type Board struct {
	Threshold *big.Int
	Members   [][32]byte
	Weights   []*big.Int
	Ext1      *big.Int
	Ext2      *big.Int
	Ext3      *big.Int
}

var boardArguments = abi.Arguments{
	{Name: "board", Type: mustType("tuple", []abi.ArgumentMarshaling{
		{Name: "threshold", Type: "uint256"},
		{Name: "members", Type: "bytes32[]"},
		{Name: "weights", Type: "uint256[]"},
		{Name: "ext1", Type: "uint256"},
		{Name: "ext2", Type: "uint256"},
		{Name: "ext3", Type: "uint256"},
	}...)},
}

// EncodeBoard ABI-encodes a Board for hashing.
func EncodeBoard(b Board) ([]byte, error) {
	if b.Ext1 == nil {
		b.Ext1 = big.NewInt(0)
	}
	if b.Ext2 == nil {
		b.Ext2 = big.NewInt(0)
	}
	if b.Ext3 == nil {
		b.Ext3 = big.NewInt(0)
	}
	out, err := boardArguments.Pack(b)
	if err != nil {
		return nil, xerrors.Encoding("abicoder.EncodeBoard", fmt.Errorf("pack board: %w", err))
	}
	return out, nil
}
