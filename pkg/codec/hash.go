package codec

import (
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Hash32 is a 32-byte keccak256 digest.
type Hash32 [32]byte

// Keccak256 hashes the concatenation of data using the same keccak256
// implementation the Depository/EntityProvider contracts use on-chain, so
// off-chain hashes and recovered signatures stay bit-exact with the EVM.
func Keccak256(data ...[]byte) Hash32 {
	var h Hash32
	copy(h[:], gethcrypto.Keccak256(data...))
	return h
}

// HashCanonical canonical-encodes v and keccak256-hashes the result. This is
// the standard "hash of a structured value" operation used for frame state
// hashes, dispute hashes, and batch hashes throughout the core.
func HashCanonical(v any) (Hash32, error) {
	b, err := Canonical(v)
	if err != nil {
		return Hash32{}, err
	}
	return Keccak256(b), nil
}

func (h Hash32) Bytes() []byte { return h[:] }

func (h Hash32) Hex() string { return bytesToHex(h[:]) }

func (h Hash32) IsZero() bool { return h == Hash32{} }
