// Package cryptokeys implements the ECDSA signing/recovery primitives used
// by hanko signatures and key derivation (spec section 4.2). Signing and
// recovery operate on keccak256-of-message directly -- no EIP-191 wrapping
// in the internal frame domain, since these signatures never need to be
// presented to a wallet UI.
package cryptokeys

import (
	"crypto/ecdsa"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/xerrors"
)

// Signature65 is a packed r||s||v signature, v normalized to {27,28}.
type Signature65 [65]byte

// PrivateKey wraps a secp256k1 key; EOA is its keccak-derived left-padded
// bytes32 address, the address space hanko entity-indexes resolve into.
type PrivateKey struct {
	key *ecdsa.PrivateKey
	eoa [32]byte
}

// EOA returns the bytes32 left-padded EOA address for this key.
func (p *PrivateKey) EOA() [32]byte { return p.eoa }

// ECDSA exposes the underlying key for callers that need to hand it to
// go-ethereum APIs directly, such as bind.NewKeyedTransactorWithChainID
// when dialing a jurisdiction adapter.
func (p *PrivateKey) ECDSA() *ecdsa.PrivateKey { return p.key }

// Sign signs hash (already keccak256'd by the caller) and returns a 65-byte
// r||s||v signature with v normalized to {27,28}.
func (p *PrivateKey) Sign(hash codec.Hash32) (Signature65, error) {
	sig, err := gethcrypto.Sign(hash[:], p.key)
	if err != nil {
		return Signature65{}, xerrors.Encoding("cryptokeys.Sign", err)
	}
	var out Signature65
	copy(out[:], sig)
	out[64] += 27 // go-ethereum returns v in {0,1}; normalize to {27,28}
	return out, nil
}

// Recover recovers the EOA address (left-padded to bytes32) that produced
// sig over hash.
func Recover(hash codec.Hash32, sig Signature65) ([32]byte, error) {
	raw := sig
	if raw[64] >= 27 {
		raw[64] -= 27
	}
	pub, err := gethcrypto.SigToPub(hash[:], raw[:])
	if err != nil {
		return [32]byte{}, xerrors.ConsensusFailure("cryptokeys.Recover", fmt.Errorf("recover pubkey: %w", err))
	}
	return addressToEOA(gethcrypto.PubkeyToAddress(*pub)), nil
}

func addressToEOA(addr [20]byte) [32]byte {
	var out [32]byte
	copy(out[12:], addr[:])
	return out
}

// DeriveKey is a pure function of (seed, signerID): same inputs always
// yield the same key, replacing the teacher's global mutable key material
// with an explicit, cacheable derivation (spec section 9, "Global mutable
// state").
func DeriveKey(seed []byte, signerID string) (*PrivateKey, error) {
	digest := codec.Keccak256(seed, []byte(signerID))
	key, err := gethcrypto.ToECDSA(digest[:])
	if err != nil {
		return nil, xerrors.Encoding("cryptokeys.DeriveKey", fmt.Errorf("derive key for %q: %w", signerID, err))
	}
	return &PrivateKey{key: key, eoa: addressToEOA(gethcrypto.PubkeyToAddress(key.PublicKey))}, nil
}
