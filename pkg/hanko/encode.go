package hanko

import (
	"fmt"
	"math/big"

	"github.com/certen/xln-settlement/pkg/abicoder"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/xerrors"
)

// Encode serializes h into the EntityProvider's hanko calldata layout, for
// use as the hankoData argument of Depository.processBatch (spec section
// 6, "Depository ABI").
func Encode(h Hanko) ([]byte, error) {
	packed := make([]byte, 0, len(h.PackedSigs)*65)
	for _, sig := range h.PackedSigs {
		packed = append(packed, sig[:]...)
	}

	claims := make([]abicoder.HankoClaim, len(h.Claims))
	for i, c := range h.Claims {
		weights := make([]*big.Int, len(c.Weights))
		for wi, w := range c.Weights {
			weights[wi] = new(big.Int).SetUint64(w)
		}
		claims[i] = abicoder.HankoClaim{
			EntityID:      c.EntityID,
			EntityIndexes: c.EntityIndexes,
			Weights:       weights,
			Threshold:     new(big.Int).SetUint64(c.Threshold),
		}
	}

	return abicoder.EncodeHanko(abicoder.HankoTuple{
		Placeholders: h.Placeholders,
		PackedSigs:   packed,
		Claims:       claims,
	})
}

// Decode reverses Encode.
func Decode(data []byte) (Hanko, error) {
	t, err := abicoder.DecodeHanko(data)
	if err != nil {
		return Hanko{}, err
	}
	if len(t.PackedSigs)%65 != 0 {
		return Hanko{}, xerrors.Encoding("hanko.Decode", fmt.Errorf("packedSigs length %d not a multiple of 65", len(t.PackedSigs)))
	}
	sigs := make([]cryptokeys.Signature65, len(t.PackedSigs)/65)
	for i := range sigs {
		copy(sigs[i][:], t.PackedSigs[i*65:(i+1)*65])
	}

	claims := make([]Claim, len(t.Claims))
	for i, c := range t.Claims {
		weights := make([]uint64, len(c.Weights))
		for wi, w := range c.Weights {
			weights[wi] = w.Uint64()
		}
		claims[i] = Claim{
			EntityID:      c.EntityID,
			EntityIndexes: c.EntityIndexes,
			Weights:       weights,
			Threshold:     c.Threshold.Uint64(),
		}
	}

	return Hanko{
		Placeholders: t.Placeholders,
		PackedSigs:   sigs,
		Claims:       claims,
	}, nil
}
