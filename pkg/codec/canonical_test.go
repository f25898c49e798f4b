package codec

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	TokenID int      `json:"tokenId"`
	Amount  *big.Int `json:"amount"`
	Name    string   `json:"name,omitempty"`
}

func TestCanonicalMapKeysSorted(t *testing.T) {
	m1 := map[string]int{"b": 2, "a": 1, "c": 3}
	b1, err := Canonical(m1)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(b1))
}

func TestCanonicalBigIntAsDecimalString(t *testing.T) {
	s := sample{TokenID: 1, Amount: big.NewInt(1000)}
	b, err := Canonical(s)
	require.NoError(t, err)
	assert.Equal(t, `{"tokenId":1,"amount":"1000"}`, string(b))
}

func TestCanonicalOmitsZeroWithOmitEmpty(t *testing.T) {
	s := sample{TokenID: 1, Amount: big.NewInt(0)}
	b, err := Canonical(s)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "name")
}

func TestCanonicalRejectsFloats(t *testing.T) {
	_, err := Canonical(map[string]any{"x": 1.5})
	require.Error(t, err)
}

func TestCanonicalInvariantUnderMapInsertionOrder(t *testing.T) {
	a := map[string]int{}
	a["z"] = 1
	a["a"] = 2
	b := map[string]int{}
	b["a"] = 2
	b["z"] = 1
	ea, err := Canonical(a)
	require.NoError(t, err)
	eb, err := Canonical(b)
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}

func TestCanonicalEncodesByteArrayAsHex(t *testing.T) {
	type withID struct {
		ID [4]byte
	}
	b, err := Canonical(withID{ID: [4]byte{0xde, 0xad, 0xbe, 0xef}})
	require.NoError(t, err)
	assert.Equal(t, `{"ID":"0xdeadbeef"}`, string(b))
}

func TestHashCanonicalDeterministic(t *testing.T) {
	s := sample{TokenID: 1, Amount: big.NewInt(42)}
	h1, err := HashCanonical(s)
	require.NoError(t, err)
	h2, err := HashCanonical(s)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
