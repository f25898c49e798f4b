package snapshot

import (
	"math/big"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type innerSample struct {
	Name string
	Tags []string
}

type sample struct {
	ID      [32]byte
	Amount  *big.Int
	Balance map[uint32]*big.Int
	Nested  *innerSample
	Absent  *innerSample
	Signers mapset.Set[[32]byte]
	Flags   []bool
}

func TestBinaryRoundTripStruct(t *testing.T) {
	in := sample{
		ID:      [32]byte{1, 2, 3},
		Amount:  big.NewInt(-12345),
		Balance: map[uint32]*big.Int{3: big.NewInt(30), 1: big.NewInt(10), 2: big.NewInt(20)},
		Nested:  &innerSample{Name: "alice", Tags: []string{"a", "b"}},
		Absent:  nil,
		Signers: mapset.NewSet[[32]byte]([32]byte{9}, [32]byte{1}),
		Flags:   []bool{true, false, true},
	}

	data, err := Encode(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Decode(data, &out))

	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Amount, out.Amount)
	require.Len(t, out.Balance, 3)
	assert.Equal(t, big.NewInt(10), out.Balance[1])
	assert.Equal(t, big.NewInt(20), out.Balance[2])
	assert.Equal(t, big.NewInt(30), out.Balance[3])
	require.NotNil(t, out.Nested)
	assert.Equal(t, "alice", out.Nested.Name)
	assert.Equal(t, []string{"a", "b"}, out.Nested.Tags)
	assert.Nil(t, out.Absent)
	require.NotNil(t, out.Signers)
	assert.True(t, out.Signers.Contains([32]byte{9}))
	assert.True(t, out.Signers.Contains([32]byte{1}))
	assert.Equal(t, 2, out.Signers.Cardinality())
	assert.Equal(t, []bool{true, false, true}, out.Flags)
}

func TestBinaryEncodingInvariantUnderMapInsertionOrder(t *testing.T) {
	a := map[uint32]*big.Int{}
	a[3] = big.NewInt(1)
	a[1] = big.NewInt(2)
	b := map[uint32]*big.Int{}
	b[1] = big.NewInt(2)
	b[3] = big.NewInt(1)

	ea, err := Encode(a)
	require.NoError(t, err)
	eb, err := Encode(b)
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}

func TestBigIntSignMagnitudeRoundTrip(t *testing.T) {
	for _, v := range []*big.Int{big.NewInt(0), big.NewInt(1), big.NewInt(-1), big.NewInt(1 << 40), new(big.Int).Neg(big.NewInt(1 << 40))} {
		data, err := Encode(v)
		require.NoError(t, err)
		var out *big.Int
		require.NoError(t, Decode(data, &out))
		assert.Equal(t, 0, v.Cmp(out), "want %s got %s", v, out)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode(sample{})
	require.NoError(t, err)
	var out sample
	require.Error(t, Decode(append(data, 0xFF), &out))
}
