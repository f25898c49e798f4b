package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/internal/testutil"
	"github.com/certen/xln-settlement/pkg/config"
)

func TestDeriveSoloGroupIsDeterministicPerName(t *testing.T) {
	seed := []byte("validatornode-test-seed")

	groupA, idA, err := deriveSoloGroup(seed, "alice")
	require.NoError(t, err)
	groupB, idB, err := deriveSoloGroup(seed, "alice")
	require.NoError(t, err)

	assert.Equal(t, idA, idB)
	require.Len(t, groupA.Members, 1)
	require.Len(t, groupB.Members, 1)
	assert.Equal(t, groupA.Members[0].State.EntityID, groupB.Members[0].State.EntityID)

	otherGroup, otherID := testutil.DeriveSoloGroup(t, seed, "bob")
	assert.NotEqual(t, idA, otherID)
	assert.NotEqual(t, groupA.Members[0].State.EntityID, otherGroup.Members[0].State.EntityID)
}

func TestDepositoryAddressRejectsInvalidHex(t *testing.T) {
	_, err := depositoryAddress(config.JurisdictionConfig{Name: "j1", DepositoryAddress: "not-an-address"})
	assert.Error(t, err)
}

func TestEntityProviderAddressEmptyIsZeroValue(t *testing.T) {
	out, err := entityProviderAddress(config.JurisdictionConfig{Name: "j1"})
	require.NoError(t, err)
	assert.Equal(t, [20]byte{}, out)
}

func TestParseEntityIDRoundTripsHexWithAndWithoutPrefix(t *testing.T) {
	group, id := testutil.DeriveSoloGroup(t, []byte("parse-test-seed"), "carol")
	_ = group

	parsed, err := parseEntityID(hexString(id))
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsedPrefixed, err := parseEntityID("0x" + hexString(id))
	require.NoError(t, err)
	assert.Equal(t, id, parsedPrefixed)
}

func hexString(id [32]byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, 64)
	for _, b := range id {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(out)
}
