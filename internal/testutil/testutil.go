// Package testutil holds scenario-test helpers shared by the pkg/snapshot
// and cmd/validatornode tests: deriving deterministic
// solo-validator entities and groups from a fixed seed, the same
// single-EOA bootstrap shape cmd/validatornode's deriveSoloGroup uses
// outside of tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/entity"
	"github.com/certen/xln-settlement/pkg/hanko"
	"github.com/certen/xln-settlement/pkg/runtime"
)

// DeriveSoloEntity derives a single-EOA entity.State and its id from seed
// and name, threshold 1, one validator acting as its own proposer.
func DeriveSoloEntity(t *testing.T, seed []byte, name string) (*entity.State, *cryptokeys.PrivateKey, entity.EntityID) {
	t.Helper()
	key, err := cryptokeys.DeriveKey(seed, name)
	require.NoError(t, err)
	id, err := hanko.SingleEOAEntityID(key.EOA())
	require.NoError(t, err)

	cfg := entity.Config{Threshold: 1, Validators: []entity.ValidatorInfo{{ID: key.EOA(), Weight: 1}}}
	state := entity.New(id, cfg)
	return state, key, id
}

// DeriveSoloGroup derives the same single-EOA entity as DeriveSoloEntity
// and wraps it in a one-member runtime.Group, ready to hand to
// Env.AddEntity.
func DeriveSoloGroup(t *testing.T, seed []byte, name string) (*runtime.Group, entity.EntityID) {
	t.Helper()
	state, key, id := DeriveSoloEntity(t, seed, name)
	signer := entity.NewReplicaSigner(id, state.Config, key)
	replica := entity.NewReplica(state, signer, 0)
	return &runtime.Group{Members: []*entity.Replica{replica}}, id
}
