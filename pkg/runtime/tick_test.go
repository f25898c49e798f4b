package runtime

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/entity"
	"github.com/certen/xln-settlement/pkg/hanko"
	"github.com/certen/xln-settlement/pkg/jurisdiction"
)

func newSoloGroup(t *testing.T, seedName string) (*Group, entity.EntityID) {
	t.Helper()
	key, err := cryptokeys.DeriveKey([]byte("runtime-test-seed"), seedName)
	require.NoError(t, err)
	id, err := hanko.SingleEOAEntityID(key.EOA())
	require.NoError(t, err)

	cfg := entity.Config{Threshold: 1, Validators: []entity.ValidatorInfo{{ID: key.EOA(), Weight: 1}}}
	state := entity.New(id, cfg)
	signer := entity.NewReplicaSigner(id, cfg, key)
	replica := entity.NewReplica(state, signer, 0)
	return &Group{Members: []*entity.Replica{replica}}, id
}

func TestTickRoutesOutputsWithOneTickDelay(t *testing.T) {
	aliceGroup, aliceID := newSoloGroup(t, "alice")
	bobGroup, bobID := newSoloGroup(t, "bob")

	env := NewEnv(nil, nil)
	env.AddEntity(aliceID, aliceGroup.Members...)
	env.AddEntity(bobID, bobGroup.Members...)

	ctx := context.Background()

	env.Submit(Input{Kind: InputEntityTx, EntityTx: &EntityTxInput{
		Target: aliceID,
		Tx:     entity.Tx{Kind: entity.TxOpenAccount, OpenAccount: &entity.OpenAccountTx{Counterparty: bobID}},
	}})
	res, err := env.Tick(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, res.GroupsRun)
	assert.Zero(t, res.OutputsRouted)
	assert.EqualValues(t, 1, aliceGroup.Members[0].State.Height)

	env.Submit(Input{Kind: InputEntityTx, EntityTx: &EntityTxInput{
		Target: aliceID,
		Tx: entity.Tx{Kind: entity.TxJEventAccountClaim, JEventAccountClaim: &entity.JEventAccountClaimTx{
			Counterparty:    bobID,
			TokenID:         7,
			CollateralDelta: big.NewInt(1000),
			JHeight:         1,
		}},
	}})
	res, err = env.Tick(ctx, 1100)
	require.NoError(t, err)
	require.Equal(t, 1, res.OutputsRouted) // the proposal lands in bob's mempool for next tick

	// Tick 3: bob's group runs, ACKs the proposal; the ack is queued for alice.
	res, err = env.Tick(ctx, 1200)
	require.NoError(t, err)
	require.Equal(t, 1, res.OutputsRouted)

	// Tick 4: alice commits bob's ack.
	res, err = env.Tick(ctx, 1300)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)

	require.Len(t, aliceGroup.Members[0].State.Accounts, 1)
	require.Len(t, bobGroup.Members[0].State.Accounts, 1)
}

func TestTickDrainsJurisdictionEventsAfterBlockDelay(t *testing.T) {
	aliceGroup, aliceID := newSoloGroup(t, "carol")

	env := NewEnv(nil, nil)
	env.AddEntity(aliceID, aliceGroup.Members...)

	adapter := jurisdiction.NewInProcessAdapter(1, [20]byte{0xAA})
	jr := NewJReplica(adapter, [20]byte{0xAA})
	jr.BlockDelayMillis = 0
	env.AddJurisdiction("default", jr)

	require.NoError(t, adapter.SubmitEvents(1, []jurisdiction.Event{{
		Kind:            jurisdiction.EventReserveUpdated,
		Entity:          aliceID,
		TokenID:         1,
		CollateralDelta: big.NewInt(500),
	}}))

	ctx := context.Background()
	res, err := env.Tick(ctx, 2000)
	require.NoError(t, err)
	assert.Equal(t, 1, res.JObserved)

	// The j_event tx routed this tick is only applied on the *next* tick.
	res, err = env.Tick(ctx, 2100)
	require.NoError(t, err)
	assert.Equal(t, 1, res.GroupsRun)

	require.Contains(t, aliceGroup.Members[0].State.Reserves, entity.TokenID(1))
	assert.Equal(t, big.NewInt(500), aliceGroup.Members[0].State.Reserves[1])
}

func TestSnapshotHistoryCapturesCommittedState(t *testing.T) {
	aliceGroup, aliceID := newSoloGroup(t, "dave")
	env := NewEnv(nil, nil)
	env.AddEntity(aliceID, aliceGroup.Members...)

	env.Submit(Input{Kind: InputEntityTx, EntityTx: &EntityTxInput{
		Target: aliceID,
		Tx:     entity.Tx{Kind: entity.TxPayToReserve, PayToReserve: &entity.PayToReserveTx{TokenID: 9, Amount: big.NewInt(42)}},
	}})
	res, err := env.Tick(context.Background(), 3000)
	require.NoError(t, err)

	snap, ok := env.SnapshotAt(res.Height)
	require.True(t, ok)
	require.Contains(t, snap.Entities, aliceID)
	assert.Equal(t, big.NewInt(42), snap.Entities[aliceID].Reserves[9])
}
