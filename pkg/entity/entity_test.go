package entity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/pkg/account"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/hanko"
	"github.com/certen/xln-settlement/pkg/jurisdiction"
)

// newSoloReplica builds a single-validator entity -- the common test and
// single-operator deployment shape -- whose entity-id is the board hash of
// a 1-of-1 quorum over its EOA and whose EOA is its sole validator.
func newSoloReplica(t *testing.T, seedName string) (*Replica, EntityID) {
	t.Helper()
	key, err := cryptokeys.DeriveKey([]byte("entity-test-seed"), seedName)
	require.NoError(t, err)
	id, err := hanko.SingleEOAEntityID(key.EOA())
	require.NoError(t, err)

	cfg := Config{Threshold: 1, Validators: []ValidatorInfo{{ID: key.EOA(), Weight: 1}}}
	state := New(id, cfg)
	signer := NewReplicaSigner(id, cfg, key)
	return NewReplica(state, signer, 0), id
}

// finishHandshake carries a proposal output (already produced by the
// proposer) through the remaining two legs of the spec section 4.3
// handshake: the responder ACKs it, and the proposer commits the ACK.
func finishHandshake(t *testing.T, proposer, responder *Replica, proposalOutput Output, tick uint64) {
	t.Helper()
	require.NotNil(t, proposalOutput.Input.AccountInput.Proposal)

	responder.State.Mempool = append(responder.State.Mempool, proposalOutput.Input)
	acks, err := responder.SoloCommit(tick)
	require.NoError(t, err)
	require.Len(t, acks, 1)
	require.NotNil(t, acks[0].Input.AccountInput.Ack)

	proposer.State.Mempool = append(proposer.State.Mempool, acks[0].Input)
	_, err = proposer.SoloCommit(tick + 1)
	require.NoError(t, err)
}

// settleRound enqueues a fresh mempool tx on proposer (the caller has
// already appended it), commits it, and drives the resulting proposal
// through the rest of the handshake.
func settleRound(t *testing.T, proposer, responder *Replica, tick uint64) {
	t.Helper()
	outs, err := proposer.SoloCommit(tick)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	finishHandshake(t, proposer, responder, outs[0], tick+1)
}

func TestSoloCommitOpenAccountAndDirectPayment(t *testing.T) {
	alice, aliceID := newSoloReplica(t, "alice")
	bob, bobID := newSoloReplica(t, "bob")
	left, _ := account.CanonicalOrder(aliceID, bobID)
	proposer, responder := alice, bob
	if left == bobID {
		proposer, responder = bob, alice
	}

	proposer.State.Mempool = append(proposer.State.Mempool, Tx{
		Kind:        TxOpenAccount,
		OpenAccount: &OpenAccountTx{Counterparty: responder.State.EntityID},
	})
	outputs, err := proposer.SoloCommit(1000)
	require.NoError(t, err)
	assert.Empty(t, outputs)
	assert.EqualValues(t, 1, proposer.State.Height)

	// Fund both sides identically via a j_event_account_claim round, the
	// path a real jurisdiction-observed deposit would take.
	proposer.State.Mempool = append(proposer.State.Mempool, Tx{
		Kind: TxJEventAccountClaim,
		JEventAccountClaim: &JEventAccountClaimTx{
			Counterparty:    responder.State.EntityID,
			TokenID:         7,
			CollateralDelta: big.NewInt(1000),
			JHeight:         1,
		},
	})
	outs, err := proposer.SoloCommit(1100)
	require.NoError(t, err)
	require.Len(t, outs, 1) // the j_sync is staged into an account frame this same tick

	finishHandshake(t, proposer, responder, outs[0], 1200)

	key := accountKey(aliceID, bobID)
	proposerAcct := proposer.State.Accounts[key]
	require.NotNil(t, proposerAcct)
	assert.EqualValues(t, 1, proposerAcct.CurrentFrame.Height)

	// Now route an ordinary payment from proposer to responder.
	proposer.State.Mempool = append(proposer.State.Mempool, Tx{
		Kind: TxDirectPayment,
		DirectPayment: &DirectPaymentTx{
			Counterparty: responder.State.EntityID,
			TokenID:      7,
			Amount:       big.NewInt(100),
		},
	})
	settleRound(t, proposer, responder, 1300)

	proposerAcct = proposer.State.Accounts[key]
	assert.EqualValues(t, 2, proposerAcct.CurrentFrame.Height)
	assert.Nil(t, proposerAcct.Pending)

	responderAcct := responder.State.Accounts[accountKey(bobID, aliceID)]
	require.NotNil(t, responderAcct)
	assert.EqualValues(t, 2, responderAcct.CurrentFrame.Height)
}

func TestJEventQuorumReplaysReserveUpdate(t *testing.T) {
	solo, id := newSoloReplica(t, "carol")
	signerID := solo.State.Config.Validators[0].ID

	solo.State.Mempool = append(solo.State.Mempool, Tx{
		Kind: TxJEvent,
		JEvent: &JEventTx{
			SignerID:   signerID,
			JHeight:    5,
			JBlockHash: [32]byte{0xAB},
			Events: []jurisdiction.Event{{
				Kind:            jurisdiction.EventReserveUpdated,
				Entity:          id,
				TokenID:         1,
				CollateralDelta: big.NewInt(500),
			}},
		},
	})
	_, err := solo.SoloCommit(3000)
	require.NoError(t, err)

	assert.EqualValues(t, 5, solo.State.LastFinalizedJHeight)
	require.Contains(t, solo.State.Reserves, TokenID(1))
	assert.Equal(t, big.NewInt(500), solo.State.Reserves[1])
}

func TestJBroadcastMarkSetsFlag(t *testing.T) {
	solo, _ := newSoloReplica(t, "dave")
	solo.State.Mempool = append(solo.State.Mempool, Tx{Kind: TxJBroadcast, JBroadcast: &JBroadcastTx{}})
	_, err := solo.SoloCommit(4000)
	require.NoError(t, err)
	assert.True(t, solo.State.BroadcastRequested)
}

func TestReserveToReserveAppendsBatchOp(t *testing.T) {
	solo, _ := newSoloReplica(t, "erin")
	_, otherID := newSoloReplica(t, "frank")

	solo.State.Reserves[2] = big.NewInt(1000)
	solo.State.Mempool = append(solo.State.Mempool, Tx{
		Kind: TxReserveToReserve,
		ReserveToReserve: &ReserveToReserveTx{
			ReceivingEntity: otherID,
			TokenID:         2,
			Amount:          big.NewInt(300),
		},
	})
	_, err := solo.SoloCommit(5000)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(700), solo.State.Reserves[2])
	assert.Equal(t, 1, solo.State.Batch.PendingOpsCount())
}
