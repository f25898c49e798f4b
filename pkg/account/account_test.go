package account

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/hanko"
)

// testSigner is a lazy single-EOA entity whose entity-id is the board hash
// of a 1-of-1 quorum over its EOA (hanko.SingleEOAEntityID) -- the minimal
// Signer implementation exercised by these tests.
type testSigner struct {
	key *cryptokeys.PrivateKey
	id  EntityID
}

func newTestSigner(t *testing.T, name string) *testSigner {
	t.Helper()
	key, err := cryptokeys.DeriveKey([]byte("test-seed"), name)
	require.NoError(t, err)
	id, err := hanko.SingleEOAEntityID(key.EOA())
	require.NoError(t, err)
	return &testSigner{key: key, id: id}
}

func (s *testSigner) Sign(hash codec.Hash32) (cryptokeys.Signature65, error) { return s.key.Sign(hash) }
func (s *testSigner) EntityID() EntityID                                    { return s.id }
func (s *testSigner) QuorumConfig() hanko.QuorumConfig                      { return hanko.QuorumConfig{} }
func (s *testSigner) BuildHanko(hash codec.Hash32) (hanko.Hanko, error) {
	return hanko.SignSingle(s.key, s.id, hash)
}

func setupFundedAccount(t *testing.T, a, b *testSigner, tokenID TokenID, collateral int64) *Account {
	t.Helper()
	acct := New(a.EntityID(), b.EntityID())
	d := acct.getOrCreateDelta(tokenID)
	d.Collateral = big.NewInt(collateral)
	return acct
}

func TestDirectPaymentMovesOffdelta(t *testing.T) {
	alice := newTestSigner(t, "alice")
	bob := newTestSigner(t, "bob")
	acct := setupFundedAccount(t, alice, bob, 1, 1000)
	// Each side keeps its own replica of the account.
	counterpartyAcct := setupFundedAccount(t, alice, bob, 1, 1000)

	sender, _ := CanonicalOrder(alice.EntityID(), bob.EntityID())
	fromLeft := sender == acct.Left

	acct.enqueueMempool(Tx{Kind: TxDirectPayment, DirectPayment: &DirectPaymentTx{
		TokenID: 1, Amount: big.NewInt(100), FromLeft: fromLeft,
	}})

	proposerSigner := alice
	if acct.Left != alice.EntityID() {
		proposerSigner = bob
	}
	acceptorSigner := bob
	if proposerSigner == bob {
		acceptorSigner = alice
	}

	prop, err := acct.ProposeFrame(proposerSigner, 1, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(1), prop.Frame.Height)

	ack, err := counterpartyAcct.ReceiveProposal(acceptorSigner, prop, nil)
	require.NoError(t, err)

	require.NoError(t, acct.HandleAck(proposerSigner, ack, nil))

	d := acct.Deltas[1]
	assert.Equal(t, big.NewInt(-100), d.Offdelta)

	outLeft := d.outCapacity(true)
	outRight := d.outCapacity(false)
	assert.Equal(t, big.NewInt(900), outLeft)
	assert.Equal(t, big.NewInt(100), outRight)
}

func TestHTLCLockAndResolveWithSecret(t *testing.T) {
	alice := newTestSigner(t, "alice2")
	bob := newTestSigner(t, "bob2")
	acct := setupFundedAccount(t, alice, bob, 1, 500)

	secret := []byte("preimage")
	hashLock := codec.Keccak256(secret)
	lockID := [32]byte{9}

	fromLeft := true
	err := acct.applyHTLCLock(&HTLCLockTx{
		LockID: lockID, TokenID: 1, Amount: big.NewInt(50), FromLeft: fromLeft,
		HashLock: hashLock, Timelock: 100, RevealBeforeHeight: 10,
	})
	require.NoError(t, err)

	d := acct.Deltas[1]
	assert.Equal(t, big.NewInt(50), d.LeftHtlcHold)
	assert.Equal(t, big.NewInt(450), d.outCapacity(true)) // 500 own share - 50 hold

	require.NoError(t, acct.applyHTLCResolve(&HTLCResolveTx{LockID: lockID, Outcome: HTLCOutcomeSecret, Secret: secret}))

	assert.Equal(t, big.NewInt(0), d.LeftHtlcHold)
	assert.Equal(t, big.NewInt(-50), d.Offdelta)
	_, exists := acct.HTLCs[lockID]
	assert.False(t, exists)
}

func TestHTLCResolveRejectsWrongSecret(t *testing.T) {
	alice := newTestSigner(t, "alice3")
	bob := newTestSigner(t, "bob3")
	acct := setupFundedAccount(t, alice, bob, 1, 500)

	hashLock := codec.Keccak256([]byte("correct"))
	lockID := [32]byte{1}
	require.NoError(t, acct.applyHTLCLock(&HTLCLockTx{
		LockID: lockID, TokenID: 1, Amount: big.NewInt(10), FromLeft: true,
		HashLock: hashLock, Timelock: 10, RevealBeforeHeight: 5,
	}))

	err := acct.applyHTLCResolve(&HTLCResolveTx{LockID: lockID, Outcome: HTLCOutcomeSecret, Secret: []byte("wrong")})
	assert.Error(t, err)
}

func TestCapacityNeverExceedsTotal(t *testing.T) {
	d := newDelta(1)
	d.Collateral = big.NewInt(1000)
	d.LeftCreditLimit = big.NewInt(200)
	d.RightCreditLimit = big.NewInt(300)
	d.Offdelta = big.NewInt(-400)

	total := d.totalCapacity()
	assert.Equal(t, big.NewInt(1500), total)

	outL := d.outCapacity(true)
	outR := d.outCapacity(false)
	assert.True(t, outL.Sign() >= 0)
	assert.True(t, outR.Sign() >= 0)
	assert.True(t, outL.Cmp(total) <= 0)
	assert.True(t, outR.Cmp(total) <= 0)
}

func TestSwapOfferFullFill(t *testing.T) {
	alice := newTestSigner(t, "alice4")
	bob := newTestSigner(t, "bob4")
	acct := setupFundedAccount(t, alice, bob, 1, 1000)
	acct.getOrCreateDelta(2).Collateral = big.NewInt(1000)
	// With zero ondelta/offdelta all token-2 collateral counts toward the
	// left side; the right side pays the want leg, so it needs credit.
	acct.Deltas[2].RightCreditLimit = big.NewInt(1000)

	offerID := [32]byte{7}
	require.NoError(t, acct.applySwapOffer(&SwapOfferTx{
		OfferID: offerID, FromLeft: true,
		GiveTokenID: 1, GiveAmount: big.NewInt(100),
		WantTokenID: 2, WantAmount: big.NewInt(50),
	}))
	require.NoError(t, acct.applySwapResolve(&SwapResolveTx{OfferID: offerID, FillAmount: big.NewInt(100)}))

	_, exists := acct.Offers[offerID]
	assert.False(t, exists)
	assert.Equal(t, big.NewInt(-100), acct.Deltas[1].Offdelta)
	assert.Equal(t, big.NewInt(50), acct.Deltas[2].Offdelta)
}

func TestJSyncUpdatesCollateralAndOndelta(t *testing.T) {
	alice := newTestSigner(t, "alice5")
	bob := newTestSigner(t, "bob5")
	acct := New(alice.EntityID(), bob.EntityID())

	err := acct.applyJSync(&JSyncTx{JHeight: 42, Events: []JEvent{
		{TokenID: 1, CollateralDelta: big.NewInt(1000), OndeltaDelta: big.NewInt(0)},
	}})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), acct.Deltas[1].Collateral)
}
