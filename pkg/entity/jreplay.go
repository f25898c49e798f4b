package entity

import (
	"fmt"
	"math/big"

	"github.com/certen/xln-settlement/pkg/account"
	"github.com/certen/xln-settlement/pkg/jurisdiction"
)

// replayJEvents folds a finalized J-block's events into entity state (spec
// section 4.4, "its events are replayed into entity state"). Events
// addressed to a different entity than s are ignored -- every replica only
// finalizes its own entity's view, even though in-process adapters deliver
// the same event stream to every observer.
func (s *State) replayJEvents(events []jurisdiction.Event) ([]Output, error) {
	var outputs []Output
	for _, ev := range events {
		if ev.Entity != s.EntityID {
			continue
		}
		switch ev.Kind {
		case jurisdiction.EventReserveUpdated:
			bal := s.getOrCreateReserve(TokenID(ev.TokenID))
			if ev.CollateralDelta != nil {
				bal.Add(bal, ev.CollateralDelta)
			}

		case jurisdiction.EventAccountSettled:
			if err := s.applyJSyncClaim(ev); err != nil {
				return nil, err
			}

		case jurisdiction.EventHankoBatchProcessed:
			s.Batch.Reconcile(ev.Nonce, ev.Success)

		case jurisdiction.EventSecretRevealed:
			out, err := s.revealSecretAcrossAccounts(ev)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, out...)

		case jurisdiction.EventDisputeStarted, jurisdiction.EventDisputeFinalized,
			jurisdiction.EventInsuranceClaimed, jurisdiction.EventInsuranceRegistered,
			jurisdiction.EventInsuranceExpired, jurisdiction.EventDebtCreated,
			jurisdiction.EventDebtEnforced, jurisdiction.EventGovernanceEnabled:
			s.Log.push(fmt.Sprintf("j-event %s at block %d (entity %x)", ev.Kind, ev.BlockNumber, ev.Entity))
		}
	}
	return outputs, nil
}

// applyJSyncClaim turns an AccountSettled event into a j_sync tx enqueued
// on the matching account's mempool (spec section 4.4:
// "turned into j_event_account_claim txs that each side's accounts apply
// as j_sync").
func (s *State) applyJSyncClaim(ev jurisdiction.Event) error {
	acct := s.getOrCreateAccount(ev.Counterparty)
	tx := account.Tx{
		Kind: account.TxJSync,
		JSync: &account.JSyncTx{
			JHeight: s.LastFinalizedJHeight,
			Events: []account.JEvent{{
				TokenID:         TokenID(ev.TokenID),
				CollateralDelta: signedOrZero(ev.CollateralDelta),
				OndeltaDelta:    signedOrZero(ev.OndeltaDelta),
			}},
		},
	}
	acct.EnqueueMempool(tx)
	// j_sync is self-applying: both sides observe the same jurisdiction
	// independently and enqueue the identical tx; it is folded in at the
	// next account tick like any other locally originated tx via the
	// ordinary ProposeFrame path.
	return nil
}

func signedOrZero(b *big.Int) *big.Int {
	if b == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(b)
}

// revealSecretAcrossAccounts finds any open HTLC lock whose hashlock
// matches keccak256(ev.Secret) across all of s's accounts and enqueues an
// htlc_resolve{secret} against it, bubbling the result onward per spec
// section 4.3's note that a revealed secret must propagate upstream
// through the account that accepted the inbound leg.
func (s *State) revealSecretAcrossAccounts(ev jurisdiction.Event) ([]Output, error) {
	var outputs []Output
	for _, acct := range s.Accounts {
		lockID, ok := acct.FindHTLCBySecret(ev.Secret)
		if !ok {
			continue
		}
		acct.EnqueueMempool(account.Tx{
			Kind: account.TxHTLCResolve,
			HTLCResolve: &account.HTLCResolveTx{
				LockID:  lockID,
				Outcome: account.HTLCOutcomeSecret,
				Secret:  ev.Secret,
			},
		})
	}
	return outputs, nil
}
