package entity

import (
	"github.com/certen/xln-settlement/pkg/account"
)

// applyJEvent folds one signer's J-block observation report into the
// aggregate and, once it pushes signed weight past threshold, finalizes the
// block and replays its events (spec section 4.4, "J-block observation").
func (s *State) applyJEvent(t *JEventTx) ([]Output, error) {
	if t == nil {
		return nil, errValidation("entity.j_event", "missing payload")
	}
	reachedQuorum := s.recordObservation(t.SignerID, t.JHeight, t.JBlockHash, t.Events)
	if !reachedQuorum {
		return nil, nil
	}
	return s.finalizeObservation(t.JHeight, t.JBlockHash)
}

// applyJEventAccountClaim applies an account-relevant finalized event
// directly as a j_sync on the matching account (spec section 4.4: "turned
// into j_event_account_claim txs that each side's accounts apply as
// j_sync"). Unlike applyJSyncClaim in jreplay.go (which is driven
// internally by finalizeObservation for an AccountSettled jurisdiction
// event), this handler lets the claim travel as an ordinary entity tx --
// the path a replica uses when replaying its own mempool rather than a
// freshly observed J-block.
func (s *State) applyJEventAccountClaim(t *JEventAccountClaimTx) error {
	if t == nil {
		return errValidation("entity.j_event_account_claim", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxJSync,
		JSync: &account.JSyncTx{
			JHeight: t.JHeight,
			Events: []account.JEvent{{
				TokenID:         t.TokenID,
				CollateralDelta: signedOrZero(t.CollateralDelta),
				OndeltaDelta:    signedOrZero(t.OndeltaDelta),
			}},
		},
	})
	return nil
}

// applyJBroadcastMark flags that this entity wants its current J-batch
// broadcast at the next opportunity; the Runtime tick loop owns the actual
// jurisdiction.Adapter call; an entity handler only ever mutates replicated
// state (spec section 5: handlers are pure functions of state and inputs).
func (s *State) applyJBroadcastMark() error {
	s.BroadcastRequested = true
	return nil
}
