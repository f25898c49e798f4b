package entity

import (
	"github.com/certen/xln-settlement/pkg/account"
)

// applyAccountInput routes an incoming bilateral message -- a fresh
// proposal or an ACK of one this entity sent -- to the shared account (spec
// section 4.4, "Account-input routing": "account_input txs ... are handed
// to the matching account's ReceiveProposal/HandleAck"). The counterparty's
// own validator set is not replicated here, so verification falls back to
// the self-contained path (cfg == nil): RecoverHankoEntities checks the
// claimed signer set's own weight against its own threshold rather than
// cross-checking it against a locally held copy of that entity's config.
func (s *State) applyAccountInput(t *AccountInputTx, signer *ReplicaSigner, timestampMillis uint64) ([]Output, error) {
	if t == nil {
		return nil, errValidation("entity.account_input", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)

	switch {
	case t.Proposal != nil:
		// ResolveSimultaneous errors out (rather than returning an ack) when
		// the local side is canonically left and already has a pending
		// proposal of its own -- the incoming one loses and the counterparty
		// is expected to retry, which surfaces here as an ordinary dropped
		// tx (applyTx's caller treats any handler error that way).
		ackHanko, err := acct.ResolveSimultaneous(signer, t.Proposal, nil)
		if err != nil {
			return nil, err
		}
		return []Output{{
			TargetEntity: t.Counterparty,
			Input: Tx{
				Kind: TxAccountInput,
				AccountInput: &AccountInputTx{
					Counterparty: s.EntityID,
					Ack: &AckMessage{
						FrameHeight: acct.CurrentFrame.Height,
						StateHash:   acct.CurrentFrame.StateHash,
						Hanko:       ackHanko,
					},
				},
			},
		}}, nil

	case t.Ack != nil:
		if err := acct.HandleAck(signer, t.Ack.Hanko, nil); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, errValidation("entity.account_input", "neither proposal nor ack set")
	}
}

func (s *State) applyDirectPayment(t *DirectPaymentTx) error {
	if t == nil {
		return errValidation("entity.direct_payment", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxDirectPayment,
		DirectPayment: &account.DirectPaymentTx{
			TokenID:  t.TokenID,
			Amount:   t.Amount,
			FromLeft: acct.IsLocalLeft(s.EntityID),
		},
	})
	return nil
}

// applyRequestWithdrawal stages a hold on this entity's side of the
// account: the funds stay locked until a settle_release tx releases the
// hold; a j_sync does not touch it (spec section 4.3 hold fields,
// section 4.5 withdrawal settlement path).
func (s *State) applyRequestWithdrawal(t *RequestWithdrawalTx) error {
	if t == nil {
		return errValidation("entity.request_withdrawal", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxSettleHold,
		SettleHold: &account.SettleHoldTx{
			TokenID:  t.TokenID,
			Amount:   t.Amount,
			FromLeft: acct.IsLocalLeft(s.EntityID),
		},
	})
	return nil
}

func (s *State) applyExtendCredit(t *ExtendCreditTx) error {
	if t == nil {
		return errValidation("entity.extend_credit", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxSetCreditLimit,
		SetCreditLimit: &account.SetCreditLimitTx{
			TokenID:  t.TokenID,
			NewLimit: t.NewLimit,
			FromLeft: acct.IsLocalLeft(s.EntityID),
		},
	})
	return nil
}

func (s *State) applySettleHold(t *SettleHoldTx) error {
	if t == nil {
		return errValidation("entity.settle_hold", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxSettleHold,
		SettleHold: &account.SettleHoldTx{
			TokenID:  t.TokenID,
			Amount:   t.Amount,
			FromLeft: acct.IsLocalLeft(s.EntityID),
		},
	})
	return nil
}

func (s *State) applySettleRelease(t *SettleReleaseTx) error {
	if t == nil {
		return errValidation("entity.settle_release", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxSettleRelease,
		SettleRelease: &account.SettleReleaseTx{
			TokenID:  t.TokenID,
			Amount:   t.Amount,
			FromLeft: acct.IsLocalLeft(s.EntityID),
		},
	})
	return nil
}

func (s *State) applyHTLCPayment(t *HTLCPaymentTx) error {
	if t == nil {
		return errValidation("entity.htlc_payment", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxHTLCLock,
		HTLCLock: &account.HTLCLockTx{
			LockID:             t.LockID,
			TokenID:            t.TokenID,
			Amount:             t.Amount,
			FromLeft:           acct.IsLocalLeft(s.EntityID),
			HashLock:           t.HashLock,
			Timelock:           t.Timelock,
			RevealBeforeHeight: t.RevealBeforeHeight,
		},
	})
	return nil
}

func (s *State) applySwapOffer(t *SwapOfferTx) error {
	if t == nil {
		return errValidation("entity.swap_offer", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxSwapOffer,
		SwapOffer: &account.SwapOfferTx{
			OfferID:      t.OfferID,
			FromLeft:     acct.IsLocalLeft(s.EntityID),
			GiveTokenID:  t.GiveTokenID,
			GiveAmount:   t.GiveAmount,
			WantTokenID:  t.WantTokenID,
			WantAmount:   t.WantAmount,
			MinFillRatio: t.MinFillRatio,
		},
	})
	return nil
}

func (s *State) applySwapCancel(t *SwapCancelTx) error {
	if t == nil {
		return errValidation("entity.swap_cancel", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind:       account.TxSwapCancel,
		SwapCancel: &account.SwapCancelTx{OfferID: t.OfferID},
	})
	return nil
}

func (s *State) applySwapResolve(t *SwapResolveTx) error {
	if t == nil {
		return errValidation("entity.swap_resolve", "missing payload")
	}
	acct := s.getOrCreateAccount(t.Counterparty)
	acct.EnqueueMempool(account.Tx{
		Kind: account.TxSwapResolve,
		SwapResolve: &account.SwapResolveTx{
			OfferID:    t.OfferID,
			FillAmount: t.FillAmount,
		},
	})
	return nil
}
