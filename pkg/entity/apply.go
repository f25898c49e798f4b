package entity

import (
	"fmt"
)

// applyTx dispatches one entity transaction against clone, the mutable
// scratch state a proposal is being built or replayed against (spec
// section 4.4 step 1: "Each tx handler returns (new state, outgoing
// entity-inputs, outgoing j-inputs, ...)"). J-inputs are folded directly
// into clone.Batch rather than threaded through a separate return value,
// since the batch is itself part of committed entity state.
func applyTx(clone *State, tx Tx, signer *ReplicaSigner, timestampMillis uint64) ([]Output, error) {
	switch tx.Kind {
	case TxChat:
		return nil, clone.applyChat(tx.Chat)
	case TxProfileUpdate:
		return nil, clone.applyProfileUpdate(tx.ProfileUpdate)
	case TxGovernancePropose:
		return nil, clone.applyGovernancePropose(tx.GovernancePropose)
	case TxGovernanceVote:
		return nil, clone.applyGovernanceVote(tx.GovernanceVote)

	case TxOpenAccount:
		return nil, clone.applyOpenAccount(tx.OpenAccount)
	case TxAccountInput:
		return clone.applyAccountInput(tx.AccountInput, signer, timestampMillis)
	case TxDirectPayment:
		return nil, clone.applyDirectPayment(tx.DirectPayment)
	case TxRequestWithdrawal:
		return nil, clone.applyRequestWithdrawal(tx.RequestWithdrawal)
	case TxExtendCredit:
		return nil, clone.applyExtendCredit(tx.ExtendCredit)
	case TxSettleHold:
		return nil, clone.applySettleHold(tx.SettleHold)
	case TxSettleRelease:
		return nil, clone.applySettleRelease(tx.SettleRelease)
	case TxHTLCPayment:
		return nil, clone.applyHTLCPayment(tx.HTLCPayment)
	case TxSwapOffer:
		return nil, clone.applySwapOffer(tx.SwapOffer)
	case TxSwapCancel:
		return nil, clone.applySwapCancel(tx.SwapCancel)
	case TxSwapResolve:
		return nil, clone.applySwapResolve(tx.SwapResolve)

	case TxJEvent:
		return clone.applyJEvent(tx.JEvent)
	case TxJEventAccountClaim:
		return nil, clone.applyJEventAccountClaim(tx.JEventAccountClaim)
	case TxJBroadcast:
		return nil, clone.applyJBroadcastMark()
	case TxJClearBatch:
		clone.Batch.Abort()
		return nil, nil

	case TxPayToReserve:
		return nil, clone.applyPayToReserve(tx.PayToReserve)
	case TxPayFromReserve:
		return nil, clone.applyPayFromReserve(tx.PayFromReserve)
	case TxReserveToReserve:
		return nil, clone.applyReserveToReserve(tx.ReserveToReserve)
	case TxCreateSettlement:
		return nil, clone.applyCreateSettlement(tx.CreateSettlement)

	default:
		return nil, errValidation("entity.applyTx", "unknown tx kind %q", tx.Kind)
	}
}

func (s *State) applyChat(t *ChatTx) error {
	if t == nil {
		return errValidation("entity.chat", "missing payload")
	}
	s.Log.push(fmt.Sprintf("chat from %x: %s", t.From, t.Message))
	return nil
}

func (s *State) applyProfileUpdate(t *ProfileUpdateTx) error {
	if t == nil {
		return errValidation("entity.profile_update", "missing payload")
	}
	s.Log.push(fmt.Sprintf("profile.%s = %s", t.Field, t.Value))
	return nil
}

func (s *State) applyGovernancePropose(t *GovernanceProposeTx) error {
	if t == nil {
		return errValidation("entity.propose", "missing payload")
	}
	s.Log.push(fmt.Sprintf("governance proposal %x: %s", t.ProposalID, t.Action))
	return nil
}

func (s *State) applyGovernanceVote(t *GovernanceVoteTx) error {
	if t == nil {
		return errValidation("entity.vote", "missing payload")
	}
	if _, ok := s.Config.indexOf(t.Voter); !ok {
		return errValidation("entity.vote", "voter %x is not a member of the validator set", t.Voter)
	}
	s.Log.push(fmt.Sprintf("vote on %x by %x: %v", t.ProposalID, t.Voter, t.Approve))
	return nil
}

func (s *State) applyOpenAccount(t *OpenAccountTx) error {
	if t == nil {
		return errValidation("entity.open_account", "missing payload")
	}
	s.getOrCreateAccount(t.Counterparty)
	return nil
}
