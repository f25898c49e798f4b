package jbatch

import "github.com/certen/xln-settlement/pkg/abicoder"

// Reconcile folds a HankoBatchProcessed{entityId,nonce,success} event
// against s.Sent (spec section 4.5, "Reconciliation"). It is a no-op if
// nonce does not match the outstanding sent batch (a stale or foreign
// event).
func (s *State) Reconcile(nonce uint64, success bool) {
	if s.Sent == nil || nonce != s.SentNonce {
		return
	}
	if success {
		s.Sent = nil
		s.FailedAttempts = 0
		s.refreshStatus()
		return
	}
	s.mergeBack(*s.Sent)
	s.Sent = nil
	s.FailedAttempts++
	s.Status = StatusFailed
}

// mergeBack appends every operation of a failed sent batch back onto the
// current batch, in the same order, so the entity can amend and retry
// (spec section 4.5: "merge sentBatch.batch back into the current batch
// (operation-by-operation append)").
func (s *State) mergeBack(sent abicoder.Batch) {
	s.Current.FlashLoans = append(s.Current.FlashLoans, sent.FlashLoans...)
	s.Current.ReserveToReserve = append(s.Current.ReserveToReserve, sent.ReserveToReserve...)
	s.Current.ReserveToCollateral = append(s.Current.ReserveToCollateral, sent.ReserveToCollateral...)
	s.Current.CollateralToReserve = append(s.Current.CollateralToReserve, sent.CollateralToReserve...)
	s.Current.Settlements = append(s.Current.Settlements, sent.Settlements...)
	s.Current.DisputeStarts = append(s.Current.DisputeStarts, sent.DisputeStarts...)
	s.Current.DisputeFinalizations = append(s.Current.DisputeFinalizations, sent.DisputeFinalizations...)
	s.Current.ExternalTokenToReserve = append(s.Current.ExternalTokenToReserve, sent.ExternalTokenToReserve...)
	s.Current.ReserveToExternalToken = append(s.Current.ReserveToExternalToken, sent.ReserveToExternalToken...)
	s.Current.RevealSecrets = append(s.Current.RevealSecrets, sent.RevealSecrets...)
}
