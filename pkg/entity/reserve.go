package entity

// applyPayToReserve credits this entity's own reserve balance directly --
// the entity itself is the jurisdiction-facing holder of this balance, so
// unlike a bilateral transfer there is no counterparty account to route
// through (spec section 3, "Reserve (per entity, per token)").
func (s *State) applyPayToReserve(t *PayToReserveTx) error {
	if t == nil {
		return errValidation("entity.pay_to_reserve", "missing payload")
	}
	bal := s.getOrCreateReserve(t.TokenID)
	bal.Add(bal, t.Amount)
	return nil
}

func (s *State) applyPayFromReserve(t *PayFromReserveTx) error {
	if t == nil {
		return errValidation("entity.pay_from_reserve", "missing payload")
	}
	bal := s.getOrCreateReserve(t.TokenID)
	if bal.Cmp(t.Amount) < 0 {
		return errValidation("entity.pay_from_reserve", "reserve %d balance %s below requested %s", t.TokenID, bal, t.Amount)
	}
	bal.Sub(bal, t.Amount)
	return nil
}

// applyReserveToReserve debits the local reserve and appends a
// reserveToReserve operation to the J-batch: the credit to the receiving
// entity only becomes real once the jurisdiction processes the batch (spec
// section 4.5 op list).
func (s *State) applyReserveToReserve(t *ReserveToReserveTx) error {
	if t == nil {
		return errValidation("entity.reserve_to_reserve", "missing payload")
	}
	bal := s.getOrCreateReserve(t.TokenID)
	if bal.Cmp(t.Amount) < 0 {
		return errValidation("entity.reserve_to_reserve", "reserve %d balance %s below requested %s", t.TokenID, bal, t.Amount)
	}
	bal.Sub(bal, t.Amount)
	return s.Batch.AddReserveToReserve(t.ReceivingEntity, uint32(t.TokenID), t.Amount)
}

// applyCreateSettlement appends a settlement diff to the J-batch, merging
// with any existing unsigned settlement for the same pair (spec section
// 4.5, AddSettlement's merge rule).
func (s *State) applyCreateSettlement(t *CreateSettlementTx) error {
	if t == nil {
		return errValidation("entity.create_settlement", "missing payload")
	}
	return s.Batch.AddSettlement(t.Settlement)
}
