package account

import (
	"github.com/certen/xln-settlement/pkg/hanko"
)

// maxTxsPerFrame bounds how much of the mempool a single proposal drains
// (spec section 4.3 step 1).
const maxTxsPerFrame = 256

// ProposeFrame drains up to maxTxsPerFrame pending transactions, applies
// them against a scratch copy, and produces a signed proposal the
// counterparty can ACK (spec section 4.3 steps 1-2). It fails closed: any
// transaction that does not apply cleanly is dropped from the mempool and
// excluded from the frame rather than aborting the whole proposal.
func (a *Account) ProposeFrame(self Signer, jHeight, timestampMillis uint64) (*Proposal, error) {
	frame, accepted, remaining, err := a.PreviewFrame(self.EntityID(), jHeight, timestampMillis)
	if err != nil {
		return nil, err
	}

	h, err := self.BuildHanko(frame.StateHash)
	if err != nil {
		return nil, err
	}

	return a.CommitProposal(frame, h, accepted, remaining), nil
}

// PreviewFrame drains up to maxTxsPerFrame pending transactions and applies
// them against a scratch copy, returning the resulting frame (with its
// StateHash already computed) without signing it or mutating a.Pending /
// a.Mempool. It exists so a caller whose signature requires an
// already-quorum-collected hanko (the entity machine's BFT round, spec
// section 4.4 step 3: "the entity-frame hash first, then account frame and
// dispute hashes") can learn the hash to collect precommits over before
// committing the proposal via CommitProposal.
func (a *Account) PreviewFrame(selfID EntityID, jHeight, timestampMillis uint64) (frame *Frame, accepted, remaining []Tx, err error) {
	if a.Pending != nil {
		return nil, nil, nil, errConsensus("account.PreviewFrame", "a proposal is already pending ACK")
	}
	if len(a.Mempool) == 0 {
		return nil, nil, nil, errValidation("account.PreviewFrame", "mempool is empty")
	}

	candidate := a.Mempool
	if len(candidate) > maxTxsPerFrame {
		candidate = candidate[:maxTxsPerFrame]
	}

	accepted = make([]Tx, 0, len(candidate))
	remaining = a.Mempool[len(candidate):]
	for _, tx := range candidate {
		if _, err := a.tryApply(selfID, append(append([]Tx{}, accepted...), tx)); err != nil {
			continue // validation failure: evict from this frame, spec section 7 KindValidation policy
		}
		accepted = append(accepted, tx)
	}
	if len(accepted) == 0 {
		return nil, nil, nil, errValidation("account.PreviewFrame", "no mempool transaction applied cleanly")
	}

	finalState, err := a.tryApply(selfID, accepted)
	if err != nil {
		return nil, nil, nil, err
	}

	tokenIDs, deltas := snapshotFromState(finalState)
	frame = &Frame{
		Height:        a.CurrentFrame.Height + 1,
		Timestamp:     timestampMillis,
		JHeight:       jHeight,
		AccountTxs:    accepted,
		PrevFrameHash: a.CurrentFrame.StateHash,
		TokenIDs:      tokenIDs,
		Deltas:        deltas,
	}
	frame.StateHash, err = frame.computeStateHash()
	if err != nil {
		return nil, nil, nil, err
	}
	return frame, accepted, remaining, nil
}

// CommitProposal fills a.Pending with an already-hashed frame and an
// externally supplied hanko over its StateHash, and advances the mempool
// past the transactions the frame consumed. Used directly by callers that
// computed frame/hanko through PreviewFrame plus an out-of-band quorum
// signing round.
func (a *Account) CommitProposal(frame *Frame, frameHanko hanko.Hanko, accepted, remaining []Tx) *Proposal {
	a.Pending = &Proposal{Frame: frame, FrameHanko: frameHanko}
	a.Mempool = remaining
	return a.Pending
}

func snapshotFromState(s stateSnapshot) ([]TokenID, []*Delta) {
	tmp := &Account{Deltas: s.Deltas}
	return tmp.snapshotDeltas()
}

// ReceiveProposal replays the counterparty's proposed frame against local
// state and, if it reproduces the proposed state hash, signs and returns an
// ACK hanko over that hash (spec section 4.3 step 3).
func (a *Account) ReceiveProposal(self Signer, prop *Proposal, proposerCfg *hanko.QuorumConfig) (hanko.Hanko, error) {
	proposer := a.counterpartyOf(self.EntityID())

	if prop.Frame.Height != a.CurrentFrame.Height+1 {
		return hanko.Hanko{}, errConsensus("account.ReceiveProposal", "expected height %d, got %d", a.CurrentFrame.Height+1, prop.Frame.Height)
	}
	if prop.Frame.PrevFrameHash != a.CurrentFrame.StateHash {
		return hanko.Hanko{}, errConsensus("account.ReceiveProposal", "prevFrameHash does not chain from current frame")
	}
	if err := hanko.VerifyAgainstEntity(prop.FrameHanko, prop.Frame.StateHash, proposer, proposerCfg); err != nil {
		return hanko.Hanko{}, errConsensus("account.ReceiveProposal", "proposer hanko: %v", err)
	}

	final, err := a.tryApply(self.EntityID(), prop.Frame.AccountTxs)
	if err != nil {
		return hanko.Hanko{}, errConsensus("account.ReceiveProposal", "replay failed: %v", err)
	}
	tokenIDs, deltas := snapshotFromState(final)
	replay := &Frame{
		Height:        prop.Frame.Height,
		Timestamp:     prop.Frame.Timestamp,
		JHeight:       prop.Frame.JHeight,
		AccountTxs:    prop.Frame.AccountTxs,
		PrevFrameHash: prop.Frame.PrevFrameHash,
		TokenIDs:      tokenIDs,
		Deltas:        deltas,
	}
	replayHash, err := replay.computeStateHash()
	if err != nil {
		return hanko.Hanko{}, err
	}
	if replayHash != prop.Frame.StateHash {
		return hanko.Hanko{}, errConsensus("account.ReceiveProposal", "replayed state hash diverges from proposal")
	}
	replay.StateHash = replayHash

	ack, err := self.BuildHanko(prop.Frame.StateHash)
	if err != nil {
		return hanko.Hanko{}, err
	}
	a.adoptState(final)
	a.commitFrame(replay)
	return ack, nil
}

// HandleAck finalizes a's own pending proposal once the counterparty's ACK
// hanko verifies (spec section 4.3 step 4).
func (a *Account) HandleAck(self Signer, ack hanko.Hanko, counterpartyCfg *hanko.QuorumConfig) error {
	if a.Pending == nil {
		return errConsensus("account.HandleAck", "no pending proposal to ACK")
	}
	counterparty := a.counterpartyOf(self.EntityID())
	if err := hanko.VerifyAgainstEntity(ack, a.Pending.Frame.StateHash, counterparty, counterpartyCfg); err != nil {
		return errConsensus("account.HandleAck", "counterparty ACK: %v", err)
	}
	final, err := a.tryApply(self.EntityID(), a.Pending.Frame.AccountTxs)
	if err != nil {
		return errConsensus("account.HandleAck", "re-applying own proposed frame failed: %v", err)
	}
	a.adoptState(final)
	a.commitFrame(a.Pending.Frame)
	a.Pending = nil
	return nil
}

func (a *Account) commitFrame(f *Frame) {
	a.CurrentFrame = f
	a.History.push(f)
}

func (a *Account) counterpartyOf(self EntityID) EntityID {
	if self == a.Left {
		return a.Right
	}
	return a.Left
}

// ResolveSimultaneous handles the case where both sides proposed a frame at
// the same height concurrently (spec section 4.3 step 5). The canonical
// left entity's proposal always wins: the right entity rolls its own
// pending proposal back, re-enqueues its transactions at the head of the
// mempool, and processes the left's proposal as an ordinary ReceiveProposal
// call.
func (a *Account) ResolveSimultaneous(self Signer, incoming *Proposal, proposerCfg *hanko.QuorumConfig) (hanko.Hanko, error) {
	if a.Pending == nil {
		return a.ReceiveProposal(self, incoming, proposerCfg)
	}
	selfID := self.EntityID()
	if selfID == a.Left {
		// The local side is canonically left and already has a pending
		// proposal: the incoming one from the right loses. The right side
		// is expected to retry once it observes our ACK'd commit.
		return hanko.Hanko{}, errConsensus("account.ResolveSimultaneous", "local left proposal takes precedence; counterparty must roll back")
	}

	rolledBack := a.Pending
	a.Mempool = append(append([]Tx{}, rolledBack.Frame.AccountTxs...), a.Mempool...)
	a.Pending = nil
	a.RollbackCount++
	a.lastRolledBack = rolledBack.Frame.StateHash

	return a.ReceiveProposal(self, incoming, proposerCfg)
}
