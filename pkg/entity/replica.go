package entity

import (
	"context"

	"github.com/certen/xln-settlement/pkg/account"
	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/jurisdiction"
	"github.com/certen/xln-settlement/pkg/xerrors"
)

// accountPreview is a staged, not-yet-hanko'd bilateral frame produced
// while preparing an entity proposal (spec section 4.4 step 1): the
// account-level hash needs to enter the entity frame's HashesToSign before
// any signature exists over it.
type accountPreview struct {
	counterparty EntityID
	frame        *account.Frame
	accepted     []account.Tx
	remaining    []account.Tx
}

// EntityFrame is the proposer's candidate block: the committed clone, the
// set of hashes every validator must precommit on, and the bilateral
// proposals staged against it (spec section 4.4, "EntityFrame{height, txs,
// newState, hashesToSign, outputs, jOutputs}").
type EntityFrame struct {
	Height       uint64
	Txs          []Tx
	NewStateHash codec.Hash32
	HashesToSign []codec.Hash32
	Outputs      []Output

	committed      *State
	accountPreviews []accountPreview
}

// PrecommitMessage is one validator's signed vote on a proposed EntityFrame
// (spec section 4.4 step 3, "hashPrecommits{signerId -> sig[]}").
type PrecommitMessage struct {
	ValidatorIndex int
	Sigs           map[codec.Hash32]cryptokeys.Signature65
}

// Replica drives the consensus loop for one (entity, signer) pair -- the
// Runtime's multiplex unit (spec section 2, "the multiplex of [entity,
// signer]"). Grounded on the teacher's pkg/consensus/abci_validator.go
// ABCI Application shape: PrepareProposal / ProcessProposal / FinalizeBlock
// / Commit, generalized from anchor blocks to entity frames.
type Replica struct {
	State          *State
	Signer         *ReplicaSigner
	LocalIndex     int
	lockedHeight   uint64
	lockedFrameHash codec.Hash32
	seen           *seenTxCache
}

// NewReplica wires a replica for entityID's state under signer, acting as
// validator index localIndex in the entity's validator set.
func NewReplica(state *State, signer *ReplicaSigner, localIndex int) *Replica {
	return &Replica{State: state, Signer: signer, LocalIndex: localIndex, seen: newSeenTxCache()}
}

// SubmitTx admits tx into the mempool unless its canonical hash was seen
// before -- the entry point gossip delivery and local submission both go
// through, so a tx rebroadcast by multiple peers is never applied twice
// (spec section 4.4's mempool).
func (r *Replica) SubmitTx(tx Tx) (bool, error) {
	hash, err := codec.HashCanonical(tx)
	if err != nil {
		return false, err
	}
	if !r.seen.admit(hash) {
		return false, nil
	}
	r.State.Mempool = append(r.State.Mempool, tx)
	return true, nil
}

// PrepareProposal is the proposer step: drain the mempool against a clone,
// stage any bilateral account proposals the applied txs triggered, and
// compute the hash set every validator must precommit on before it can be
// finalized.
func (r *Replica) PrepareProposal(timestampMillis uint64) (*EntityFrame, error) {
	clone := r.State.clone()
	clone.Timestamp = timestampMillis
	clone.Height++

	txs := clone.Mempool
	clone.Mempool = nil

	var applied []Tx
	var txOutputs []Output
	for _, tx := range txs {
		outs, err := applyTx(clone, tx, r.Signer, timestampMillis)
		if err != nil {
			continue // spec section 7: a failing entity tx is dropped, siblings proceed
		}
		applied = append(applied, tx)
		txOutputs = append(txOutputs, outs...)
	}

	previews, previewHashes, err := stageAccountPreviews(clone, timestampMillis)
	if err != nil {
		return nil, err
	}

	stateHash, err := clone.committedHash()
	if err != nil {
		return nil, err
	}

	frame := &EntityFrame{
		Height:          clone.Height,
		Txs:             applied,
		NewStateHash:    stateHash,
		HashesToSign:    append([]codec.Hash32{stateHash}, previewHashes...),
		Outputs:         txOutputs,
		committed:       clone,
		accountPreviews: previews,
	}
	return frame, nil
}

// stageAccountPreviews calls PreviewFrame on every account with pending
// work and no outstanding proposal, so the account-level state hashes can
// be included in the entity frame's precommit set.
func stageAccountPreviews(clone *State, timestampMillis uint64) ([]accountPreview, []codec.Hash32, error) {
	var previews []accountPreview
	var hashes []codec.Hash32
	for _, acct := range clone.Accounts {
		if acct.Pending != nil || len(acct.Mempool) == 0 {
			continue
		}
		frame, accepted, remaining, err := acct.PreviewFrame(clone.EntityID, clone.LastFinalizedJHeight, timestampMillis)
		if err != nil {
			continue // spec section 7 KindValidation: this account's batch just waits for next tick
		}
		counterparty := acct.Left
		if acct.IsLocalLeft(clone.EntityID) {
			counterparty = acct.Right
		}
		previews = append(previews, accountPreview{counterparty: counterparty, frame: frame, accepted: accepted, remaining: remaining})
		hashes = append(hashes, frame.StateHash)
	}
	return previews, hashes, nil
}

// ProcessProposal is the validator step: re-derive the same frame
// deterministically from this replica's own committed state and, if it
// matches, sign every hash the proposer asked for.
func (r *Replica) ProcessProposal(frame *EntityFrame, timestampMillis uint64) (PrecommitMessage, error) {
	if r.lockedHeight == frame.Height {
		return PrecommitMessage{}, xerrors.ConsensusFailure("entity.ProcessProposal", errAlreadyLocked(frame.Height))
	}

	clone := r.State.clone()
	clone.Timestamp = timestampMillis
	clone.Height++
	clone.Mempool = nil

	for _, tx := range frame.Txs {
		if _, err := applyTx(clone, tx, r.Signer, timestampMillis); err != nil {
			return PrecommitMessage{}, xerrors.ConsensusFailure("entity.ProcessProposal", err)
		}
	}
	_, previewHashes, err := stageAccountPreviews(clone, timestampMillis)
	if err != nil {
		return PrecommitMessage{}, err
	}

	stateHash, err := clone.committedHash()
	if err != nil {
		return PrecommitMessage{}, err
	}
	if stateHash != frame.NewStateHash {
		return PrecommitMessage{}, xerrors.ConsensusFailure("entity.ProcessProposal", errStateMismatch())
	}

	want := append([]codec.Hash32{stateHash}, previewHashes...)
	if len(want) != len(frame.HashesToSign) {
		return PrecommitMessage{}, xerrors.ConsensusFailure("entity.ProcessProposal", errHashSetMismatch())
	}

	sigs := make(map[codec.Hash32]cryptokeys.Signature65, len(frame.HashesToSign))
	for _, h := range frame.HashesToSign {
		sig, err := r.Signer.Sign(h)
		if err != nil {
			return PrecommitMessage{}, err
		}
		sigs[h] = sig
	}

	r.lockedHeight = frame.Height
	r.lockedFrameHash = stateHash
	return PrecommitMessage{ValidatorIndex: r.LocalIndex, Sigs: sigs}, nil
}

// FinalizeBlock merges precommits into the proposer's signer, checks
// quorum, builds the account-level hankos for every staged preview, and
// commits the clone as the replica's new state (spec section 4.4 step 4).
func (r *Replica) FinalizeBlock(frame *EntityFrame, precommits []PrecommitMessage) ([]Output, error) {
	for _, pc := range precommits {
		for h, sig := range pc.Sigs {
			r.Signer.CollectPrecommit(h, pc.ValidatorIndex, sig)
		}
	}

	if r.Signer.CollectedWeight(frame.NewStateHash) < r.State.Config.Threshold {
		return nil, xerrors.ConsensusFailure("entity.FinalizeBlock", errQuorumNotMet())
	}

	outputs := append([]Output{}, frame.Outputs...)
	for _, p := range frame.accountPreviews {
		h, err := r.Signer.BuildHanko(p.frame.StateHash)
		if err != nil {
			return nil, err
		}
		acct := frame.committed.getOrCreateAccount(p.counterparty)
		prop := acct.CommitProposal(p.frame, h, p.accepted, p.remaining)
		outputs = append(outputs, Output{
			TargetEntity: p.counterparty,
			Input: Tx{
				Kind:         TxAccountInput,
				AccountInput: &AccountInputTx{Counterparty: frame.committed.EntityID, Proposal: prop},
			},
		})
		r.Signer.forgetHash(p.frame.StateHash)
	}

	r.Signer.forgetHash(frame.NewStateHash)
	r.State = frame.committed
	r.lockedHeight = 0
	return outputs, nil
}

// SoloCommit runs the full Prepare -> Process -> Finalize cycle in one call
// for an entity whose validator set is a single signer -- the common case
// exercised by scenario tests and single-operator deployments, where
// waiting for a network round-trip to precommit against yourself would be
// pure overhead.
func (r *Replica) SoloCommit(timestampMillis uint64) ([]Output, error) {
	if len(r.State.Config.Validators) != 1 {
		return nil, xerrors.Protocol("entity.SoloCommit", errNotSolo())
	}
	if len(r.State.Mempool) == 0 && !hasAccountWork(r.State) {
		return nil, nil
	}
	frame, err := r.PrepareProposal(timestampMillis)
	if err != nil {
		return nil, err
	}
	precommit, err := r.ProcessProposal(frame, timestampMillis)
	if err != nil {
		return nil, err
	}
	return r.FinalizeBlock(frame, []PrecommitMessage{precommit})
}

// MaybeBroadcast submits the replica's J-batch if either an explicit
// j_broadcast tx requested it or the size/idle thresholds fire on their own
// (spec section 4.5: "Broadcast... triggered ... manually or automatically").
// Called by the Runtime tick loop, never by an entity tx handler, since
// only the Runtime holds the jurisdiction.Adapter and entity provider
// address a submission needs.
func (r *Replica) MaybeBroadcast(ctx context.Context, adapter jurisdiction.Adapter, entityProvider [20]byte, nowMillis uint64) error {
	if !r.State.BroadcastRequested && !r.State.Batch.ShouldBroadcast(nowMillis) {
		return nil
	}
	r.State.BroadcastRequested = false
	err := r.State.Batch.Broadcast(ctx, adapter, entityProvider, r.Signer)
	r.State.Batch.LastBroadcastMillis = nowMillis
	return err
}

// HasPendingWork reports whether this replica has a mempool tx or staged
// account work to propose, letting a multi-member group's proposer skip a
// round the same way SoloCommit already does for the single-validator case.
func (r *Replica) HasPendingWork() bool {
	return len(r.State.Mempool) > 0 || hasAccountWork(r.State)
}

func hasAccountWork(s *State) bool {
	for _, a := range s.Accounts {
		if a.Pending == nil && len(a.Mempool) > 0 {
			return true
		}
	}
	return false
}
