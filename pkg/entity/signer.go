package entity

import (
	"github.com/certen/xln-settlement/pkg/account"
	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/hanko"
)

// ReplicaSigner is the entity's signing surface for both the bilateral
// account protocol (account.Signer) and J-batch broadcast (jbatch.Signer).
// It holds the local replica's own key plus whatever precommit signatures
// have been collected so far for hashes produced during the current BFT
// round. BuildHanko assembles a hanko from the signatures collected for a
// hash when there are any, and otherwise signs the hash with the local key.
type ReplicaSigner struct {
	entityID  EntityID
	cfg       Config
	localKey  *cryptokeys.PrivateKey
	collected map[codec.Hash32]map[int]cryptokeys.Signature65
}

// NewReplicaSigner builds a signer for entityID under cfg, backed by
// localKey for this replica's own precommits.
func NewReplicaSigner(entityID EntityID, cfg Config, localKey *cryptokeys.PrivateKey) *ReplicaSigner {
	return &ReplicaSigner{
		entityID:  entityID,
		cfg:       cfg,
		localKey:  localKey,
		collected: make(map[codec.Hash32]map[int]cryptokeys.Signature65),
	}
}

// Sign produces this replica's own precommit signature over hash -- used
// both to vote in the entity BFT round and, for a single-validator entity,
// directly as the sole quorum member.
func (r *ReplicaSigner) Sign(hash codec.Hash32) (cryptokeys.Signature65, error) {
	return r.localKey.Sign(hash)
}

func (r *ReplicaSigner) EntityID() account.EntityID { return r.entityID }

func (r *ReplicaSigner) QuorumConfig() hanko.QuorumConfig { return r.cfg.QuorumConfig() }

// CollectPrecommit records validator index idx's signature over hash,
// gathered during ProcessProposal/FinalizeBlock (see replica.go).
func (r *ReplicaSigner) CollectPrecommit(hash codec.Hash32, idx int, sig cryptokeys.Signature65) {
	m, ok := r.collected[hash]
	if !ok {
		m = make(map[int]cryptokeys.Signature65)
		r.collected[hash] = m
	}
	m[idx] = sig
}

// CollectedWeight returns the cumulative validator weight that has
// precommitted hash so far.
func (r *ReplicaSigner) CollectedWeight(hash codec.Hash32) uint64 {
	var total uint64
	for idx := range r.collected[hash] {
		total += r.cfg.Validators[idx].Weight
	}
	return total
}

// BuildHanko assembles a quorum hanko over hash from whatever precommits
// have been collected for it. If nothing has been collected yet (the
// reactive paths -- ACKing a counterparty's proposal, or a single-validator
// entity that never runs a distributed precommit round -- call BuildHanko
// directly rather than through the Prepare/Process/Finalize round), it
// seeds the set with this replica's own signature first. For a genuine
// multi-validator entity whose local weight alone is below threshold, the
// resulting hanko still fails RecoverHankoEntities' weight check on the
// receiving end, which is the correct protocol outcome, not a build-time
// error.
func (r *ReplicaSigner) BuildHanko(hash codec.Hash32) (hanko.Hanko, error) {
	if len(r.collected[hash]) == 0 {
		if idx, ok := r.cfg.indexOf(r.localKey.EOA()); ok {
			sig, err := r.localKey.Sign(hash)
			if err != nil {
				return hanko.Hanko{}, err
			}
			r.CollectPrecommit(hash, idx, sig)
		}
	}
	return hanko.BuildQuorumHanko(r.cfg.QuorumConfig(), hanko.EntityID(r.entityID), hash, r.collected[hash])
}

// SignBatchHash implements jbatch.Signer: a J-batch broadcast is itself
// just another hash the entity's validator set must quorum-sign, so it
// reuses the same collected-precommit bookkeeping as the account protocol.
func (r *ReplicaSigner) SignBatchHash(hash codec.Hash32) (hanko.Hanko, error) {
	return r.BuildHanko(hash)
}

// forgetHash discards collected precommits for hash once it is no longer
// needed (the frame committed, or the proposal was superseded), so the map
// does not grow across the replica's lifetime.
func (r *ReplicaSigner) forgetHash(hash codec.Hash32) {
	delete(r.collected, hash)
}
