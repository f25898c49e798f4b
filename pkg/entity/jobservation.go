package entity

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/certen/xln-settlement/pkg/jurisdiction"
)

// jObservationKey identifies one candidate J-block under consideration for
// finalization: signers may disagree on the block at a given height (a
// reorg or a lagging signer), so observations are bucketed by the pair, not
// by height alone (spec section 4.4, "J-block observation").
type jObservationKey struct {
	Height uint64
	Hash   [32]byte
}

// jObservation aggregates the set of signers who reported the same
// (height, hash) pair and the events they attached, awaiting quorum.
type jObservation struct {
	Events       []jurisdiction.Event
	SignersSeen  mapset.Set[[32]byte]
	SignedWeight uint64
}

func newJObservation(events []jurisdiction.Event) *jObservation {
	return &jObservation{Events: events, SignersSeen: mapset.NewSet[[32]byte]()}
}

func (o *jObservation) clone() *jObservation {
	return &jObservation{
		Events:       append([]jurisdiction.Event{}, o.Events...),
		SignersSeen:  o.SignersSeen.Clone(),
		SignedWeight: o.SignedWeight,
	}
}

// recordObservation folds one signer's report of (jHeight, jBlockHash,
// events) into the aggregate and returns true once cumulative signed
// weight has reached the entity's threshold for the first time -- the
// caller finalizes the block exactly when this flips true (spec section
// 4.4: "When weight of agreeing signers >= threshold, the block is moved to
// the finalized chain").
func (s *State) recordObservation(signerID [32]byte, jHeight uint64, jBlockHash [32]byte, events []jurisdiction.Event) bool {
	key := jObservationKey{Height: jHeight, Hash: jBlockHash}
	obs, ok := s.Observations[key]
	if !ok {
		obs = newJObservation(events)
		s.Observations[key] = obs
	}
	if obs.SignersSeen.Contains(signerID) {
		return false
	}
	obs.SignersSeen.Add(signerID)

	idx, found := s.Config.indexOf(signerID)
	if !found {
		return false // unknown signer: ignored, never contributes weight
	}
	obs.SignedWeight += s.Config.Validators[idx].Weight

	alreadyFinalized := jHeight <= s.LastFinalizedJHeight
	return !alreadyFinalized && obs.SignedWeight >= s.Config.Threshold
}

// finalizeObservation moves the observation at (jHeight, jBlockHash) onto
// the finalized chain, replays its events into entity state, and advances
// LastFinalizedJHeight. Called once recordObservation reports quorum.
func (s *State) finalizeObservation(jHeight uint64, jBlockHash [32]byte) ([]Output, error) {
	key := jObservationKey{Height: jHeight, Hash: jBlockHash}
	obs, ok := s.Observations[key]
	if !ok {
		return nil, nil
	}
	s.FinalizedChain = append(s.FinalizedChain, FinalizedJBlock{Height: jHeight, Hash: jBlockHash})
	s.LastFinalizedJHeight = jHeight

	outputs, err := s.replayJEvents(obs.Events)
	delete(s.Observations, key)
	return outputs, err
}
