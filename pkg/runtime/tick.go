package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/certen/xln-settlement/pkg/entity"
)

func hexID(id [32]byte) string { return fmt.Sprintf("%x", id[:8]) }

// Result summarizes one Tick for logging and tests.
type Result struct {
	Height          uint64
	GroupsRun       int
	OutputsRouted   int
	OutputsUnrouted int
	JObserved       int
	Errors          []error
}

// Tick advances the Env by exactly one step, in the five stages spec
// section 4.6 names:
//
//  1. snapshot buffered runtime input and reset the incoming queue
//  2. apply importReplica / importJ requests
//  3. dispatch routed entity inputs (last tick's outputs, plus any fresh
//     entity_tx inputs) to their target groups, queuing the resulting
//     outputs for the *next* tick -- there are no same-tick cascades
//  4. drain each jurisdiction replica whose block delay has elapsed,
//     routing its events back as j_event inputs for the next tick, and
//     let every entity attempt its pending batch broadcast
//  5. append (and, if configured, persist) a snapshot
func (e *Env) Tick(ctx context.Context, nowMillis uint64) (Result, error) {
	start := time.Now()
	e.mu.Lock()
	buffered := e.incoming
	e.incoming = nil
	e.Timestamp = nowMillis
	e.mu.Unlock()

	var result Result

	for _, in := range buffered {
		switch in.Kind {
		case InputImportReplica:
			e.importReplica(in.ImportReplica)
		case InputImportJ:
			e.importJ(in.ImportJ)
		case InputEntityTx:
			e.nextEntityInputs[in.EntityTx.Target] = append(e.nextEntityInputs[in.EntityTx.Target], in.EntityTx.Tx)
		}
	}

	dueInputs := e.nextEntityInputs
	e.nextEntityInputs = make(map[[32]byte][]entity.Tx)

	produced := make(map[[32]byte][]entity.Tx)
	for id, txs := range dueInputs {
		group, ok := e.Entities[id]
		if !ok {
			continue // no local replica for id; the caller never should have routed here
		}
		outs, err := runGroup(group, nowMillis, txs)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("entity %s: %w", hexID(id), err))
			continue
		}
		result.GroupsRun++
		for _, out := range outs {
			if _, local := e.Entities[out.TargetEntity]; local {
				produced[out.TargetEntity] = append(produced[out.TargetEntity], out.Input)
				result.OutputsRouted++
			} else {
				e.mu.Lock()
				e.pendingNetwork = append(e.pendingNetwork, out)
				e.mu.Unlock()
				result.OutputsUnrouted++
			}
		}
	}

	e.Height++
	for _, j := range e.J {
		if !j.ready(nowMillis) {
			continue
		}
		if block := j.observe(j.Adapter.Height()); block != nil {
			for id, evs := range block.ByEntity {
				group, ok := e.Entities[id]
				if !ok {
					continue // no local replica observes this jurisdiction for id
				}
				// Every validator member is an independent observer and must
				// report under its own signer id, so recordObservation's
				// per-signer weight accounting (spec section 4.4) can reach
				// quorum across more than one member.
				for _, member := range group.Members {
					signerID := member.State.Config.Validators[member.LocalIndex].ID
					produced[id] = append(produced[id], entity.Tx{
						Kind: entity.TxJEvent,
						JEvent: &entity.JEventTx{
							SignerID:   signerID,
							JHeight:    block.JHeight,
							JBlockHash: block.JBlockHash,
							Events:     evs,
						},
					})
					result.JObserved++
				}
			}
		}
		j.LastBlockTimestamp = nowMillis
		e.broadcastJ(ctx, j, nowMillis)
	}

	for id, txs := range produced {
		e.nextEntityInputs[id] = append(e.nextEntityInputs[id], txs...)
	}

	result.Height = e.Height
	e.appendSnapshot(nowMillis)
	if e.Metrics != nil {
		e.Metrics.ObserveTick(result.GroupsRun, result.OutputsRouted, result.OutputsUnrouted, result.JObserved, time.Since(start).Seconds())
	}
	return result, nil
}

// runGroup drives one entity group through a single consensus round,
// generalizing entity.Replica's Prepare/Process/Finalize trio across every
// member instead of special-casing the single-validator SoloCommit path --
// group[0] proposes, every member (including the proposer) processes and
// finalizes, and only the proposer's outputs are used, since every member
// converges to the same committed state (spec section 4.4).
func runGroup(g *Group, timestampMillis uint64, incoming []entity.Tx) ([]entity.Output, error) {
	proposer := g.proposer()
	proposer.State.Mempool = append(proposer.State.Mempool, incoming...)

	if !proposer.HasPendingWork() {
		return nil, nil
	}

	if len(g.Members) == 1 {
		return proposer.SoloCommit(timestampMillis)
	}

	frame, err := proposer.PrepareProposal(timestampMillis)
	if err != nil {
		return nil, err
	}

	precommits := make([]entity.PrecommitMessage, 0, len(g.Members))
	for _, member := range g.Members {
		pc, err := member.ProcessProposal(frame, timestampMillis)
		if err != nil {
			return nil, err
		}
		precommits = append(precommits, pc)
	}

	var outputs []entity.Output
	for _, member := range g.Members {
		outs, err := member.FinalizeBlock(frame, precommits)
		if err != nil {
			return nil, err
		}
		if member == proposer {
			outputs = outs
		}
	}
	return outputs, nil
}
