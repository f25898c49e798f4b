package jbatch

import (
	"context"
	"encoding/binary"

	"github.com/certen/xln-settlement/pkg/abicoder"
	"github.com/certen/xln-settlement/pkg/codec"
	"github.com/certen/xln-settlement/pkg/hanko"
	"github.com/certen/xln-settlement/pkg/jurisdiction"
)

// hankoDomainSeparator is keccak256("XLN_DEPOSITORY_HANKO_V1") (spec
// section 6, "batch-hanko domain separator").
var hankoDomainSeparator = codec.Keccak256([]byte("XLN_DEPOSITORY_HANKO_V1"))

// Signer produces a quorum hanko authorizing hash on behalf of the
// broadcasting entity. pkg/entity supplies the concrete implementation
// (built from the entity's own validator set via hanko.BuildQuorumHanko);
// jbatch only depends on this narrow interface to avoid importing the
// entity package back.
type Signer interface {
	SignBatchHash(hash codec.Hash32) (hanko.Hanko, error)
}

// ShouldBroadcast, the trigger check for Broadcast, is defined in
// scheduler.go.

// Broadcast runs preflight, computes the domain-separated batch hash,
// obtains a quorum hanko over it, and submits the batch through adapter.
// On success it moves Current to Sent; on failure it leaves Current
// untouched and increments FailedAttempts (spec section 4.5, "Broadcast").
func (s *State) Broadcast(ctx context.Context, adapter jurisdiction.Adapter, entityProvider [20]byte, signer Signer) error {
	if s.Sent != nil {
		return errBroadcast("jbatch.Broadcast", "a batch is already outstanding for entity %x", s.Entity)
	}
	if s.isEmpty() {
		return errBroadcast("jbatch.Broadcast", "refusing to broadcast an empty batch for entity %x", s.Entity)
	}
	if err := Preflight(s.Current, s.Entity); err != nil {
		return err
	}

	encoded, err := abicoder.EncodeBatch(s.Current)
	if err != nil {
		return err
	}

	onChainNonce, err := adapter.OnChainNonce(ctx, s.Entity)
	if err != nil {
		return errBroadcast("jbatch.Broadcast", "fetch on-chain nonce: %v", err)
	}
	nonce := onChainNonce + 1

	batchHash := computeBatchHash(adapter.ChainID(), adapter.DepositoryAddress(), encoded, nonce)

	h, err := signer.SignBatchHash(batchHash)
	if err != nil {
		return errBroadcast("jbatch.Broadcast", "sign batch hash: %v", err)
	}
	hankoData, err := hanko.Encode(h)
	if err != nil {
		return err
	}

	if err := adapter.SubmitBatch(ctx, encoded, entityProvider, hankoData, nonce); err != nil {
		s.FailedAttempts++
		s.Status = StatusFailed
		return err
	}

	sent := s.Current
	s.Sent = &sent
	s.SentNonce = nonce
	s.Current = abicoder.Batch{}
	s.BroadcastCount++
	s.refreshStatus()
	return nil
}

// computeBatchHash implements spec section 6: keccak256(domainSep ||
// chainId || depositoryAddress || encodedBatch || nonce), all integers
// big-endian fixed-width to keep the hash unambiguous.
func computeBatchHash(chainID uint64, depository [20]byte, encodedBatch []byte, nonce uint64) codec.Hash32 {
	var chainIDBytes, nonceBytes [8]byte
	binary.BigEndian.PutUint64(chainIDBytes[:], chainID)
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)

	return codec.Keccak256(
		hankoDomainSeparator[:],
		chainIDBytes[:],
		depository[:],
		encodedBatch,
		nonceBytes[:],
	)
}
