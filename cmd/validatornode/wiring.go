package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/certen/xln-settlement/pkg/config"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/entity"
	"github.com/certen/xln-settlement/pkg/hanko"
	"github.com/certen/xln-settlement/pkg/jurisdiction"
	"github.com/certen/xln-settlement/pkg/metrics"
	"github.com/certen/xln-settlement/pkg/runtime"
	"github.com/certen/xln-settlement/pkg/snapshot"
	"github.com/certen/xln-settlement/pkg/storage"
)

// openStore opens the pkg/storage backend cfg.StorageBackend names, the
// same switch the teacher's main.go runs over its own DatabaseRequired
// flag before falling back to a degraded mode -- here every backend is
// required, since a validator node with nowhere to persist snapshots
// can't safely resume after a restart.
func openStore(cfg *config.Config) (*storage.Store, func() error, error) {
	switch cfg.StorageBackend {
	case "bolt":
		kv, err := storage.OpenBoltKV(cfg.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		return storage.NewStore(kv), kv.Close, nil
	case "postgres":
		kv, err := storage.OpenPostgresKV(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return storage.NewStore(kv), kv.Close, nil
	case "firestore":
		kv, err := storage.OpenFirestoreKV(context.Background(), cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("open firestore store: %w", err)
		}
		return storage.NewStore(kv), kv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage_backend %q", cfg.StorageBackend)
	}
}

// deriveSoloGroup builds a single-validator entity group for name, the
// way every pkg/runtime test's newSoloGroup helper does: one EOA key
// derived deterministically from the seed, threshold 1, a single member
// acting as its own proposer.
func deriveSoloGroup(seed []byte, name string) (*runtime.Group, entity.EntityID, error) {
	key, err := cryptokeys.DeriveKey(seed, name)
	if err != nil {
		return nil, entity.EntityID{}, fmt.Errorf("derive key for %q: %w", name, err)
	}
	id, err := hanko.SingleEOAEntityID(key.EOA())
	if err != nil {
		return nil, entity.EntityID{}, fmt.Errorf("derive entity id for %q: %w", name, err)
	}
	cfg := entity.Config{Threshold: 1, Validators: []entity.ValidatorInfo{{ID: key.EOA(), Weight: 1}}}
	state := entity.New(id, cfg)
	signer := entity.NewReplicaSigner(id, cfg, key)
	replica := entity.NewReplica(state, signer, 0)
	return &runtime.Group{Members: []*entity.Replica{replica}}, id, nil
}

// buildEnv assembles a runtime.Env wired against cfg's storage backend,
// binary snapshot codec, and solo-validator bootstrap list, with metrics
// attached -- the shared core every subcommand starts from, whether it
// goes on to tick (serve) or just reads the latest snapshot (the query
// commands).
func buildEnv(cfg *config.Config) (*runtime.Env, *metrics.Recorder, func() error, error) {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	env := runtime.NewEnv(store, snapshot.BinaryEncoder{})
	rec := metrics.NewRecorder()
	env.SetMetrics(rec)

	for _, name := range cfg.LocalEntities {
		group, id, err := deriveSoloGroup([]byte(cfg.RuntimeSeed), name)
		if err != nil {
			closeStore()
			return nil, nil, nil, err
		}
		env.AddEntity(id, group.Members...)
	}

	if err := restoreLatestSnapshot(env, store); err != nil {
		closeStore()
		return nil, nil, nil, err
	}

	return env, rec, closeStore, nil
}

// restoreLatestSnapshot loads the most recently persisted snapshot and
// folds its reserve/state data into env's already-bootstrapped local
// entities, and records any remote entity's state for read-only queries.
// It never reconstructs a Replica for a non-local entity: this process
// only has signing keys for the names in cfg.LocalEntities.
func restoreLatestSnapshot(env *runtime.Env, store *storage.Store) error {
	height, ok, err := store.LatestHeight()
	if err != nil {
		return fmt.Errorf("read latest height: %w", err)
	}
	if !ok {
		return nil
	}
	data, ok, err := store.Load(height)
	if err != nil {
		return fmt.Errorf("load snapshot at height %d: %w", height, err)
	}
	if !ok {
		return nil
	}
	snap, err := snapshot.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("decode snapshot at height %d: %w", height, err)
	}

	env.Height = snap.Height
	env.Timestamp = snap.Timestamp
	for id, persisted := range snap.Entities {
		if group, ok := env.Entities[id]; ok {
			for _, member := range group.Members {
				member.State = persisted
			}
			continue
		}
		env.AddEntity(id, &entity.Replica{State: persisted})
	}
	return nil
}

// dialJurisdiction builds a live jurisdiction.Adapter for jc, signing
// transactions with key -- the same bind.NewKeyedTransactorWithChainID
// pattern the teacher's pkg/ethereum/client.go CreateTransactor uses.
func dialJurisdiction(ctx context.Context, jc config.JurisdictionConfig, key *cryptokeys.PrivateKey) (jurisdiction.Adapter, error) {
	depository, err := depositoryAddress(jc)
	if err != nil {
		return nil, err
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key.ECDSA(), new(big.Int).SetUint64(jc.ChainID))
	if err != nil {
		return nil, fmt.Errorf("jurisdiction %q: build transactor: %w", jc.Name, err)
	}
	adapter, err := jurisdiction.DialEVMAdapter(ctx, jc.RPCURL, jc.ChainID, depository, auth)
	if err != nil {
		return nil, fmt.Errorf("jurisdiction %q: dial %s: %w", jc.Name, jc.RPCURL, err)
	}
	return adapter, nil
}

func depositoryAddress(jc config.JurisdictionConfig) (common.Address, error) {
	if !common.IsHexAddress(jc.DepositoryAddress) {
		return common.Address{}, fmt.Errorf("jurisdiction %q: invalid depository_address %q", jc.Name, jc.DepositoryAddress)
	}
	return common.HexToAddress(jc.DepositoryAddress), nil
}

func entityProviderAddress(jc config.JurisdictionConfig) ([20]byte, error) {
	var out [20]byte
	if jc.EntityProviderAddress == "" {
		return out, nil
	}
	if !common.IsHexAddress(jc.EntityProviderAddress) {
		return out, fmt.Errorf("jurisdiction %q: invalid entity_provider_address %q", jc.Name, jc.EntityProviderAddress)
	}
	copy(out[:], common.HexToAddress(jc.EntityProviderAddress).Bytes())
	return out, nil
}
