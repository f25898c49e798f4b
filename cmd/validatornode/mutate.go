package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/certen/xln-settlement/pkg/abicoder"
	"github.com/certen/xln-settlement/pkg/config"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/entity"
	"github.com/certen/xln-settlement/pkg/runtime"
)

func newRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register <name>",
		Short: "Derive and persist a new solo-validator entity under the configured seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			cfg := mustConfig(cmd)

			env, _, closeStore, err := buildEnv(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			group, id, err := deriveSoloGroup([]byte(cfg.RuntimeSeed), name)
			if err != nil {
				return err
			}
			if _, exists := env.Entities[id]; exists {
				return fmt.Errorf("entity %x already registered", id)
			}
			env.AddEntity(id, group.Members...)

			if err := persistSnapshot(cmd.Context(), env); err != nil {
				return err
			}
			fmt.Printf("registered entity %x for name %q at height %d\n", id, name, env.Height)
			return nil
		},
	}
}

// persistSnapshot advances env by one tick with no new inputs, which is
// enough to make Env.Tick's own appendSnapshot step write out the entity
// this command just added -- the same path a consensus round uses, just
// driven here by a one-shot CLI process instead of the tick loop.
func persistSnapshot(ctx context.Context, env *runtime.Env) error {
	_, err := env.Tick(ctx, env.Timestamp)
	return err
}

func newR2RCommand() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "r2r <from> <to> <amount> <nonce> <hankoData> [provider]",
		Short: "Submit a single reserveToReserve operation directly to a jurisdiction's Depository",
		Args:  cobra.RangeArgs(5, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustConfig(cmd)
			if len(cfg.Jurisdictions) == 0 {
				return fmt.Errorf("no jurisdictions configured")
			}
			jc := cfg.Jurisdictions[0]
			if len(args) == 6 {
				provider = args[5]
			}
			if provider != "" {
				jc.EntityProviderAddress = provider
			}

			from, err := parseEntityID(args[0])
			if err != nil {
				return fmt.Errorf("from: %w", err)
			}
			to, err := parseEntityID(args[1])
			if err != nil {
				return fmt.Errorf("to: %w", err)
			}
			amount, ok := new(big.Int).SetString(args[2], 10)
			if !ok {
				return fmt.Errorf("invalid amount %q", args[2])
			}
			nonce, err := strconv.ParseUint(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid nonce %q: %w", args[3], err)
			}
			hankoData, err := hex.DecodeString(trimHexPrefix(args[4]))
			if err != nil {
				return fmt.Errorf("invalid hankoData: %w", err)
			}

			return submitR2R(cmd.Context(), cfg, jc, from, to, amount, nonce, hankoData)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "entity provider address override (equivalent to the trailing positional argument)")
	return cmd
}

// submitR2R builds a single-op Batch carrying one reserveToReserve entry
// and submits it straight to the Depository via processBatch, bypassing
// the local mempool entirely -- the CLI's hankoData and nonce arguments
// are already a pre-signed authorization an operator obtained out of
// band, matching spec section 6's processBatch(encodedBatch,
// entityProviderAddress, hankoData, nonce) submission call directly
// rather than going through jbatch.State's own accumulate-then-broadcast
// path.
func submitR2R(ctx context.Context, cfg *config.Config, jc config.JurisdictionConfig, from, to entity.EntityID, amount *big.Int, nonce uint64, hankoData []byte) error {
	key, err := cryptokeys.DeriveKey([]byte(cfg.RuntimeSeed), "jurisdiction-signer")
	if err != nil {
		return err
	}
	adapter, err := dialJurisdiction(ctx, jc, key)
	if err != nil {
		return err
	}
	defer adapter.Close()

	batch := abicoder.Batch{
		ReserveToReserve: []abicoder.ReserveToReserve{{
			ReceivingEntity: to,
			TokenID:         big.NewInt(0),
			Amount:          amount,
		}},
	}
	encoded, err := abicoder.EncodeBatch(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	providerAddr, err := entityProviderAddress(jc)
	if err != nil {
		return err
	}

	if err := adapter.SubmitBatch(ctx, encoded, providerAddr, hankoData, nonce); err != nil {
		return fmt.Errorf("submit batch: %w", err)
	}
	fmt.Printf("submitted reserveToReserve from=%x to=%x amount=%s nonce=%d\n", from, to, amount.String(), nonce)
	return nil
}
