package main

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/certen/xln-settlement/pkg/entity"
)

// These query commands never tick: they open the configured storage
// backend through buildEnv, decode the latest persisted snapshot, and print
// a field from it. Exit codes follow
// spec section 6's CLI contract (0 normal, 1 unrecognized command or
// backend error) through cobra's own RunE-error-means-exit-1 convention.

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the latest persisted height, timestamp, and entity count",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, _, closeStore, err := buildEnv(mustConfig(cmd))
			if err != nil {
				return err
			}
			defer closeStore()

			fmt.Printf("height=%d timestamp=%d entities=%d jurisdictions=%d\n",
				env.Height, env.Timestamp, len(env.Entities), len(env.J))
			return nil
		},
	}
}

func newReservesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reserves <entity-id-hex>",
		Short: "Print an entity's reserve balances from the latest persisted snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			env, _, closeStore, err := buildEnv(mustConfig(cmd))
			if err != nil {
				return err
			}
			defer closeStore()

			group, ok := env.Entities[id]
			if !ok {
				return fmt.Errorf("no known entity %s", args[0])
			}
			state := group.Members[0].State
			if len(state.Reserves) == 0 {
				fmt.Println("(no reserves)")
				return nil
			}
			tokenIDs := make([]entity.TokenID, 0, len(state.Reserves))
			for id := range state.Reserves {
				tokenIDs = append(tokenIDs, id)
			}
			sort.Slice(tokenIDs, func(i, j int) bool { return tokenIDs[i] < tokenIDs[j] })
			for _, tokenID := range tokenIDs {
				fmt.Printf("token=%d amount=%s\n", tokenID, state.Reserves[tokenID].String())
			}
			return nil
		},
	}
}

func newNonceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nonce <entity-id-hex>",
		Short: "Print an entity's pending and sent J-batch nonce bookkeeping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			env, _, closeStore, err := buildEnv(mustConfig(cmd))
			if err != nil {
				return err
			}
			defer closeStore()

			group, ok := env.Entities[id]
			if !ok {
				return fmt.Errorf("no known entity %s", args[0])
			}
			batch := group.Members[0].State.Batch
			fmt.Printf("pending_ops=%d sent_nonce=%d broadcast_count=%d failed_attempts=%d\n",
				batch.PendingOpsCount(), batch.SentNonce, batch.BroadcastCount, batch.FailedAttempts)
			return nil
		},
	}
}

func parseEntityID(hexStr string) (entity.EntityID, error) {
	var id entity.EntityID
	b, err := hex.DecodeString(trimHexPrefix(hexStr))
	if err != nil {
		return id, fmt.Errorf("invalid entity id %q: %w", hexStr, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid entity id %q: want %d bytes, got %d", hexStr, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
