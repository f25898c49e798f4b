// Command validatornode is the process entrypoint: it loads configuration,
// wires a runtime.Env against the configured storage/jurisdiction/relay
// stack, and exposes both a long-running `serve` daemon and the one-shot
// query/mutation subcommands spec section 6's minimal REPL describes
// (`status`, `reserves`, `r2r`, `register`, `nonce`). Grounded on the
// teacher's main.go wiring sequence, restructured from a flat flag-parsed
// main into cobra subcommands the way SPEC_FULL's CLI section asks for,
// since a REPL with five distinct verbs needs more than flat flags.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certen/xln-settlement/pkg/config"
	"github.com/certen/xln-settlement/pkg/xlog"
)

var log = xlog.Component("cmd")

type configKey struct{}

// mustConfig retrieves the *config.Config stashed in cmd's context by
// PersistentPreRunE; every subcommand's RunE calls this instead of
// reloading and re-validating configuration itself.
func mustConfig(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value(configKey{}).(*config.Config)
}

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "validatornode",
		Short: "xln-settlement validator node: tick loop, HTTP status surface, and CLI queries",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			xlog.Init(xlog.Options{Level: cfg.LogLevel})
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (optional; environment variables always override it)")

	root.AddCommand(
		newServeCommand(),
		newStatusCommand(),
		newReservesCommand(),
		newNonceCommand(),
		newRegisterCommand(),
		newR2RCommand(),
	)
	return root
}
