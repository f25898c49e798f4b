package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/certen/xln-settlement/pkg/config"
	"github.com/certen/xln-settlement/pkg/cryptokeys"
	"github.com/certen/xln-settlement/pkg/jbatch"
	"github.com/certen/xln-settlement/pkg/relay"
	"github.com/certen/xln-settlement/pkg/runtime"
	"github.com/certen/xln-settlement/pkg/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the validator node: tick loop, HTTP status surface, and relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), mustConfig(cmd))
		},
	}
}

// runServe mirrors the teacher's main.go shape: build everything, start
// background servers, drive the core loop, and wait for a signal to shut
// down cleanly -- generalized from one anchor-chain client loop to a tick
// that advances every local entity and jurisdiction replica at once.
func runServe(ctx context.Context, cfg *config.Config) error {
	env, rec, closeStore, err := buildEnv(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := wireJurisdictions(ctx, cfg, env); err != nil {
		return err
	}

	hub := relay.NewHub()
	srv := server.New(cfg.ListenAddr, env, hub, rec)
	relayServer := &http.Server{Addr: cfg.RelayAddr, Handler: relayMux(hub)}

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Start() }()
	go func() {
		if err := relayServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	tickCtx, cancelTick := context.WithCancel(ctx)
	defer cancelTick()
	go runTickLoop(tickCtx, env, cfg.TickIntervalMillis)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Str("listen_addr", cfg.ListenAddr).Str("relay_addr", cfg.RelayAddr).Msg("validator node started")

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = relayServer.Shutdown(shutdownCtx)
	return nil
}

func relayMux(hub *relay.Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	return mux
}

// runTickLoop drives Env.Tick on a fixed interval until ctx is cancelled,
// the same ticker-driven cadence the teacher's batch scheduler uses for
// its own periodic broadcast check.
func runTickLoop(ctx context.Context, env *runtime.Env, intervalMillis uint64) {
	if intervalMillis == 0 {
		intervalMillis = 100
	}
	ticker := time.NewTicker(time.Duration(intervalMillis) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := env.Tick(ctx, uint64(now.UnixMilli())); err != nil {
				log.Error().Err(err).Msg("tick failed")
			}
		}
	}
}

// wireJurisdictions dials every configured jurisdiction and registers a
// JReplica for it, signing with a key derived under a fixed
// "jurisdiction-signer" signer id distinct from any entity's own identity.
func wireJurisdictions(ctx context.Context, cfg *config.Config, env *runtime.Env) error {
	if len(cfg.Jurisdictions) == 0 {
		return nil
	}
	// Broadcast thresholds are a process-wide jbatch policy knob, not a
	// per-jurisdiction one; the first configured jurisdiction's values win.
	first := cfg.Jurisdictions[0]
	jbatch.SetBroadcastThresholds(first.BatchMaxOps, first.BatchMaxIdleMillis)

	key, err := cryptokeys.DeriveKey([]byte(cfg.RuntimeSeed), "jurisdiction-signer")
	if err != nil {
		return err
	}
	for _, jc := range cfg.Jurisdictions {
		adapter, err := dialJurisdiction(ctx, jc, key)
		if err != nil {
			return err
		}
		providerAddr, err := entityProviderAddress(jc)
		if err != nil {
			return err
		}
		env.AddJurisdiction(jc.Name, runtime.NewJReplica(adapter, providerAddr))
	}
	return nil
}
