// Package server implements the HTTP status/health surface spec section 6
// asks every validator node expose alongside its CLI REPL. Grounded on the
// teacher's main.go HTTP wiring: a single *http.Server over
// http.NewServeMux, handlers registered as plain functions closing over
// whatever state they report on, no web framework.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/certen/xln-settlement/pkg/metrics"
	"github.com/certen/xln-settlement/pkg/relay"
	"github.com/certen/xln-settlement/pkg/runtime"
	"github.com/certen/xln-settlement/pkg/xlog"
)

var log = xlog.Component("server")

// Server is the validator node's HTTP face: health/status for operators,
// and the relay's websocket upgrade endpoint when a hub is configured.
type Server struct {
	env *runtime.Env
	hub *relay.Hub

	httpServer *http.Server
	startedAt  time.Time
}

// New builds a Server bound to env's read-side accessors and, if hub is
// non-nil, exposes it over /relay/ws. addr is the listen address spec
// section 6 reads from LISTEN_ADDR. If rec is non-nil, its collectors are
// served at /metrics.
func New(addr string, env *runtime.Env, hub *relay.Hub, rec *metrics.Recorder) *Server {
	s := &Server{
		env:       env,
		hub:       hub,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/snapshot", s.handleSnapshotAt)
	if hub != nil {
		mux.HandleFunc("/relay/ws", hub.ServeWS)
	}
	if rec != nil {
		mux.Handle("/metrics", rec.Handler())
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server until Shutdown is called, reporting
// ErrServerClosed as a clean stop rather than an error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
