package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus mirrors the teacher's main.go HealthStatus: a flat status
// string plus component-level detail, computed fresh on every request
// rather than cached, since Env's read-side accessors are already safe to
// call concurrently with a running tick.
type HealthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Relay         string `json:"relay"`
	Storage       string `json:"storage"`
}

// handleHealth reports "ok" once the server has something to report on,
// the same plain liveness check the teacher's /health endpoint serves
// before anything heavier is wired up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := HealthStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Relay:         "ok",
		Storage:       "ok",
	}
	if s.hub == nil {
		status.Relay = "disabled"
	}
	if s.env.Store == nil {
		status.Storage = "disabled"
	}

	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, `{"error":"failed to encode health status"}`, http.StatusInternalServerError)
	}
}
