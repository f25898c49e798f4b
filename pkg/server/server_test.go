package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/pkg/relay"
	"github.com/certen/xln-settlement/pkg/runtime"
)

func TestHandleHealthReportsOKWithNoHubOrStore(t *testing.T) {
	env := runtime.NewEnv(nil, nil)
	s := New("127.0.0.1:0", env, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.handleHealth(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "disabled", body.Relay)
	assert.Equal(t, "disabled", body.Storage)
}

func TestHandleHealthReportsRelayOKWhenHubConfigured(t *testing.T) {
	env := runtime.NewEnv(nil, nil)
	s := New("127.0.0.1:0", env, relay.NewHub(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.handleHealth(rr, req)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Relay)
}

func TestHandleStatusReportsEmptyEnv(t *testing.T) {
	env := runtime.NewEnv(nil, nil)
	s := New("127.0.0.1:0", env, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	s.handleStatus(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 0, body.EntityCount)
	assert.Equal(t, 0, body.JurisdictionCount)
}

func TestHandleSnapshotAtMissingHeightParamReturns400(t *testing.T) {
	env := runtime.NewEnv(nil, nil)
	s := New("127.0.0.1:0", env, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	rr := httptest.NewRecorder()
	s.handleSnapshotAt(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSnapshotAtUnknownHeightReturns404(t *testing.T) {
	env := runtime.NewEnv(nil, nil)
	s := New("127.0.0.1:0", env, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/snapshot?height=5", nil)
	rr := httptest.NewRecorder()
	s.handleSnapshotAt(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
