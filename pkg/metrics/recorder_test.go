package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, req)
	require.Equal(t, 200, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveTickExposesCollectedSamples(t *testing.T) {
	r := NewRecorder()
	r.ObserveTick(3, 5, 1, 2, 0.01)

	out := scrape(t, r)
	assert.Contains(t, out, "xln_runtime_tick_duration_seconds")
	assert.Contains(t, out, "xln_runtime_tick_groups_run")
	assert.Contains(t, out, "xln_runtime_tick_outputs_routed_total 5")
	assert.Contains(t, out, "xln_runtime_tick_outputs_unrouted_total 1")
	assert.Contains(t, out, "xln_runtime_tick_j_events_observed_total 2")
}

func TestObserveBroadcastFailureAndSuccessLabelByEntity(t *testing.T) {
	r := NewRecorder()
	r.ObserveBroadcastFailure("deadbeef")
	r.ObserveBroadcastSuccess("cafebabe", 7)

	out := scrape(t, r)
	assert.Contains(t, out, `xln_jbatch_broadcast_failures_total{entity="deadbeef"} 1`)
	assert.Contains(t, out, `xln_jbatch_broadcast_success_total{entity="cafebabe"} 1`)
	assert.Contains(t, out, `xln_jbatch_pending_ops{entity="cafebabe"} 7`)
}

func TestTwoRecordersDoNotCollide(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	a.ObserveBroadcastFailure("x")
	_ = scrape(t, b)
}
