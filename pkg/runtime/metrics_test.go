package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetrics struct {
	ticks              int
	lastGroupsRun      int
	broadcastFailures  []string
	broadcastSuccesses map[string]int
}

func (f *fakeMetrics) ObserveTick(groupsRun, outputsRouted, outputsUnrouted, jObserved int, durationSeconds float64) {
	f.ticks++
	f.lastGroupsRun = groupsRun
}

func (f *fakeMetrics) ObserveBroadcastFailure(entityID string) {
	f.broadcastFailures = append(f.broadcastFailures, entityID)
}

func (f *fakeMetrics) ObserveBroadcastSuccess(entityID string, pendingOps int) {
	if f.broadcastSuccesses == nil {
		f.broadcastSuccesses = make(map[string]int)
	}
	f.broadcastSuccesses[entityID] = pendingOps
}

func TestTickReportsToMetricsWhenConfigured(t *testing.T) {
	aliceGroup, aliceID := newSoloGroup(t, "metrics-alice")

	env := NewEnv(nil, nil)
	fm := &fakeMetrics{}
	env.SetMetrics(fm)
	env.AddEntity(aliceID, aliceGroup.Members...)

	ctx := context.Background()
	_, err := env.Tick(ctx, 1000)
	require.NoError(t, err)

	assert.Equal(t, 1, fm.ticks)
}

func TestTickWithoutMetricsConfiguredDoesNotPanic(t *testing.T) {
	aliceGroup, aliceID := newSoloGroup(t, "metrics-bob")

	env := NewEnv(nil, nil)
	env.AddEntity(aliceID, aliceGroup.Members...)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		_, err := env.Tick(ctx, 1000)
		require.NoError(t, err)
	})
}
