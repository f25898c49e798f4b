package snapshot

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certen/xln-settlement/internal/testutil"
	"github.com/certen/xln-settlement/pkg/entity"
	"github.com/certen/xln-settlement/pkg/runtime"
)

func newTestSnapshot(t *testing.T) runtime.Snapshot {
	t.Helper()
	state, _, id := testutil.DeriveSoloEntity(t, []byte("snapshot-test-seed"), "erin")
	state.Height = 3
	state.Reserves[entity.TokenID(9)] = big.NewInt(42)

	return runtime.Snapshot{
		Height:    3,
		Timestamp: 1000,
		Entities:  map[[32]byte]*entity.State{id: state},
		JHeights:  map[string]uint64{"default": 7},
	}
}

func TestSnapshotBinaryRoundTrip(t *testing.T) {
	snap := newTestSnapshot(t)
	data, err := BinaryEncoder{}.Encode(snap)
	require.NoError(t, err)

	out, err := DecodeSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, snap.Height, out.Height)
	assert.Equal(t, snap.JHeights, out.JHeights)
	require.Len(t, out.Entities, 1)
	for id, st := range snap.Entities {
		restored, ok := out.Entities[id]
		require.True(t, ok)
		assert.Equal(t, st.EntityID, restored.EntityID)
		assert.EqualValues(t, st.Height, restored.Height)
		assert.Equal(t, big.NewInt(42), restored.Reserves[entity.TokenID(9)])
	}
}

func TestReplayExportImportRoundTrip(t *testing.T) {
	history := []runtime.Snapshot{newTestSnapshot(t)}
	doc, err := ExportReplay(history, time.Unix(1700000000, 0))
	require.NoError(t, err)

	var parsed ReplayDocument
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Equal(t, ReplayFormatVersion, parsed.Version)
	assert.Equal(t, 1, parsed.FrameCount)

	restored, err := ImportReplay(doc)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, history[0].Height, restored[0].Height)
	assert.Equal(t, history[0].JHeights, restored[0].JHeights)
}

func TestImportReplayRejectsUnknownMajorVersion(t *testing.T) {
	doc := ReplayDocument{Version: "2.0.0", ExportedAt: "2026-01-01T00:00:00Z", FrameCount: 0, Frames: nil}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = ImportReplay(raw)
	require.Error(t, err)
}

func TestImportReplayRejectsFrameCountMismatch(t *testing.T) {
	doc := ReplayDocument{Version: ReplayFormatVersion, ExportedAt: "2026-01-01T00:00:00Z", FrameCount: 2, Frames: []string{"00"}}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = ImportReplay(raw)
	require.Error(t, err)
}
