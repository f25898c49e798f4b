package snapshot

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/certen/xln-settlement/pkg/runtime"
	"github.com/certen/xln-settlement/pkg/xerrors"
)

// ReplayFormatVersion is the major.minor.patch this binary writes into
// every exported replay document (spec section 6, "version: 1.x.x").
// ImportReplay rejects any document whose major component differs.
const ReplayFormatVersion = "1.0.0"

// ReplayDocument is the JSON shape spec section 6 names for exportReplay:
// "{version, exportedAt, frameCount, frames: EnvSnapshot[]}". Frames are
// hex-encoded canonical-binary snapshots rather than JSON objects, so the
// export format never needs a second, independently-drifting schema for
// entity.State's full graph -- it just wraps what BinaryEncoder already
// produces.
type ReplayDocument struct {
	Version    string   `json:"version"`
	ExportedAt string   `json:"exportedAt"`
	FrameCount int      `json:"frameCount"`
	Frames     []string `json:"frames"`
}

// ExportReplay renders history as the JSON document spec section 6
// describes. exportedAt is passed in rather than computed with time.Now,
// matching spec section 9's "async within handlers" prohibition on hidden
// nondeterministic inputs -- callers stamp the wall-clock time themselves.
func ExportReplay(history []runtime.Snapshot, exportedAt time.Time) ([]byte, error) {
	doc := ReplayDocument{
		Version:    ReplayFormatVersion,
		ExportedAt: exportedAt.UTC().Format(time.RFC3339),
		FrameCount: len(history),
		Frames:     make([]string, len(history)),
	}
	for i, snap := range history {
		b, err := Encode(snap)
		if err != nil {
			return nil, xerrors.Encoding("snapshot.ExportReplay", fmt.Errorf("frame %d: %w", i, err))
		}
		doc.Frames[i] = hex.EncodeToString(b)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, xerrors.Encoding("snapshot.ExportReplay", err)
	}
	return out, nil
}

// ImportReplay parses a document written by ExportReplay, rejecting any
// major version it does not recognize (spec section 6, "importReplay
// rejects any major version it does not recognize").
func ImportReplay(data []byte) ([]runtime.Snapshot, error) {
	var doc ReplayDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, xerrors.Encoding("snapshot.ImportReplay", err)
	}
	if err := checkMajorVersion(doc.Version); err != nil {
		return nil, xerrors.Encoding("snapshot.ImportReplay", err)
	}
	if doc.FrameCount != len(doc.Frames) {
		return nil, xerrors.Encoding("snapshot.ImportReplay",
			fmt.Errorf("frameCount %d does not match %d frames", doc.FrameCount, len(doc.Frames)))
	}

	frames := make([]runtime.Snapshot, len(doc.Frames))
	for i, hexFrame := range doc.Frames {
		raw, err := hex.DecodeString(hexFrame)
		if err != nil {
			return nil, xerrors.Encoding("snapshot.ImportReplay", fmt.Errorf("frame %d: %w", i, err))
		}
		snap, err := DecodeSnapshot(raw)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames[i] = snap
	}
	return frames, nil
}

func checkMajorVersion(version string) error {
	major := strings.SplitN(version, ".", 2)[0]
	ourMajor := strings.SplitN(ReplayFormatVersion, ".", 2)[0]
	if major == "" {
		return fmt.Errorf("missing replay version")
	}
	if _, err := strconv.Atoi(major); err != nil {
		return fmt.Errorf("malformed replay version %q", version)
	}
	if major != ourMajor {
		return fmt.Errorf("unsupported replay major version %q (this binary supports major %q)", version, ourMajor)
	}
	return nil
}
