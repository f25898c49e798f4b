package entity

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/certen/xln-settlement/pkg/codec"
)

// maxMessageLog bounds the entity's message log to the last 10 entries
// (spec section 3, "message log (bounded ring buffer of 10)").
const maxMessageLog = 10

// seenTxCacheSize bounds the recently-seen-tx dedup cache a proposer
// consults before admitting a gossiped entity-tx into its mempool, so a
// replayed message from a slow peer never gets applied twice. Grounded on
// the n42blockchain-N42-gov5 enrichment pack's use of
// hashicorp/golang-lru for mempool/proposal caches -- a ring is the wrong
// shape here because membership, not order, is what's being checked.
const seenTxCacheSize = 4096

// messageLog is a bounded ring of human-readable entity events (chat,
// governance, account openings) kept for the status/REPL surface.
type messageLog struct {
	entries []string
}

func newMessageLog() *messageLog { return &messageLog{entries: make([]string, 0, maxMessageLog)} }

func (m *messageLog) push(s string) {
	m.entries = append(m.entries, s)
	if len(m.entries) > maxMessageLog {
		m.entries = m.entries[len(m.entries)-maxMessageLog:]
	}
}

func (m *messageLog) clone() *messageLog {
	cp := &messageLog{entries: make([]string, len(m.entries))}
	copy(cp.entries, m.entries)
	return cp
}

// seenTxCache deduplicates entity-txs by their canonical hash across
// mempool admission, so a tx gossiped redundantly by multiple validators is
// applied at most once.
type seenTxCache struct {
	cache *lru.Cache[codec.Hash32, struct{}]
}

func newSeenTxCache() *seenTxCache {
	c, _ := lru.New[codec.Hash32, struct{}](seenTxCacheSize)
	return &seenTxCache{cache: c}
}

// admit reports whether hash has not been seen before, recording it either
// way.
func (c *seenTxCache) admit(hash codec.Hash32) bool {
	if c.cache.Contains(hash) {
		return false
	}
	c.cache.Add(hash, struct{}{})
	return true
}
