// Package relay implements the out-of-process message bus spec section 5
// mandates between runtime instances: keyed by runtime-id, transport
// agnostic, bounded per-client and global queues, and queue-until-
// registration for ids that haven't connected yet. Grounded on the
// teacher's pkg/batch/peer_manager.go peer bookkeeping (mutex-guarded
// slice+map registry, Add/Remove/Get-by-id methods), adapted from HTTP
// polling to a gorilla/websocket-fed queue per runtime-id -- the relay
// itself never interprets what a registered runtime sends through it.
package relay

import (
	"sync"

	"github.com/certen/xln-settlement/pkg/xlog"
)

var log = xlog.Component("relay")

// clientQueueLimit and debugRingLimit are spec section 5's fixed bounds:
// "per-client pending queues bounded to 200 and global debug events
// bounded to 5000".
const (
	clientQueueLimit = 200
	debugRingLimit   = 5000
)

// Client is one registered runtime's connection to the hub: a bounded
// outbound queue plus the opaque encryption key material the runtime
// registered with, carried across reconnects without ever being
// inspected (spec section 5, "preserves client encryption keys").
type Client struct {
	RuntimeID     string
	EncryptionKey []byte

	mu     sync.Mutex
	queue  []Envelope
	closed bool
}

// enqueue appends env to the client's queue, dropping the oldest entry
// once the bound is hit -- a relay is lossy-by-design infrastructure, not
// a durable log, so overflow degrades to "drop the stalest message"
// rather than blocking the publisher or growing without bound.
func (c *Client) enqueue(env Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, env)
	if len(c.queue) > clientQueueLimit {
		dropped := len(c.queue) - clientQueueLimit
		log.Warn().Str("runtime_id", c.RuntimeID).Int("dropped", dropped).Msg("client queue overflow")
		c.queue = c.queue[dropped:]
	}
}

// Drain returns and clears everything currently queued for this client.
func (c *Client) Drain() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queue
	c.queue = nil
	return out
}

// Hub is the relay's entire routing state: registered clients, envelopes
// still waiting on a client that hasn't registered yet, and a bounded
// ring of everything that has passed through for operator debugging.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	pending map[string][]Envelope

	debugMu sync.Mutex
	debug   []Envelope
}

// NewHub returns an empty relay.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		pending: make(map[string][]Envelope),
	}
}

// Register connects runtimeID to the hub, flushing anything that arrived
// for it before registration (spec section 5, "messages for unknown
// runtime-ids are queued until registration"). encryptionKey is stored
// verbatim and never parsed.
func (h *Hub) Register(runtimeID string, encryptionKey []byte) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[runtimeID]
	if !ok {
		c = &Client{RuntimeID: runtimeID}
		h.clients[runtimeID] = c
	}
	c.EncryptionKey = encryptionKey

	if queued, ok := h.pending[runtimeID]; ok {
		for _, env := range queued {
			c.enqueue(env)
		}
		delete(h.pending, runtimeID)
	}

	log.Info().Str("runtime_id", runtimeID).Msg("runtime registered with relay")
	return c
}

// Unregister removes runtimeID's client; any further Publish to it falls
// back to the pending queue until it registers again.
func (h *Hub) Unregister(runtimeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, runtimeID)
}

// Publish routes env to its target's queue if registered, or onto the
// pending queue (bounded the same way) if not. Every envelope is also
// recorded on the bounded debug ring regardless of delivery outcome.
func (h *Hub) Publish(env Envelope) {
	h.recordDebug(env)

	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[env.RuntimeID]; ok {
		c.enqueue(env)
		return
	}

	q := append(h.pending[env.RuntimeID], env)
	if len(q) > clientQueueLimit {
		q = q[len(q)-clientQueueLimit:]
	}
	h.pending[env.RuntimeID] = q
}

func (h *Hub) recordDebug(env Envelope) {
	h.debugMu.Lock()
	defer h.debugMu.Unlock()
	h.debug = append(h.debug, env)
	if len(h.debug) > debugRingLimit {
		h.debug = h.debug[len(h.debug)-debugRingLimit:]
	}
}

// DebugEvents returns a snapshot of every envelope the hub has seen
// recently, for an operator status endpoint -- not for application logic.
func (h *Hub) DebugEvents() []Envelope {
	h.debugMu.Lock()
	defer h.debugMu.Unlock()
	return append([]Envelope{}, h.debug...)
}
