package relay

import "time"

// Envelope is the only shape the relay understands: who a message is for,
// and an opaque payload it never interprets (spec section 5, "transport
// agnostic ... never interprets the payload"). Runtime/entity/account
// layers agree on what Payload means between themselves; the relay only
// routes it.
type Envelope struct {
	RuntimeID string    `json:"runtimeId"`
	Payload   []byte    `json:"payload"`
	QueuedAt  time.Time `json:"queuedAt"`
}
