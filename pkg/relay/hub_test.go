package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishQueuesUntilRegistration(t *testing.T) {
	h := NewHub()
	h.Publish(Envelope{RuntimeID: "alice", Payload: []byte("hello")})

	client := h.Register("alice", []byte("key-material"))
	drained := client.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, []byte("hello"), drained[0].Payload)
}

func TestPublishDeliversDirectlyToRegisteredClient(t *testing.T) {
	h := NewHub()
	client := h.Register("bob", nil)
	h.Publish(Envelope{RuntimeID: "bob", Payload: []byte("direct")})

	drained := client.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, []byte("direct"), drained[0].Payload)
}

func TestClientQueueBoundedTo200(t *testing.T) {
	h := NewHub()
	client := h.Register("carol", nil)
	for i := 0; i < clientQueueLimit+50; i++ {
		h.Publish(Envelope{RuntimeID: "carol", Payload: []byte{byte(i)}})
	}
	drained := client.Drain()
	assert.Len(t, drained, clientQueueLimit)
	assert.Equal(t, []byte{50}, drained[0].Payload) // oldest 50 dropped
}

func TestRegisterPreservesEncryptionKeyAcrossReRegistration(t *testing.T) {
	h := NewHub()
	h.Register("dave", []byte("key-1"))
	c := h.Register("dave", []byte("key-2"))
	assert.Equal(t, []byte("key-2"), c.EncryptionKey)
}

func TestDebugRingRecordsEveryPublish(t *testing.T) {
	h := NewHub()
	h.Publish(Envelope{RuntimeID: "erin", Payload: []byte("a")})
	h.Publish(Envelope{RuntimeID: "erin", Payload: []byte("b")})
	assert.Len(t, h.DebugEvents(), 2)
}

func TestDebugRingBoundedTo5000(t *testing.T) {
	h := NewHub()
	for i := 0; i < debugRingLimit+10; i++ {
		h.Publish(Envelope{RuntimeID: "frank", Payload: []byte{byte(i % 256)}})
	}
	assert.Len(t, h.DebugEvents(), debugRingLimit)
}

func TestUnregisterFallsBackToPendingQueue(t *testing.T) {
	h := NewHub()
	h.Register("grace", nil)
	h.Unregister("grace")
	h.Publish(Envelope{RuntimeID: "grace", Payload: []byte("late")})

	client := h.Register("grace", nil)
	drained := client.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, []byte("late"), drained[0].Payload)
}
