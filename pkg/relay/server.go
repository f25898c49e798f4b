package relay

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader accepts connections from any origin: the relay is meant to sit
// behind whatever network boundary the deployment already enforces, the
// same posture the teacher's HTTP peer manager takes toward peer
// endpoints it already trusts by configuration.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// registerMessage is the first frame a connection must send: which
// runtime-id it is, and its opaque encryption key material.
type registerMessage struct {
	RuntimeID     string `json:"runtimeId"`
	EncryptionKey []byte `json:"encryptionKey"`
}

// ServeWS upgrades r to a websocket connection, reads the initial
// registerMessage, and pumps Envelopes in both directions until the
// connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var reg registerMessage
	if err := conn.ReadJSON(&reg); err != nil {
		log.Warn().Err(err).Msg("relay connection sent no valid register message")
		return
	}
	if reg.RuntimeID == "" {
		log.Warn().Msg("relay connection registered with empty runtime id")
		return
	}

	client := h.Register(reg.RuntimeID, reg.EncryptionKey)
	defer h.Unregister(reg.RuntimeID)

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, client, done)
}

// readPump forwards every inbound frame to Publish, treating the payload
// as opaque bytes the relay never parses.
func (h *Hub) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		h.Publish(env)
	}
}

// writePump drains client's queue onto the connection on a short tick,
// since the relay delivers by polling a bounded slice rather than holding
// a channel open per message.
func (h *Hub) writePump(conn *websocket.Conn, client *Client, done chan struct{}) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for _, env := range client.Drain() {
				if err := conn.WriteJSON(env); err != nil {
					return
				}
			}
		}
	}
}
