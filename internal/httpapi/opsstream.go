package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	opsWriteWait  = 10 * time.Second
	opsPongWait   = 60 * time.Second
	opsPingPeriod = 30 * time.Second
	opsSendBuffer = 256
)

var opsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// OpsEvent is a distribution-side occurrence broadcast to ops listeners
// (SPEC_FULL §B ops stream). Server.Notify produces them: one
// "signal_distributed" or "signal_reply_distributed" event per
// chat-room fan-out.
type OpsEvent struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Detail    any       `json:"detail,omitempty"`
}

var opsClientIDCounter uint64

// opsClient is one connected ops-stream subscriber, grounded on the
// teacher's session.Client (ID, buffered send channel, done channel,
// close-once semantics), generalized from per-symbol subscriptions to a
// single broadcast-everything stream.
type opsClient struct {
	id     uint64
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func newOpsClient(conn *websocket.Conn) *opsClient {
	return &opsClient{
		id:     atomic.AddUint64(&opsClientIDCounter, 1),
		conn:   conn,
		sendCh: make(chan []byte, opsSendBuffer),
		done:   make(chan struct{}),
	}
}

// send enqueues data for delivery. Returns false if the buffer is full
// (message dropped rather than blocking the broadcaster).
func (c *opsClient) send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		return false
	}
}

func (c *opsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// opsHub fans out OpsEvents to all connected ops-stream clients,
// grounded on the teacher's session.Manager register/unregister/
// broadcast idiom.
type opsHub struct {
	mu      sync.RWMutex
	clients map[uint64]*opsClient
}

func newOpsHub() *opsHub {
	return &opsHub{clients: make(map[uint64]*opsClient)}
}

func (h *opsHub) register(c *opsClient) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

func (h *opsHub) unregister(c *opsClient) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
}

// Broadcast sends an OpsEvent to every connected client. Encodes once
// and fans out, matching the teacher's pre-encode-once-per-broadcast
// pattern.
func (h *opsHub) Broadcast(ev OpsEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.send(data)
	}
}

// ClientCount returns the number of connected ops-stream clients.
func (h *opsHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast pushes a ready-made OpsEvent onto the server's ops hub.
// Distribution reaches the hub through Notify, which cmd/tradesignal
// wires as the Engine's Notifier.
func (s *Server) Broadcast(ev OpsEvent) {
	s.hub.Broadcast(ev)
}

// Notify implements distribution.Notifier, letting the Server be wired
// directly as the distribution Engine's Notifier.
func (s *Server) Notify(kind string, detail any) {
	s.hub.Broadcast(OpsEvent{Kind: kind, Timestamp: time.Now(), Detail: detail})
}

func (s *Server) handleOpsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := opsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Error("httpapi: ops stream upgrade", "error", err)
		return
	}

	c := newOpsClient(conn)
	s.hub.register(c)

	go opsWritePump(c)
	go opsReadPump(c, s.hub, s.Log)
}

// opsReadPump discards inbound messages (the ops stream is server ->
// client only) but must keep reading to process control frames and
// detect disconnects.
func opsReadPump(c *opsClient, hub *opsHub, log *slog.Logger) {
	defer hub.unregister(c)

	c.conn.SetReadDeadline(time.Now().Add(opsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(opsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("httpapi: ops client read error", "client_id", c.id, "error", err)
			}
			return
		}
	}
}

func opsWritePump(c *opsClient) {
	ticker := time.NewTicker(opsPingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data, ok := <-c.sendCh:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(opsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(opsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
