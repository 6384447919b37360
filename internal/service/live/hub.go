// Package live pushes freshly computed predictions to WebSocket
// subscribers, grouped by island.
package live

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StalkPull/internal/domain/models"
	domrepo "StalkPull/internal/domain/repository"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub is the subscriber registry. Broadcasts never block: a client that
// cannot drain its send buffer misses updates instead of stalling the rest.
type Hub struct {
	mu      sync.RWMutex
	islands map[string]map[*client]struct{}
	count   int
	closed  bool
	metrics domrepo.Metrics
}

type client struct {
	island string
	conn   *websocket.Conn
	send   chan []byte
}

func NewHub(metrics domrepo.Metrics) *Hub {
	return &Hub{
		islands: make(map[string]map[*client]struct{}),
		metrics: metrics,
	}
}

// Broadcast pushes a prediction to every subscriber of the island.
func (h *Hub) Broadcast(island string, p *models.Prediction) {
	payload, err := json.Marshal(p)
	if err != nil {
		log.Printf("live: marshal prediction: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.islands[island] {
		select {
		case cl.send <- payload:
		default:
			// drop on backpressure
		}
	}
}

// Subscribe upgrades the request and streams predictions for one island.
// It blocks until the peer goes away or the hub shuts down.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, island string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	cl := &client{island: island, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.add(cl) {
		_ = conn.Close()
		return nil
	}

	go cl.writeLoop()
	cl.readLoop()
	h.remove(cl)
	return nil
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Close drops every subscriber. Further subscriptions are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for island, subs := range h.islands {
		for cl := range subs {
			close(cl.send)
		}
		delete(h.islands, island)
	}
	h.count = 0
	h.metrics.SetLiveClients(0)
}

func (h *Hub) add(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	subs, ok := h.islands[cl.island]
	if !ok {
		subs = make(map[*client]struct{})
		h.islands[cl.island] = subs
	}
	subs[cl] = struct{}{}
	h.count++
	h.metrics.SetLiveClients(h.count)
	return true
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.islands[cl.island]
	if !ok {
		return
	}
	if _, ok := subs[cl]; !ok {
		// already dropped by Close
		return
	}
	delete(subs, cl)
	if len(subs) == 0 {
		delete(h.islands, cl.island)
	}
	close(cl.send)
	h.count--
	h.metrics.SetLiveClients(h.count)
}

// writeLoop owns the connection's write side: queued broadcasts plus
// keepalive pings. Closing the send channel makes it send a close frame
// and drop the connection.
func (cl *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound frames; the socket is push-only. It returns
// when the peer closes or stops answering pings.
func (cl *client) readLoop() {
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

var _ domrepo.Notifier = (*Hub)(nil)
