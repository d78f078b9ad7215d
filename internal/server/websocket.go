package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rgowan/tunerbridge/internal/logging"
	"github.com/rgowan/tunerbridge/internal/registry"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Per-subscriber send buffer; a subscriber that falls this far behind
	// is dropped rather than allowed to stall the hub.
	subscriberBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub fans registry intents out to WebSocket subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan registry.Intent
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// Run keeps the hub alive until ctx is cancelled, then closes every
// subscriber connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subscribers {
		close(sub.send)
		delete(h.subscribers, sub)
	}
}

// Broadcast queues an intent for every subscriber. Subscribers with full
// buffers are dropped; the event stream is advisory, not durable.
func (h *Hub) Broadcast(intent registry.Intent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- intent:
		default:
			logging.Warn("Dropping slow event subscriber",
				zap.String("remote_addr", sub.conn.RemoteAddr().String()),
			)
			close(sub.send)
			delete(h.subscribers, sub)
		}
	}
}

// handleSubscribe upgrades the request and streams intents until the
// client disconnects.
func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan registry.Intent, subscriberBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	logging.Debug("Event subscriber connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
	)

	go h.readLoop(sub)
	h.writeLoop(sub)
}

// readLoop discards client messages and reacts to pongs; its exit tears
// the subscriber down.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop pushes intents and periodic pings to the peer.
func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case intent, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := sub.conn.WriteJSON(intent); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub]; ok {
		close(sub.send)
		delete(h.subscribers, sub)
	}
}
