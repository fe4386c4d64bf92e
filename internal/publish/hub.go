package publish

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientQueueSize = 256
	writeTimeout    = 5 * time.Second
)

// Hub accepts websocket subscribers and fans broadcast events out to them.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	server *http.Server
}

// client is one subscriber connection with a bounded send queue.
type client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub with no listeners attached.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Start serves the subscription endpoint at /ws on addr.
func (h *Hub) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleSubscribe)

	h.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := h.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("publish server error", "error", err)
		}
	}()

	h.logger.Info("publish hub started", "addr", addr)
	return nil
}

// Stop disconnects all subscribers and shuts the server down. Idempotent.
func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	if h.server != nil {
		if err := h.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	h.logger.Info("publish hub stopped")
	return nil
}

// Broadcast sends one event to every subscriber. Clients that cannot keep
// up are dropped rather than blocking the caller.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow subscriber")
			delete(h.clients, c)
			go c.close()
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler exposes the subscription endpoint for tests and embedding.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(h.handleSubscribe)
}

func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientQueueSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("subscriber connected", "clients", count)

	go c.writeLoop()
	go h.readLoop(c)
}

// readLoop discards inbound frames and detects disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	if ok {
		c.close()
		h.logger.Debug("subscriber disconnected")
	}
}

// writeLoop serializes all writes to the connection.
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// close tears the connection down. Safe to call more than once.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.conn.Close()
	})
}
