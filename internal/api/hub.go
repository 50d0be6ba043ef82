package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/metrics"
	"github.com/yourusername/edge-finder/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// OpportunityUpdate is the message pushed to websocket subscribers whenever
// an analysis run surfaces new opportunities.
type OpportunityUpdate struct {
	Type          string               `json:"type"`
	Sport         string               `json:"sport"`
	Opportunities []models.Opportunity `json:"opportunities"`
	Timestamp     time.Time            `json:"timestamp"`
}

// Hub maintains the set of connected dashboard clients and fans out
// opportunity updates to them.
type Hub struct {
	clients   map[*wsClient]bool
	clientsMu sync.RWMutex

	broadcast  chan OpportunityUpdate
	register   chan *wsClient
	unregister chan *wsClient
	// done is closed when Run exits so client pumps never block on a
	// register/unregister hand-off nobody is reading.
	done chan struct{}

	logger *logrus.Entry
}

// NewHub creates a hub. Run must be called before clients connect.
func NewHub(logger *logrus.Entry) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan OpportunityUpdate, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run drives the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case update := <-h.broadcast:
			h.fanOut(update)
		}
	}
}

// Broadcast queues an update for all connected clients. Drops the update
// when the buffer is full rather than blocking the analysis loop.
func (h *Hub) Broadcast(sport string, opportunities []models.Opportunity) {
	if len(opportunities) == 0 {
		return
	}
	update := OpportunityUpdate{
		Type:          "opportunities",
		Sport:         sport,
		Opportunities: opportunities,
		Timestamp:     time.Now().UTC(),
	}
	select {
	case h.broadcast <- update:
	default:
		h.logger.Warn("Broadcast buffer full, dropping update")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *wsClient) {
	h.clientsMu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	metrics.ConnectedDashboards.Set(float64(total))
	h.logger.WithFields(logrus.Fields{
		"client_id": c.id,
		"total":     total,
	}).Info("Dashboard client connected")
}

func (h *Hub) unregisterClient(c *wsClient) {
	h.clientsMu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.clientsMu.Unlock()

	metrics.ConnectedDashboards.Set(float64(total))
	h.logger.WithFields(logrus.Fields{
		"client_id": c.id,
		"total":     total,
	}).Info("Dashboard client disconnected")
}

func (h *Hub) fanOut(update OpportunityUpdate) {
	h.clientsMu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- update:
		default:
			// Slow consumer. Disconnect instead of stalling the fan-out.
			h.logger.WithField("client_id", c.id).Warn("Client send buffer full, disconnecting")
			go func(c *wsClient) {
				select {
				case h.unregister <- c:
				case <-h.done:
				}
			}(c)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.clientsMu.Lock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()
	metrics.ConnectedDashboards.Set(0)
}

type wsClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan OpportunityUpdate
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWebSocket upgrades the connection and attaches it to the hub.
func (h *Hub) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &wsClient{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan OpportunityUpdate, 64),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case update, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(update); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is one-directional but the
// read loop is required to process pongs and detect closed connections.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
