// Package websocket fans relay events out to dashboard clients. The hub is a
// single-goroutine actor driven by a command channel; per-connection writer
// goroutines decouple slow clients from the broadcast path.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
)

const (
	maxClientsPerTenant = 50
	writeTimeout        = 5 * time.Second
	sendBuffer          = 16
)

// envelope is the wire frame pushed to dashboards.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	tenantID uuid.UUID
	conn     *websocket.Conn
	errCh    chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	tenantID uuid.UUID
	conn     *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	tenantID uuid.UUID
	data     []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdGetClientCount struct {
	tenantID uuid.UUID
	replyCh  chan int
}

func (cmdGetClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub tracks dashboard connections per tenant. It implements
// domain.Broadcaster.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[uuid.UUID]map[*websocket.Conn]*clientWriter
}

func NewHub() *Hub {
	hub := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[uuid.UUID]map[*websocket.Conn]*clientWriter),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.tenantID, c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdGetClientCount:
			c.replyCh <- len(h.clients[c.tenantID])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	clients, exists := h.clients[c.tenantID]
	if !exists {
		clients = make(map[*websocket.Conn]*clientWriter)
		h.clients[c.tenantID] = clients
	}

	if len(clients) >= maxClientsPerTenant {
		slog.Warn("Rejecting dashboard client, tenant at capacity",
			"tenant_id", c.tenantID, "max_clients", maxClientsPerTenant)
		metrics.WebSocketConnectionsTotal.WithLabelValues("rejected").Inc()
		c.conn.Close()
		c.errCh <- fmt.Errorf("max clients per tenant (%d) reached", maxClientsPerTenant)
		return
	}

	clients[c.conn] = newClientWriter(c.conn)
	metrics.WebSocketConnectionsTotal.WithLabelValues("success").Inc()
	metrics.WebSocketConnectionsCurrent.Inc()
	slog.Debug("Dashboard client registered", "tenant_id", c.tenantID, "total_clients", len(clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(tenantID uuid.UUID, conn *websocket.Conn) {
	clients, exists := h.clients[tenantID]
	if !exists {
		return
	}

	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	metrics.WebSocketConnectionsCurrent.Dec()

	if len(clients) == 0 {
		delete(h.clients, tenantID)
	}
	slog.Debug("Dashboard client unregistered", "tenant_id", tenantID, "remaining_clients", len(clients))
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	clients, exists := h.clients[c.tenantID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range clients {
		select {
		case cw.sendCh <- c.data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow dashboard client", "tenant_id", c.tenantID)
		metrics.WebSocketSlowClientsEvicted.Inc()
		h.handleUnregister(c.tenantID, conn)
	}
}

func (h *Hub) handleStop() {
	for tenantID, clients := range h.clients {
		for _, cw := range clients {
			cw.stop()
			metrics.WebSocketConnectionsCurrent.Dec()
		}
		delete(h.clients, tenantID)
	}
}

// --- Public API ---

// Register adds a dashboard connection for a tenant. Fails when the tenant is
// at capacity.
func (h *Hub) Register(tenantID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{tenantID: tenantID, conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes a dashboard connection.
func (h *Hub) Unregister(tenantID uuid.UUID, conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{tenantID: tenantID, conn: conn}
}

// Broadcast sends an event envelope to every dashboard of a tenant.
func (h *Hub) Broadcast(tenantID uuid.UUID, event string, payload any) {
	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "event", event, "error", err)
		return
	}
	h.cmdCh <- cmdBroadcast{tenantID: tenantID, data: data}
}

// GetClientCount returns the number of connected dashboards for a tenant.
func (h *Hub) GetClientCount(tenantID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdGetClientCount{tenantID: tenantID, replyCh: replyCh}
	return <-replyCh
}

// Stop closes all connections and terminates the hub goroutine.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
