// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/termo/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Connection is the server side of one live WebSocket. Outbound messages
// are queued on OutChan and written by the connection's write pump.
type Connection struct {
	ID      uuid.UUID
	Remote  string
	OutChan chan protocol.Outbound
	Cancel  context.CancelFunc
}

// Write queues msg without blocking. It reports false when the outbox is
// full and the message was dropped.
func (conn *Connection) Write(msg protocol.Outbound) bool {
	select {
	case conn.OutChan <- msg:
		return true
	default:
		return false
	}
}

// WriteError queues an ERROR message.
func (conn *Connection) WriteError(msg string) bool {
	return conn.Write(protocol.NewError(msg))
}

// Hub maps opaque connection IDs to live connections. The room registry
// only ever sees the IDs.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]*Connection
	logger logrus.FieldLogger
}

// NewHub creates an empty Hub.
func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]*Connection),
		logger: logger,
	}
}

// Register adds conn to the hub.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID] = conn
}

// Unregister removes the connection with the given ID.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Deliver queues msg on every listed connection. Unknown IDs belong to
// connections that already closed and are skipped. A connection whose
// outbox is full has fallen behind the room and is closed, so it never
// observes a gap in the message order.
func (h *Hub) Deliver(to []uuid.UUID, msg protocol.Outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range to {
		conn, ok := h.conns[id]
		if !ok {
			continue
		}
		if !conn.Write(msg) {
			h.logger.WithFields(logrus.Fields{
				"conn": id,
				"type": msg.MessageType(),
			}).Warn("outbox full, closing slow connection")
			if conn.Cancel != nil {
				conn.Cancel()
			}
		}
	}
}
