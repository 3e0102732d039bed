// internal/handlers/ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/termo/internal/middleware"
	"github.com/jason-s-yu/termo/internal/protocol"
	"github.com/jason-s-yu/termo/internal/session"
	"github.com/sirupsen/logrus"
)

// WSOptions tunes the WebSocket endpoint.
type WSOptions struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	OutboxSize     int
	OriginPatterns []string
}

// DefaultWSOptions returns the values used when nothing is configured.
func DefaultWSOptions() WSOptions {
	return WSOptions{
		PingInterval:   30 * time.Second,
		WriteTimeout:   5 * time.Second,
		OutboxSize:     32,
		OriginPatterns: []string{"*"},
	}
}

// WSServer accepts game connections and runs one session per socket.
type WSServer struct {
	handler *session.Handler
	hub     *Hub
	opts    WSOptions
	logger  logrus.FieldLogger
}

// NewWSServer wires the session handler to the connection hub.
func NewWSServer(h *session.Handler, hub *Hub, opts WSOptions, logger logrus.FieldLogger) *WSServer {
	def := DefaultWSOptions()
	if opts.PingInterval <= 0 {
		opts.PingInterval = def.PingInterval
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = def.OutboxSize
	}
	if len(opts.OriginPatterns) == 0 {
		opts.OriginPatterns = def.OriginPatterns
	}
	return &WSServer{handler: h, hub: hub, opts: opts, logger: logger}
}

// ServeHTTP upgrades the request and blocks until the socket closes.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.OriginPatterns,
	})
	if err != nil {
		s.logger.WithError(err).WithField("remote", r.RemoteAddr).Warn("websocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn := &Connection{
		ID:      uuid.New(),
		Remote:  r.RemoteAddr,
		OutChan: make(chan protocol.Outbound, s.opts.OutboxSize),
		Cancel:  cancel,
	}
	s.hub.Register(conn)
	log := s.logger.WithFields(logrus.Fields{"conn": conn.ID, "remote": conn.Remote})
	middleware.LogWebSocketConnect(s.logger, conn.Remote, r.URL.Path)

	go s.writePump(ctx, c, conn, log)

	st, readErr := s.readPump(ctx, c, conn, log)

	// The registry entry goes first so nobody addresses this connection
	// after the hub forgets it.
	s.handler.Disconnect(st)
	s.hub.Unregister(conn.ID)
	cancel()
	middleware.LogWebSocketDisconnect(s.logger, conn.Remote, r.URL.Path, readErr)

	c.Close(websocket.StatusNormalClosure, "")
}

// readPump feeds every text frame through the session handler until the
// socket fails or the context ends. It returns the final session state and
// the read error, nil for a normal closure.
func (s *WSServer) readPump(ctx context.Context, c *websocket.Conn, conn *Connection, log logrus.FieldLogger) (session.State, error) {
	st := session.NewState(conn.ID)
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			switch status := websocket.CloseStatus(err); {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				log.Debug("websocket closed by client")
				return st, nil
			case errors.Is(err, context.Canceled):
				return st, nil
			default:
				log.WithError(err).WithField("status", status).Debug("websocket read failed")
				return st, err
			}
		}

		if typ != websocket.MessageText {
			log.WithField("frame", typ).Debug("ignoring non-text frame")
			continue
		}

		in, err := protocol.Decode(data)
		if err != nil {
			log.WithError(err).Debug("malformed message")
			conn.WriteError("Invalid message format")
			continue
		}

		st = s.handler.Serve(ctx, st, in, s.hub)
	}
}

// writePump drains the outbox onto the socket and pings the client every
// PingInterval. Any write failure cancels the connection.
func (s *WSServer) writePump(ctx context.Context, c *websocket.Conn, conn *Connection, log logrus.FieldLogger) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()
	defer conn.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			data, err := protocol.Encode(msg)
			if err != nil {
				log.WithError(err).Warn("failed to encode outgoing message")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.WithError(err).Debug("failed to write to websocket")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.WithError(err).Debug("ping failed, assuming disconnect")
				return
			}
		}
	}
}
