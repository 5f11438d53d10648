package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"codelive/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // full-document snapshots can be large
	sendBufferSize = 256
)

// Client wraps one WebSocket connection. A single reader goroutine
// (ReadPump) and a single writer goroutine (WritePump) own the
// connection; everything else talks to the client through its send
// channel, which keeps per-sender delivery order intact.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	logger    *zap.Logger
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		ID:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger,
	}
}

// ReadPump reads frames until the connection drops, dispatching room
// events to the hub. It runs as the connection's sole reader.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
		metrics.ConnectionsActive.Dec()
		c.logger.Debug("connection closed", zap.String("conn_id", c.ID))
	}()

	metrics.ConnectionsActive.Inc()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("unexpected close", zap.String("conn_id", c.ID), zap.Error(err))
			}
			return
		}

		ev, err := ParseEvent(raw)
		if err != nil {
			c.logger.Debug("dropping malformed frame", zap.String("conn_id", c.ID), zap.Error(err))
			continue
		}

		switch ev.Event {
		case EventJoinRoom:
			c.hub.Join(c, ev.Room)
		case EventLeaveRoom:
			c.hub.Leave(c, ev.Room)
		case EventCodeUpdate:
			// Relayed verbatim so recipients see the sender's exact frame.
			c.hub.Broadcast(c, ev.Room, raw)
		default:
			c.logger.Debug("unknown event", zap.String("event", ev.Event))
		}
	}
}

// WritePump drains the send channel onto the wire and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// trySend queues a message without blocking. False means the client's
// buffer is full (slow or dead consumer).
func (c *Client) trySend(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once, which terminates WritePump.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}
