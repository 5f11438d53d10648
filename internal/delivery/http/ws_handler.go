package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"codelive/internal/ws"
)

// WSHandler upgrades connections onto the room hub.
type WSHandler struct {
	hub      *ws.Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. allowedOrigin "*" admits any
// browser origin.
func NewWSHandler(hub *ws.Hub, allowedOrigin string, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Serve handles GET /ws (WebSocket upgrade).
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, h.logger)
	h.logger.Debug("connection opened", zap.String("conn_id", client.ID))

	go client.WritePump()
	go client.ReadPump()
}
