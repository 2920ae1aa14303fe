package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/avolkov/relay/internal/middleware"
	ws "github.com/avolkov/relay/internal/websocket"
)

// WebSocketHandler принимает соединения и запускает сессии
type WebSocketHandler struct {
	hub      *ws.Hub
	router   *EventRouter
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, router *EventRouter, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// HandleWebSocket апгрейдит соединение; личность уже разрешена
// middleware до апгрейда
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID.(string))

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.router)
}
