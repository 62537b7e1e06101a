package handlers

import (
	"log"
	"net/http"

	"trivia-service/internal/apperrors"
	ws "trivia-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins in prod
	},
}

type WebSocketHandler struct {
	hub      *ws.Hub
	sessions SessionGetter
}

func NewWebSocketHandler(hub *ws.Hub, sessions SessionGetter) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		sessions: sessions,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	sessionID := c.Query("session_id")
	if _, err := uuid.Parse(sessionID); err != nil {
		JsonError(c, apperrors.NewValidation("Invalid session id"))
		return
	}

	if _, err := h.sessions.GetSession(c.Request.Context(), sessionID); err != nil {
		JsonError(c, err)
		return
	}

	playerID := c.Query("player_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, playerID, sessionID)

	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
