package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"jobboard/internal/auth"
	"jobboard/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin allow-list belongs in deployment config
	},
}

// WebSocketHandler is the canonical chat connection endpoint.
type WebSocketHandler struct {
	chat     *service.ChatService
	verifier auth.TokenVerifier
}

func NewWebSocketHandler(chat *service.ChatService, verifier auth.TokenVerifier) *WebSocketHandler {
	return &WebSocketHandler{chat: chat, verifier: verifier}
}

// HandleWebSocket authenticates the connection, upgrades it and drives it
// until it drops. An invalid or missing credential refuses the handshake
// outright; no session state exists until verification has passed.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token, err := auth.ExtractToken(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	identity, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure response.
		return
	}

	session := h.chat.Registry.Register(*identity)
	log.Printf("user %d (%s) connected, session %s", identity.UserID, identity.Role, session.ID)

	h.chat.ServeSession(conn, session)

	log.Printf("user %d disconnected, session %s", identity.UserID, session.ID)
}
