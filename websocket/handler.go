package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/studyloop/chat_backend/services"
	"github.com/studyloop/chat_backend/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Handler upgrades connections and routes inbound frames to the
// services. The hub it wraps is the same one the HTTP path publishes
// through, so both paths share one subscriber registry.
type Handler struct {
	hub      *Hub
	rooms    *services.RoomService
	messages *services.MessageService
	unread   *services.UnreadService
}

func NewHandler(hub *Hub, rooms *services.RoomService, messages *services.MessageService, unread *services.UnreadService) *Handler {
	return &Handler{hub: hub, rooms: rooms, messages: messages, unread: unread}
}

// HandleConnection handles websocket connections. The client
// authenticates with the same JWT the REST API uses, passed as a
// query parameter since browsers cannot set headers on upgrades.
func (h *Handler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	userID, err := utils.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:     h.hub,
		handler: h,
		conn:    conn,
		send:    make(chan []byte, 256),
		connID:  uuid.NewString(),
		userID:  userID,
		rooms:   make(map[uint]bool),
	}

	client.hub.register <- client

	go client.readPump()
	go client.writePump()
}
