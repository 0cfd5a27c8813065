package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/studyloop/chat_backend/services"
)

// Hub is the subscription registry: room ID -> set of live clients.
// It implements services.Publisher. Delivery is at-most-once per
// connection and best-effort: a subscriber whose buffer is full simply
// misses the event and recovers by re-fetching history on reconnect.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Rooms mapping (roomID -> clients)
	rooms map[uint]map[*Client]bool

	// Guards clients and rooms
	mu sync.RWMutex

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[uint]map[*Client]bool),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				// Closing the connection implicitly drops every
				// room subscription it held.
				for roomID, clients := range h.rooms {
					if _, ok := clients[client]; ok {
						delete(h.rooms[roomID], client)
						if len(h.rooms[roomID]) == 0 {
							delete(h.rooms, roomID)
						}
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish delivers the committed event to every client subscribed to
// the room, in call order. Implements services.Publisher.
func (h *Hub) Publish(roomID uint, event services.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	h.publishToRoom(roomID, payload)
	return nil
}

// joinRoom adds a client to a room's subscriber set
func (h *Hub) joinRoom(client *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
}

// leaveRoom removes a client from a room's subscriber set
func (h *Hub) leaveRoom(client *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; ok {
		delete(h.rooms[roomID], client)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// publishToRoom sends a frame to all clients in a room. A full send
// buffer means the client is too slow to keep up; the frame is dropped
// for that client only and the send path is never blocked.
func (h *Hub) publishToRoom(roomID uint, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		select {
		case client.send <- frame:
		default:
			slog.Warn("dropping event for slow subscriber",
				"room_id", roomID, "connection_id", client.connID)
		}
	}
}

// subscriberCount reports how many clients currently follow a room.
func (h *Hub) subscriberCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
