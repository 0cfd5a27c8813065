package websocket

import (
	"encoding/json"
	"log/slog"
)

// Inbound frame types. Outbound event types come from the services
// package so HTTP and websocket sends publish identically.
const (
	frameJoinRoom  = "join_room"
	frameLeaveRoom = "leave_room"
	frameMessage   = "message"
	frameMarkRead  = "mark_read"
)

type roomPayload struct {
	RoomID uint `json:"room_id"`
}

type messagePayload struct {
	RoomID  uint   `json:"room_id"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// handleFrame processes one inbound frame. Persistence goes through
// the same services as the HTTP path, so membership checks, unread
// counters and fan-out behave identically no matter how a message
// arrives.
func (h *Handler) handleFrame(client *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		slog.Warn("malformed frame", "connection_id", client.connID, "error", err)
		return
	}

	switch frame.Type {
	case frameJoinRoom:
		var payload roomPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			slog.Warn("malformed join_room payload", "connection_id", client.connID, "error", err)
			return
		}
		// Subscribing is for members only; a private room behaves no
		// differently here because membership is the gate either way.
		member, err := h.rooms.Membership(payload.RoomID, client.userID)
		if err != nil || member == nil {
			slog.Warn("join_room rejected", "connection_id", client.connID,
				"room_id", payload.RoomID, "user_id", client.userID)
			return
		}
		client.joinRoom(payload.RoomID)

	case frameLeaveRoom:
		var payload roomPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return
		}
		client.leaveRoom(payload.RoomID)

	case frameMessage:
		var payload messagePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			slog.Warn("malformed message payload", "connection_id", client.connID, "error", err)
			return
		}
		if !client.inRoom(payload.RoomID) {
			slog.Warn("message to room without subscription",
				"user_id", client.userID, "room_id", payload.RoomID)
			return
		}
		// Send persists and publishes; this client receives its own
		// message back through the hub like everyone else.
		if _, err := h.messages.Send(payload.RoomID, client.userID, payload.Content, payload.Type); err != nil {
			slog.Warn("websocket send failed", "user_id", client.userID,
				"room_id", payload.RoomID, "error", err)
		}

	case frameMarkRead:
		var payload roomPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return
		}
		if err := h.unread.MarkRead(payload.RoomID, client.userID); err != nil {
			slog.Warn("mark_read failed", "user_id", client.userID,
				"room_id", payload.RoomID, "error", err)
		}

	default:
		slog.Debug("unknown frame type", "type", frame.Type, "connection_id", client.connID)
	}
}
