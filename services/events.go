package services

// Event types pushed to live room subscribers.
const (
	EventNewMessage     = "newMessage"
	EventMessageEdited  = "messageEdited"
	EventMessageDeleted = "messageDeleted"
	EventMessagePinned  = "messagePinned"
	EventPollCreated    = "pollCreated"
	EventPollUpdated    = "pollUpdated"
)

// Event is what the fan-out layer delivers to subscribers of a room.
type Event struct {
	Type    string      `json:"type"`
	RoomID  uint        `json:"room_id"`
	Payload interface{} `json:"payload"`
}

// Publisher pushes committed events to every live subscriber of a
// room. Delivery is best-effort, at-most-once per connection; the
// persisted row, not the push, is the durability boundary.
type Publisher interface {
	Publish(roomID uint, event Event) error
}
