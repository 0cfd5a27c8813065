package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/studyloop/chat_backend/services"
)

func newTestClient(hub *Hub, id string, buffer int) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, buffer),
		connID: id,
		rooms:  make(map[uint]bool),
	}
}

func register(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	select {
	case hub.register <- client:
	case <-time.After(time.Second):
		t.Fatal("hub did not accept registration")
	}
}

func drainEvent(t *testing.T, client *Client) services.Event {
	t.Helper()
	select {
	case frame := <-client.send:
		var event services.Event
		if err := json.Unmarshal(frame, &event); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return services.Event{}
	}
}

func TestPublishReachesOnlyRoomSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	inRoom := newTestClient(hub, "in", 8)
	elsewhere := newTestClient(hub, "out", 8)
	register(t, hub, inRoom)
	register(t, hub, elsewhere)

	inRoom.joinRoom(7)
	elsewhere.joinRoom(8)

	if err := hub.Publish(7, services.Event{Type: services.EventNewMessage, RoomID: 7}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	event := drainEvent(t, inRoom)
	if event.RoomID != 7 || event.Type != services.EventNewMessage {
		t.Errorf("delivered event = %+v", event)
	}
	select {
	case frame := <-elsewhere.send:
		t.Errorf("subscriber of another room received %s", frame)
	default:
	}
}

func TestPublishPreservesOrderWithinRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "ordered", 16)
	register(t, hub, client)
	client.joinRoom(1)

	types := []string{
		services.EventNewMessage,
		services.EventMessageEdited,
		services.EventMessagePinned,
		services.EventMessageDeleted,
	}
	for _, eventType := range types {
		if err := hub.Publish(1, services.Event{Type: eventType, RoomID: 1}); err != nil {
			t.Fatalf("Publish %s: %v", eventType, err)
		}
	}

	for i, want := range types {
		if got := drainEvent(t, client).Type; got != want {
			t.Fatalf("event %d = %s, want %s", i, got, want)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := newTestClient(hub, "slow", 1)
	register(t, hub, slow)
	slow.joinRoom(3)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(3, services.Event{Type: services.EventNewMessage, RoomID: 3})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The slow client got at most its buffer's worth; the rest were
	// dropped, never queued unbounded.
	if got := len(slow.send); got > 1 {
		t.Errorf("slow subscriber buffered %d frames, buffer is 1", got)
	}
}

func TestDisconnectDropsAllSubscriptions(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "leaver", 8)
	register(t, hub, client)
	client.joinRoom(1)
	client.joinRoom(2)

	select {
	case hub.unregister <- client:
	case <-time.After(time.Second):
		t.Fatal("hub did not accept unregistration")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.subscriberCount(1) == 0 && hub.subscriberCount(2) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("subscriptions survived disconnect: room1=%d room2=%d",
		hub.subscriberCount(1), hub.subscriberCount(2))
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "wanderer", 8)
	register(t, hub, client)
	client.joinRoom(5)
	client.leaveRoom(5)

	hub.Publish(5, services.Event{Type: services.EventNewMessage, RoomID: 5})

	select {
	case frame := <-client.send:
		t.Errorf("received %s after leaving the room", frame)
	case <-time.After(100 * time.Millisecond):
	}
}
