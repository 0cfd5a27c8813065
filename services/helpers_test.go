package services

import (
	"sync"
	"testing"

	"github.com/studyloop/chat_backend/models"
	"github.com/studyloop/chat_backend/testutil"
	"gorm.io/gorm"
)

// recordingPublisher captures published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(roomID uint, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testServices struct {
	db       *gorm.DB
	rooms    *RoomService
	unread   *UnreadService
	messages *MessageService
	polls    *PollService
	fanout   *recordingPublisher
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.SetupTestDB(t)
	fanout := &recordingPublisher{}
	rooms := NewRoomService(db)
	unread := NewUnreadService(db)
	return &testServices{
		db:       db,
		rooms:    rooms,
		unread:   unread,
		messages: NewMessageService(db, rooms, unread, fanout),
		polls:    NewPollService(db, rooms, fanout),
		fanout:   fanout,
	}
}

func (ts *testServices) memberCount(t *testing.T, roomID uint) int64 {
	t.Helper()
	var count int64
	if err := ts.db.Model(&models.RoomUser{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	return count
}

func (ts *testServices) mustUnread(t *testing.T, roomID, userID uint) int64 {
	t.Helper()
	count, err := ts.unread.Count(roomID, userID)
	if err != nil {
		t.Fatalf("read unread counter: %v", err)
	}
	return count
}
