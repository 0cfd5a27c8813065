package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/studyloop/chat_backend/testutil"
)

// The walkthrough: alice and bob share a room, alice talks, bob reads.
func TestUnreadCounterLifecycle(t *testing.T) {
	ts := newTestServices(t)
	alice := testutil.CreateTestUser(t, ts.db, "alice")
	bob := testutil.CreateTestUser(t, ts.db, "bob")

	room, err := ts.rooms.Create("Study Group", alice.ID, []uint{bob.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := ts.messages.Send(room.ID, alice.ID, "Hi", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := ts.mustUnread(t, room.ID, bob.ID); got != 1 {
		t.Errorf("bob's counter after first message = %d, want 1", got)
	}
	if got := ts.mustUnread(t, room.ID, alice.ID); got != 0 {
		t.Errorf("alice's counter after her own message = %d, want 0", got)
	}

	if err := ts.unread.MarkRead(room.ID, bob.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if got := ts.mustUnread(t, room.ID, bob.ID); got != 0 {
		t.Errorf("bob's counter after MarkRead = %d, want 0", got)
	}

	if _, err := ts.messages.Send(room.ID, alice.ID, "Again", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := ts.mustUnread(t, room.ID, bob.ID); got != 1 {
		t.Errorf("bob's counter after second message = %d, want 1", got)
	}
	if got := ts.mustUnread(t, room.ID, alice.ID); got != 0 {
		t.Errorf("alice's counter = %d, want 0", got)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	ts := newTestServices(t)
	alice := testutil.CreateTestUser(t, ts.db, "alice")
	bob := testutil.CreateTestUser(t, ts.db, "bob")

	room, err := ts.rooms.Create("Room", alice.ID, []uint{bob.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := ts.messages.Send(room.ID, alice.ID, "hello", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := ts.unread.MarkRead(room.ID, bob.ID); err != nil {
			t.Fatalf("MarkRead call %d: %v", i, err)
		}
		if got := ts.mustUnread(t, room.ID, bob.ID); got != 0 {
			t.Fatalf("counter after MarkRead call %d = %d, want 0 (never negative)", i, got)
		}
	}

	if _, err := ts.messages.Send(room.ID, alice.ID, "one more", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := ts.mustUnread(t, room.ID, bob.ID); got != 1 {
		t.Errorf("counter after send following MarkRead = %d, want 1", got)
	}
}

func TestMarkReadRequiresMembership(t *testing.T) {
	ts := newTestServices(t)
	alice := testutil.CreateTestUser(t, ts.db, "alice")
	outsider := testutil.CreateTestUser(t, ts.db, "outsider")

	room, err := ts.rooms.Create("Room", alice.ID, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := ts.unread.MarkRead(room.ID, outsider.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("non-member MarkRead: expected ErrAccessDenied, got %v", err)
	}
}

// Property: after any number of concurrent sends, each member's counter
// equals the number of messages the others sent. The increments are
// single atomic column updates, so no interleaving loses one.
func TestConcurrentSendsKeepCountersExact(t *testing.T) {
	ts := newTestServices(t)
	users := testutil.CreateTestUsers(t, ts.db, 4)

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	room, err := ts.rooms.Create("Busy", ids[0], ids[1:])
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const perSender = 5
	var wg sync.WaitGroup
	errs := make(chan error, len(users)*perSender)

	for _, u := range users {
		for n := 0; n < perSender; n++ {
			wg.Add(1)
			go func(senderID uint, n int) {
				defer wg.Done()
				if _, err := ts.messages.Send(room.ID, senderID, fmt.Sprintf("msg %d", n), ""); err != nil {
					errs <- err
				}
			}(u.ID, n)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Send: %v", err)
	}

	total := int64(len(users) * perSender)
	for _, u := range users {
		want := total - perSender // everything minus own messages
		if got := ts.mustUnread(t, room.ID, u.ID); got != want {
			t.Errorf("user %d counter = %d, want %d", u.ID, got, want)
		}
	}
}
