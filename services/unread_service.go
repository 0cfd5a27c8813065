package services

import (
	"fmt"
	"time"

	"github.com/studyloop/chat_backend/models"
	"gorm.io/gorm"
)

// UnreadService keeps the per-(room, member) unread counter and read
// cursor. Every mutation is a single atomic UPDATE: two sends racing
// each other, or a send racing a markRead, can interleave in any order
// without losing an increment.
type UnreadService struct {
	db *gorm.DB
}

func NewUnreadService(db *gorm.DB) *UnreadService {
	return &UnreadService{db: db}
}

// OnMessageSent bumps the counter of every member except the sender.
// One statement, column arithmetic in the store, never read-modify-write.
func (s *UnreadService) OnMessageSent(roomID, senderID uint) error {
	return s.db.Model(&models.RoomUser{}).
		Where("room_id = ? AND user_id <> ?", roomID, senderID).
		Update("unread_count", gorm.Expr("unread_count + 1")).Error
}

// MarkRead zeroes the member's counter and advances the read cursor.
// Idempotent: repeating it leaves counter 0 and moves the cursor forward.
// A caller without a membership row gets ErrAccessDenied.
func (s *UnreadService) MarkRead(roomID, memberID uint) error {
	result := s.db.Model(&models.RoomUser{}).
		Where("room_id = ? AND user_id = ?", roomID, memberID).
		Updates(map[string]interface{}{
			"unread_count": 0,
			"last_read_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: not a member of room %d", ErrAccessDenied, roomID)
	}
	return nil
}

// Count reads the member's current unread counter.
func (s *UnreadService) Count(roomID, memberID uint) (int64, error) {
	var member models.RoomUser
	if err := s.db.Where("room_id = ? AND user_id = ?", roomID, memberID).
		First(&member).Error; err != nil {
		return 0, err
	}
	return member.UnreadCount, nil
}
