package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/studyloop/chat_backend/models"
	"gorm.io/gorm"
)

// MessageService persists messages and drives the post-commit side
// effects: unread counters and real-time fan-out.
type MessageService struct {
	db     *gorm.DB
	rooms  *RoomService
	unread *UnreadService
	fanout Publisher
}

func NewMessageService(db *gorm.DB, rooms *RoomService, unread *UnreadService, fanout Publisher) *MessageService {
	return &MessageService{db: db, rooms: rooms, unread: unread, fanout: fanout}
}

// Send commits the message and the room's last-message preview in one
// transaction, then bumps unread counters and publishes the committed
// row. The two follow-ups are best-effort: a failure is logged and
// retried once, and never fails the send itself.
func (s *MessageService) Send(roomID, senderID uint, content, msgType string) (*models.Message, error) {
	if err := s.rooms.requireMember(roomID, senderID); err != nil {
		return nil, err
	}

	if msgType == "" {
		msgType = models.MessageTypeText
	}
	switch msgType {
	case models.MessageTypeText, models.MessageTypeMedia, models.MessageTypeSystem:
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrValidation, msgType)
	}
	if msgType == models.MessageTypeText && strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content must not be empty", ErrValidation)
	}

	message := models.Message{
		Content: content,
		Type:    msgType,
		RoomID:  roomID,
		UserID:  senderID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Room{}).Where("id = ?", roomID).
			Updates(map[string]interface{}{
				"last_message":    message.Content,
				"last_message_at": message.CreatedAt,
				"last_sender_id":  senderID,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	if err := s.db.Preload("User").First(&message, message.ID).Error; err != nil {
		slog.Warn("load sender for message", "message_id", message.ID, "error", err)
	}

	s.withRetry("unread increment", func() error {
		return s.unread.OnMessageSent(roomID, senderID)
	})
	s.withRetry("fanout publish", func() error {
		return s.fanout.Publish(roomID, Event{Type: EventNewMessage, RoomID: roomID, Payload: message})
	})

	return &message, nil
}

// History returns one page of a room's messages, newest page first but
// each page re-reversed to ascending order for display. Reading never
// touches the caller's read cursor; that stays an explicit MarkRead.
// beforeID paginates: pass the oldest message ID of the previous page.
func (s *MessageService) History(roomID, requesterID, beforeID uint, limit int) ([]models.Message, error) {
	if err := s.rooms.requireMember(roomID, requesterID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.Where("room_id = ?", roomID)
	if beforeID != 0 {
		// Resolve the cursor unscoped: a message another client just
		// deleted must still anchor the page.
		var cursor models.Message
		if err := s.db.Unscoped().Select("id", "created_at").First(&cursor, beforeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: cursor message %d", ErrNotFound, beforeID)
			}
			return nil, err
		}
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var page []models.Message
	if err := query.Order("created_at DESC, id DESC").
		Limit(limit).
		Preload("User").
		Find(&page).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

// Edit rewrites the content of the editor's own message.
func (s *MessageService) Edit(messageID, editorID uint, newContent string) (*models.Message, error) {
	if strings.TrimSpace(newContent) == "" {
		return nil, fmt.Errorf("%w: message content must not be empty", ErrValidation)
	}

	var message models.Message
	if err := s.db.First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return nil, err
	}
	if message.UserID != editorID {
		return nil, fmt.Errorf("%w: only the sender can edit a message", ErrAccessDenied)
	}

	now := time.Now()
	if err := s.db.Model(&message).
		Updates(map[string]interface{}{"content": newContent, "edited_at": now}).Error; err != nil {
		return nil, err
	}
	message.Content = newContent
	message.EditedAt = &now

	s.withRetry("fanout publish", func() error {
		return s.fanout.Publish(message.RoomID, Event{
			Type: EventMessageEdited, RoomID: message.RoomID, Payload: message,
		})
	})
	return &message, nil
}

// Delete soft-deletes the message so other clients' pagination cursors
// remain valid. Allowed for the sender and for the room's creator.
func (s *MessageService) Delete(messageID, requesterID uint) error {
	var message models.Message
	if err := s.db.First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return err
	}

	if message.UserID != requesterID {
		var room models.Room
		if err := s.db.First(&room, message.RoomID).Error; err != nil {
			return err
		}
		if room.CreatedBy != requesterID {
			return fmt.Errorf("%w: only the sender or the room creator can delete a message", ErrAccessDenied)
		}
	}

	if err := s.db.Delete(&message).Error; err != nil {
		return err
	}

	s.withRetry("fanout publish", func() error {
		return s.fanout.Publish(message.RoomID, Event{
			Type:   EventMessageDeleted,
			RoomID: message.RoomID,
			Payload: map[string]uint{
				"message_id": message.ID,
				"room_id":    message.RoomID,
			},
		})
	})
	return nil
}

// Pin marks the message as the room's single pinned message. The unpin
// of the previous one and the new pin commit together.
func (s *MessageService) Pin(messageID, roomID, requesterID uint) error {
	if err := s.rooms.requireMember(roomID, requesterID); err != nil {
		return err
	}

	var message models.Message
	if err := s.db.Where("room_id = ?", roomID).First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: message %d in room %d", ErrNotFound, messageID, roomID)
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("room_id = ? AND pinned", roomID).
			Update("pinned", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Message{}).
			Where("id = ?", messageID).
			Update("pinned", true).Error
	})
	if err != nil {
		return fmt.Errorf("pin message: %w", err)
	}

	s.withRetry("fanout publish", func() error {
		return s.fanout.Publish(roomID, Event{
			Type:   EventMessagePinned,
			RoomID: roomID,
			Payload: map[string]uint{
				"message_id": messageID,
				"room_id":    roomID,
			},
		})
	})
	return nil
}

// Pinned returns the room's pinned message, or nil when none is set.
func (s *MessageService) Pinned(roomID uint) (*models.Message, error) {
	var message models.Message
	err := s.db.Where("room_id = ? AND pinned", roomID).Preload("User").First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (s *MessageService) withRetry(op string, fn func() error) {
	err := fn()
	if err == nil {
		return
	}
	slog.Warn("post-commit side effect failed, retrying", "op", op, "error", err)
	if err := fn(); err != nil {
		slog.Error("post-commit side effect failed after retry", "op", op, "error", err)
	}
}
