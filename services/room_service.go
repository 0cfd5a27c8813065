package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studyloop/chat_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomService owns rooms, their membership set and room-level metadata.
type RoomService struct {
	db *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{db: db}
}

// ParticipantSummary is one page entry of a room's member list.
type ParticipantSummary struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	Tag      string    `json:"tag"`
	JoinedAt time.Time `json:"joined_at"`
}

// RoomSummary pairs a room with the caller's per-member state.
type RoomSummary struct {
	Room        models.Room `json:"room"`
	UnreadCount int64       `json:"unread_count"`
	LastReadAt  time.Time   `json:"last_read_at"`
}

// Create inserts the room and every membership row (creator included)
// in a single transaction, so a concurrent reader sees either the full
// member set or no room at all.
func (s *RoomService) Create(name string, creatorID uint, participantIDs []uint) (*models.Room, error) {
	return s.create(name, creatorID, participantIDs, false)
}

// CreatePrivate is Create with the private flag set.
func (s *RoomService) CreatePrivate(name string, creatorID uint, participantIDs []uint) (*models.Room, error) {
	return s.create(name, creatorID, participantIDs, true)
}

func (s *RoomService) create(name string, creatorID uint, participantIDs []uint, private bool) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name must not be empty", ErrValidation)
	}

	room := models.Room{
		Name:      name,
		Private:   private,
		CreatedBy: creatorID,
	}

	now := time.Now()
	members := []models.RoomUser{{UserID: creatorID, LastReadAt: now}}
	seen := map[uint]bool{creatorID: true}
	for _, id := range participantIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.RoomUser{UserID: id, LastReadAt: now})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		for i := range members {
			members[i].RoomID = room.ID
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &room, nil
}

// Get returns the room together with the caller's membership row.
// Non-members get ErrAccessDenied, unknown rooms ErrNotFound.
func (s *RoomService) Get(roomID, userID uint) (*models.Room, *models.RoomUser, error) {
	var room models.Room
	if err := s.db.Preload("Users").First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: room %d", ErrNotFound, roomID)
		}
		return nil, nil, err
	}

	membership, err := s.Membership(roomID, userID)
	if err != nil {
		return nil, nil, err
	}
	if membership == nil {
		return nil, nil, fmt.Errorf("%w: not a member of room %d", ErrAccessDenied, roomID)
	}
	return &room, membership, nil
}

// ListForUser returns every room the user belongs to, with the
// denormalized preview and the user's unread counter.
func (s *RoomService) ListForUser(userID uint) ([]RoomSummary, error) {
	var memberships []models.RoomUser
	if err := s.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	roomIDs := make([]uint, 0, len(memberships))
	byRoom := make(map[uint]models.RoomUser, len(memberships))
	for _, m := range memberships {
		roomIDs = append(roomIDs, m.RoomID)
		byRoom[m.RoomID] = m
	}

	var rooms []models.Room
	if len(roomIDs) > 0 {
		if err := s.db.Where("id IN ?", roomIDs).Order("last_message_at DESC NULLS LAST").Find(&rooms).Error; err != nil {
			return nil, err
		}
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		m := byRoom[room.ID]
		summaries = append(summaries, RoomSummary{
			Room:        room,
			UnreadCount: m.UnreadCount,
			LastReadAt:  m.LastReadAt,
		})
	}
	return summaries, nil
}

// Update renames the room and/or flips its visibility. Nil fields are
// left untouched. Only members may update.
func (s *RoomService) Update(roomID, userID uint, name *string, private *bool) error {
	if err := s.requireMember(roomID, userID); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return fmt.Errorf("%w: room name must not be empty", ErrValidation)
		}
		updates["name"] = trimmed
	}
	if private != nil {
		updates["private"] = *private
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.Model(&models.Room{}).Where("id = ?", roomID).Updates(updates).Error
}

// Delete removes the room and everything scoped to it. Creator only.
func (s *RoomService) Delete(roomID, userID uint) error {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: room %d", ErrNotFound, roomID)
		}
		return err
	}
	if room.CreatedBy != userID {
		return fmt.Errorf("%w: only the room creator can delete the room", ErrAccessDenied)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id IN (?)",
			tx.Model(&models.Poll{}).Select("id").Where("room_id = ?", roomID),
		).Delete(&models.PollVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id IN (?)",
			tx.Model(&models.Poll{}).Select("id").Where("room_id = ?", roomID),
		).Delete(&models.PollOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&models.Poll{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("room_id = ?", roomID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&models.RoomUser{}).Error; err != nil {
			return err
		}
		return tx.Delete(&room).Error
	})
}

// AddParticipant adds a member. Adding an existing member is a no-op
// success (insert with conflict-do-nothing, not check-then-insert).
func (s *RoomService) AddParticipant(roomID, userID uint) error {
	if err := s.db.First(&models.Room{}, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: room %d", ErrNotFound, roomID)
		}
		return err
	}

	member := models.RoomUser{RoomID: roomID, UserID: userID, LastReadAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
}

// RemoveParticipant removes a member along with their unread state.
// Removing a non-member is a no-op success.
func (s *RoomService) RemoveParticipant(roomID, userID uint) error {
	return s.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomUser{}).Error
}

// Join lets a user enter a room. Public rooms accept anyone; private
// rooms require an existing membership (the invitation is the
// membership row an existing member created via AddParticipant).
func (s *RoomService) Join(roomID, userID uint) error {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: room %d", ErrNotFound, roomID)
		}
		return err
	}

	if room.Private {
		member, err := s.Membership(roomID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("%w: room %d is private", ErrAccessDenied, roomID)
		}
		return nil
	}
	return s.AddParticipant(roomID, userID)
}

// Participants returns a page of the member list ordered by join time.
func (s *RoomService) Participants(roomID uint, offset, limit int) ([]ParticipantSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var page []ParticipantSummary
	err := s.db.Model(&models.RoomUser{}).
		Select("room_users.user_id, users.username, users.tag, room_users.created_at AS joined_at").
		Joins("JOIN users ON users.id = room_users.user_id").
		Where("room_users.room_id = ?", roomID).
		Order("room_users.created_at ASC, room_users.user_id ASC").
		Offset(offset).Limit(limit).
		Scan(&page).Error
	return page, err
}

// Membership returns the membership row, or nil when absent.
func (s *RoomService) Membership(roomID, userID uint) (*models.RoomUser, error) {
	var member models.RoomUser
	err := s.db.Where("room_id = ? AND user_id = ?", roomID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *RoomService) requireMember(roomID, userID uint) error {
	member, err := s.Membership(roomID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("%w: not a member of room %d", ErrAccessDenied, roomID)
	}
	return nil
}
