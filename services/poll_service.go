package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/studyloop/chat_backend/models"
	"gorm.io/gorm"
)

// PollService manages room-scoped single-choice polls. Both uniqueness
// rules (open title per room, one vote per member) live in the store as
// unique indexes; the service issues one insert and maps the violation.
type PollService struct {
	db     *gorm.DB
	rooms  *RoomService
	fanout Publisher
}

func NewPollService(db *gorm.DB, rooms *RoomService, fanout Publisher) *PollService {
	return &PollService{db: db, rooms: rooms, fanout: fanout}
}

// Create opens a poll with its options in one transaction. A second
// open poll with the same title in the room trips the partial unique
// index and comes back as ErrConflict.
func (s *PollService) Create(roomID, creatorID uint, title string, options []string) (*models.Poll, error) {
	if err := s.rooms.requireMember(roomID, creatorID); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: poll title must not be empty", ErrValidation)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: a poll needs at least one option", ErrValidation)
	}
	seen := make(map[string]bool, len(options))
	for _, label := range options {
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("%w: option labels must not be empty", ErrValidation)
		}
		if seen[label] {
			return nil, fmt.Errorf("%w: duplicate option label %q", ErrValidation, label)
		}
		seen[label] = true
	}

	poll := models.Poll{
		RoomID:    roomID,
		Title:     title,
		Status:    models.PollStatusOpen,
		CreatedBy: creatorID,
	}
	for _, label := range options {
		poll.Options = append(poll.Options, models.PollOption{Label: label})
	}

	if err := s.db.Create(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: an open poll titled %q already exists in this room", ErrConflict, title)
		}
		return nil, fmt.Errorf("create poll: %w", err)
	}

	s.publish(roomID, EventPollCreated, poll)
	return &poll, nil
}

// Vote records the member's single vote for the option. The second
// attempt by the same member hits the (poll_id, user_id) unique index
// and is reported as ErrDuplicateVote, whichever call loses the race.
func (s *PollService) Vote(optionID, memberID uint) (*models.PollVote, error) {
	var option models.PollOption
	if err := s.db.First(&option, optionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: poll option %d", ErrNotFound, optionID)
		}
		return nil, err
	}

	var poll models.Poll
	if err := s.db.First(&poll, option.PollID).Error; err != nil {
		return nil, err
	}
	if poll.Status != models.PollStatusOpen {
		return nil, fmt.Errorf("%w: poll %d is closed", ErrConflict, poll.ID)
	}
	if err := s.rooms.requireMember(poll.RoomID, memberID); err != nil {
		return nil, err
	}

	vote := models.PollVote{
		PollID:       poll.ID,
		UserID:       memberID,
		PollOptionID: optionID,
	}
	if err := s.db.Create(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: poll %d", ErrDuplicateVote, poll.ID)
		}
		return nil, fmt.Errorf("record vote: %w", err)
	}

	if results, err := s.Results(poll.ID); err == nil {
		s.publish(poll.RoomID, EventPollUpdated, map[string]interface{}{
			"poll_id": poll.ID,
			"results": results,
		})
	}
	return &vote, nil
}

// Results tallies votes per option label. Options nobody picked appear
// with a zero count.
func (s *PollService) Results(pollID uint) (map[string]int64, error) {
	var options []models.PollOption
	if err := s.db.Where("poll_id = ?", pollID).Find(&options).Error; err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: poll %d", ErrNotFound, pollID)
	}

	type tally struct {
		PollOptionID uint
		Count        int64
	}
	var rows []tally
	if err := s.db.Model(&models.PollVote{}).
		Select("poll_option_id, COUNT(*) AS count").
		Where("poll_id = ?", pollID).
		Group("poll_option_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byOption := make(map[uint]int64, len(rows))
	for _, row := range rows {
		byOption[row.PollOptionID] = row.Count
	}

	results := make(map[string]int64, len(options))
	for _, option := range options {
		results[option.Label] = byOption[option.ID]
	}
	return results, nil
}

// Close transitions the poll open→closed. Creator only; closing an
// already-closed poll is a no-op success.
func (s *PollService) Close(pollID, requesterID uint) error {
	var poll models.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: poll %d", ErrNotFound, pollID)
		}
		return err
	}
	if poll.CreatedBy != requesterID {
		return fmt.Errorf("%w: only the poll creator can close it", ErrAccessDenied)
	}

	if err := s.db.Model(&poll).
		Where("status = ?", models.PollStatusOpen).
		Update("status", models.PollStatusClosed).Error; err != nil {
		return err
	}

	s.publish(poll.RoomID, EventPollUpdated, map[string]interface{}{
		"poll_id": poll.ID,
		"status":  models.PollStatusClosed,
	})
	return nil
}

// Get returns the poll with its options. Members only.
func (s *PollService) Get(pollID, requesterID uint) (*models.Poll, error) {
	var poll models.Poll
	if err := s.db.Preload("Options").First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: poll %d", ErrNotFound, pollID)
		}
		return nil, err
	}
	if err := s.rooms.requireMember(poll.RoomID, requesterID); err != nil {
		return nil, err
	}
	return &poll, nil
}

func (s *PollService) publish(roomID uint, eventType string, payload interface{}) {
	event := Event{Type: eventType, RoomID: roomID, Payload: payload}
	if err := s.fanout.Publish(roomID, event); err != nil {
		slog.Warn("poll event publish failed, retrying", "event", eventType, "room_id", roomID, "error", err)
		if err := s.fanout.Publish(roomID, event); err != nil {
			slog.Error("poll event publish failed after retry", "event", eventType, "room_id", roomID, "error", err)
		}
	}
}
