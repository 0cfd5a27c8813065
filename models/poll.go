package models

import (
	"time"
)

const (
	PollStatusOpen   = "open"
	PollStatusClosed = "closed"
)

// Poll title uniqueness is scoped to the room's open polls only: the
// partial unique index lets a closed poll's title be reused.
type Poll struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	RoomID    uint         `gorm:"index:idx_room_title_open,unique,where:status = 'open'" json:"room_id"`
	Title     string       `gorm:"size:255;not null;index:idx_room_title_open,unique" json:"title"`
	Status    string       `gorm:"size:20;not null;default:'open'" json:"status"`
	CreatedBy uint         `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Options   []PollOption `json:"options,omitempty"`
}

type PollOption struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PollID uint   `gorm:"index" json:"poll_id"`
	Label  string `gorm:"size:255;not null" json:"label"`
}

// One vote per (poll, member), enforced by the composite unique index.
// A second insert trips the constraint; it is never check-then-insert.
type PollVote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PollID       uint      `gorm:"index:idx_poll_voter,unique" json:"poll_id"`
	UserID       uint      `gorm:"index:idx_poll_voter,unique" json:"user_id"`
	PollOptionID uint      `json:"poll_option_id"`
	CreatedAt    time.Time `json:"created_at"`
}
