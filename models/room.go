package models

import (
	"time"
)

type Room struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Private   bool      `gorm:"not null;default:false" json:"private"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Denormalized preview of the newest message, maintained in the
	// same transaction as the message insert.
	LastMessage   string     `gorm:"type:text" json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	LastSenderID  *uint      `json:"last_sender_id,omitempty"`

	Users    []User    `gorm:"many2many:room_users;" json:"users,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

type RoomUser struct {
	RoomID      uint      `gorm:"primaryKey" json:"room_id"`
	UserID      uint      `gorm:"primaryKey" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UnreadCount int64     `gorm:"not null;default:0" json:"unread_count"`
	LastReadAt  time.Time `json:"last_read_at"`
}
