package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MessageTypeText   = "text"
	MessageTypeMedia  = "media"
	MessageTypeSystem = "system"
)

type Message struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Content string `gorm:"type:text;not null" json:"content"`
	Type    string `gorm:"size:20;not null;default:'text'" json:"type"`
	RoomID  uint   `gorm:"index:idx_room_created" json:"room_id"`
	UserID  uint   `json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Pinned  bool   `gorm:"not null;default:false" json:"pinned"`

	CreatedAt time.Time      `gorm:"index:idx_room_created" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	EditedAt  *time.Time     `json:"edited_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
