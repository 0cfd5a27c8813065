package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the chat identity. The password is stored as a bcrypt hash
// and only ever assigned through SetPassword, so a plain Save never
// re-hashes an already-hashed value.
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Username          string     `gorm:"size:255;not null;index:idx_username_tag,unique" json:"username"`
	Tag               string     `gorm:"size:4;not null;index:idx_username_tag,unique" json:"tag"`
	Email             string     `gorm:"size:255;not null;unique" json:"email"`
	Password          string     `gorm:"size:255;not null" json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Rooms             []Room     `gorm:"many2many:room_users;" json:"-"`
}

// SetPassword hashes the plaintext and records when it changed. Used
// by registration and by the reset-code flow.
func (u *User) SetPassword(raw string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	now := time.Now()
	u.PasswordChangedAt = &now
	return nil
}

// ValidatePassword checks if the provided password matches the stored hash
func (u *User) ValidatePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}
