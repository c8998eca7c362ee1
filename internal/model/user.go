package model

import (
	"time"
)

type User struct {
	ID           int64      `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	PhoneNumber  *string    `db:"phone_number"`
	Town         *string    `db:"town"`
	Avatar       *string    `db:"avatar"` // storage path
	TgChatID     *string    `db:"tg_chat_id"`
	IsActive     bool       `db:"is_active"`
	IsStaff      bool       `db:"is_staff"`
	IsSuperuser  bool       `db:"is_superuser"`
	LastLogin    *time.Time `db:"last_login"`
	DateJoined   time.Time  `db:"date_joined"`

	// Computed fields (not in database)
	AvatarURL string `db:"-"`
}

func (u *User) OwnerID() int64 {
	return u.ID
}

// Public is always true: any authenticated user may read the public view of a profile.
func (u *User) Public() bool {
	return true
}

func (u *User) HasChatID() bool {
	return u.TgChatID != nil && *u.TgChatID != ""
}
