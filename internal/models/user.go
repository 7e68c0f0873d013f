package models

import (
	"time"
)

// DefaultRoleID is the role every user gets unless registration assigns another one.
const DefaultRoleID int64 = 1

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Lastname     string    `json:"lastname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsBanned     bool      `json:"is_banned"`
	RoleID       int64     `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EffectiveRoleID resolves an unset role to DefaultRoleID.
func (u *User) EffectiveRoleID() int64 {
	if u.RoleID <= 0 {
		return DefaultRoleID
	}
	return u.RoleID
}

// Touch refreshes UpdatedAt, keeping it no earlier than CreatedAt.
func (u *User) Touch(now time.Time) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if now.Before(u.CreatedAt) {
		now = u.CreatedAt
	}
	u.UpdatedAt = now
}
