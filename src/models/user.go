package models

import (
	"dms/src/types"
	"time"
)

type User struct {
	ID         uint   `gorm:"primarykey" json:"-"`
	Identifier string `gorm:"uniqueIndex" json:"id"`
	Name       string `gorm:"uniqueIndex" json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Password   string `json:"-"`

	Role        types.Role        `gorm:"default:'staff'" json:"role"`
	Permissions types.Permissions `gorm:"type:jsonb;default:'[]'" json:"permissions"`
	Branch      string            `gorm:"default:'all'" json:"branch"`

	// At most one live session per user. A login while SessionExpiry is in
	// the future is rejected until logout or expiry.
	SessionToken  string     `json:"-"`
	SessionStart  *time.Time `json:"session_start,omitempty"`
	SessionExpiry *time.Time `json:"session_expiry,omitempty"`

	types.Timestamps
}

// HasLiveSession reports whether the user holds an unexpired session.
func (u *User) HasLiveSession(now time.Time) bool {
	return u.SessionToken != "" && u.SessionExpiry != nil && u.SessionExpiry.After(now)
}
