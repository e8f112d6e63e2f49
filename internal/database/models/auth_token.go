package models

import "time"

// AuthToken is the opaque bearer credential handed out at login. A user holds
// at most one.
type AuthToken struct {
	Key       string    `gorm:"primaryKey;size:40" json:"key"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

// Expired reports whether the token is older than ttl. A zero ttl never expires.
func (t *AuthToken) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.After(t.CreatedAt.Add(ttl))
}
