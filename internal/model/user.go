package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Surname      string    `db:"surname" json:"surname"`
	Email        string    `db:"email" json:"email"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Age          int       `db:"age" json:"age"`
	Country      string    `db:"country" json:"country"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// MatchesTarget reports whether the user satisfies every bound the target
// actually sets. Absent bounds never constrain.
func (u *User) MatchesTarget(target Target) bool {
	if target.Country != nil && !strings.EqualFold(*target.Country, u.Country) {
		return false
	}
	if target.AgeFrom != nil && *target.AgeFrom > u.Age {
		return false
	}
	if target.AgeUntil != nil && *target.AgeUntil < u.Age {
		return false
	}
	return true
}
