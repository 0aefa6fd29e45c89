package model

import (
	"time"

	"github.com/google/uuid"
)

// Activation records a user receiving a promo's code. At most one exists per
// (user, promo) pair; it is written exactly once, inside the redemption
// transaction, and never mutated.
type Activation struct {
	UserID  uuid.UUID `db:"user_id" json:"user_id"`
	PromoID uuid.UUID `db:"promo_id" json:"promo_id"`
	Code    string    `db:"code" json:"promo"`
	Date    time.Time `db:"date" json:"date"`
}
