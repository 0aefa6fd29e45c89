package model

import (
	"time"

	"github.com/google/uuid"
)

type PromoMode string

const (
	PromoModeCommon PromoMode = "COMMON"
	PromoModeUnique PromoMode = "UNIQUE"
)

// Target is the eligibility predicate attached to a promo. Every field is
// optional; an absent field imposes no constraint.
type Target struct {
	AgeFrom    *int     `db:"age_from" json:"age_from,omitempty"`
	AgeUntil   *int     `db:"age_until" json:"age_until,omitempty"`
	Country    *string  `db:"country" json:"country,omitempty"`
	Categories []string `db:"categories" json:"categories,omitempty"`
}

type Promo struct {
	ID           uuid.UUID  `db:"id" json:"promo_id"`
	CompanyID    uuid.UUID  `db:"company_id" json:"company_id"`
	CompanyName  string     `db:"company_name" json:"company_name"`
	Description  string     `db:"description" json:"description"`
	ImageURL     *string    `db:"image_url" json:"image_url,omitempty"`
	Target       Target     `db:"target" json:"target"`
	MaxCount     int        `db:"max_count" json:"max_count"`
	ActiveFrom   *time.Time `db:"active_from" json:"active_from,omitempty"`
	ActiveUntil  *time.Time `db:"active_until" json:"active_until,omitempty"`
	Mode         PromoMode  `db:"mode" json:"mode"`
	PromoCommon  *string    `db:"promo_common" json:"promo_common,omitempty"`
	PromoUnique  []string   `db:"promo_unique" json:"promo_unique,omitempty"`
	LikeCount    int        `db:"like_count" json:"like_count"`
	UsedCount    int        `db:"used_count" json:"used_count"`
	CommentCount int        `db:"comment_count" json:"comment_count"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"-"`
}

// IsActiveAt evaluates the availability flag from first principles: inside
// the active window and capacity not yet exhausted.
func (p *Promo) IsActiveAt(now time.Time) bool {
	if p.ActiveFrom != nil && now.Before(*p.ActiveFrom) {
		return false
	}
	if p.ActiveUntil != nil && now.After(*p.ActiveUntil) {
		return false
	}
	return p.UsedCount < p.MaxCount
}

type CountryActivations struct {
	Country     string `db:"country" json:"country"`
	Activations int64  `db:"activations_count" json:"activations_count"`
}

type PromoStat struct {
	ActivationsCount int64                `json:"activations_count"`
	Countries        []CountryActivations `json:"countries,omitempty"`
}
