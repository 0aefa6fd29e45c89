package model

import (
	"time"

	"github.com/google/uuid"
)

type CommentAuthor struct {
	Name      string  `json:"name"`
	Surname   string  `json:"surname"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type Comment struct {
	ID       uuid.UUID     `db:"id" json:"id"`
	PromoID  uuid.UUID     `db:"promo_id" json:"-"`
	AuthorID uuid.UUID     `db:"author_id" json:"-"`
	Author   CommentAuthor `json:"author"`
	Text     string        `db:"text" json:"text"`
	Date     time.Time     `db:"date" json:"date"`
}
