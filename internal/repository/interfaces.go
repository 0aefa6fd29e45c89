package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
)

type Pagination struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type PromoSortBy string

const (
	PromoSortByID          PromoSortBy = "id"
	PromoSortByActiveFrom  PromoSortBy = "active_from"
	PromoSortByActiveUntil PromoSortBy = "active_until"
)

type PromoListFilter struct {
	CompanyID  uuid.UUID   `json:"company_id"`
	Countries  []string    `json:"countries,omitempty"`
	SortBy     PromoSortBy `json:"sort_by,omitempty"`
	Pagination Pagination  `json:"pagination"`
}

type FeedFilter struct {
	Country    string     `json:"country"`
	Category   *string    `json:"category,omitempty"`
	Active     *bool      `json:"active,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
}

type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	FindByEmail(ctx context.Context, email string) (*model.Company, error)
	Create(ctx context.Context, company *model.Company) error
}

type PromoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Promo, error)
	Create(ctx context.Context, promo *model.Promo) error
	Update(ctx context.Context, promo *model.Promo) error
	List(ctx context.Context, filter PromoListFilter) ([]*model.Promo, int64, error)
	Feed(ctx context.Context, filter FeedFilter) ([]*model.Promo, int64, error)
	CountryStats(ctx context.Context, promoID uuid.UUID) ([]model.CountryActivations, error)
	// RefreshActive recomputes the active flag for every promo from its time
	// window and remaining capacity; returns how many promos are active after.
	RefreshActive(ctx context.Context, now time.Time) (int64, error)
}

// ActivationRepository owns the only mutations of redemption state. Both
// Activate variants run in a single transaction; uniqueness of
// (user_id, promo_id) and single-claim of pool entries is enforced by the
// store's constraints, not by in-process locks.
type ActivationRepository interface {
	// ActivateCommon issues the promo's shared code. A repeat call for an
	// already-activated pair returns the previously issued code without
	// consuming capacity; ErrCapacityExhausted when used_count reached
	// max_count.
	ActivateCommon(ctx context.Context, userID, promoID uuid.UUID, at time.Time) (string, error)
	// ActivateUnique claims one unclaimed pool entry and binds it to the
	// pair. Repeat calls return the already-bound code; ErrCapacityExhausted
	// when the pool is empty.
	ActivateUnique(ctx context.Context, userID, promoID uuid.UUID, at time.Time) (string, error)
	FindByUserAndPromo(ctx context.Context, userID, promoID uuid.UUID) (*model.Activation, error)
	// ActivatedByUser reports which of the given promos the user has
	// activated, keyed by promo id. Absent keys mean not activated.
	ActivatedByUser(ctx context.Context, userID uuid.UUID, promoIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	History(ctx context.Context, userID uuid.UUID, page Pagination) ([]*model.Promo, int64, error)
}

type LikeRepository interface {
	// Add and Remove are idempotent and keep the promo's like_count in step.
	Add(ctx context.Context, userID, promoID uuid.UUID) error
	Remove(ctx context.Context, userID, promoID uuid.UUID) error
	// LikedByUser reports which of the given promos the user has liked,
	// keyed by promo id. Absent keys mean not liked.
	LikedByUser(ctx context.Context, userID uuid.UUID, promoIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, promoID, commentID uuid.UUID) (*model.Comment, error)
	ListByPromo(ctx context.Context, promoID uuid.UUID, page Pagination) ([]*model.Comment, int64, error)
	UpdateText(ctx context.Context, commentID, authorID uuid.UUID, text string) (*model.Comment, error)
	Delete(ctx context.Context, promoID, commentID, authorID uuid.UUID) error
}
