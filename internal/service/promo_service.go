package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

const (
	minDescriptionLen = 10
	maxDescriptionLen = 300
	maxCategories     = 20
	maxCommonCapacity = 100000000
	maxUniquePoolSize = 5000
)

type PromoService struct {
	promoRepo      repository.PromoRepository
	likeRepo       repository.LikeRepository
	activationRepo repository.ActivationRepository
	logger         *zap.Logger
}

func NewPromoService(
	promoRepo repository.PromoRepository,
	likeRepo repository.LikeRepository,
	activationRepo repository.ActivationRepository,
	logger *zap.Logger,
) *PromoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromoService{
		promoRepo:      promoRepo,
		likeRepo:       likeRepo,
		activationRepo: activationRepo,
		logger:         logger,
	}
}

type CreatePromoRequest struct {
	Description string
	ImageURL    *string
	Target      model.Target
	MaxCount    int
	ActiveFrom  *time.Time
	ActiveUntil *time.Time
	Mode        model.PromoMode
	PromoCommon *string
	PromoUnique []string
}

type PatchPromoRequest struct {
	Description *string
	ImageURL    *string
	Target      *model.Target
	MaxCount    *int
	ActiveFrom  *time.Time
	ActiveUntil *time.Time
}

// UserPromoView is the promo shape users see: no code material, plus the
// caller's own like/activation flags.
type UserPromoView struct {
	PromoID           uuid.UUID `json:"promo_id"`
	CompanyID         uuid.UUID `json:"company_id"`
	CompanyName       string    `json:"company_name"`
	Description       string    `json:"description"`
	ImageURL          *string   `json:"image_url,omitempty"`
	Active            bool      `json:"active"`
	IsActivatedByUser bool      `json:"is_activated_by_user"`
	IsLikedByUser     bool      `json:"is_liked_by_user"`
	LikeCount         int       `json:"like_count"`
	CommentCount      int       `json:"comment_count"`
}

type FeedRequest struct {
	Category   *string
	Active     *bool
	Pagination repository.Pagination
}

func (s *PromoService) Create(ctx context.Context, companyID uuid.UUID, req CreatePromoRequest) (*model.Promo, error) {
	if err := s.validateCreate(&req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	promo := &model.Promo{
		CompanyID:   companyID,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Target:      req.Target,
		MaxCount:    req.MaxCount,
		ActiveFrom:  req.ActiveFrom,
		ActiveUntil: req.ActiveUntil,
		Mode:        req.Mode,
		PromoCommon: req.PromoCommon,
		PromoUnique: req.PromoUnique,
	}
	promo.Active = promo.IsActiveAt(now)

	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, err
	}

	s.logger.Info("promo created",
		zap.String("promo_id", promo.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("mode", string(promo.Mode)),
	)
	return promo, nil
}

func (s *PromoService) GetForCompany(ctx context.Context, companyID, promoID uuid.UUID) (*model.Promo, error) {
	promo, err := s.findPromo(ctx, promoID)
	if err != nil {
		return nil, err
	}
	if promo.CompanyID != companyID {
		return nil, ErrNotOwner
	}
	return promo, nil
}

func (s *PromoService) Patch(ctx context.Context, companyID, promoID uuid.UUID, req PatchPromoRequest) (*model.Promo, error) {
	promo, err := s.GetForCompany(ctx, companyID, promoID)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		if err := validateName("description", *req.Description, minDescriptionLen, maxDescriptionLen); err != nil {
			return nil, err
		}
		promo.Description = *req.Description
	}
	if req.ImageURL != nil {
		if err := validateOptionalURL("image_url", req.ImageURL); err != nil {
			return nil, err
		}
		promo.ImageURL = req.ImageURL
	}
	if req.Target != nil {
		if err := validateTarget(req.Target); err != nil {
			return nil, err
		}
		promo.Target = *req.Target
	}
	if req.MaxCount != nil {
		if promo.Mode == model.PromoModeUnique && *req.MaxCount != promo.MaxCount {
			return nil, invalidInput("max_count of a UNIQUE promo is fixed by its code pool")
		}
		if *req.MaxCount < 1 || *req.MaxCount > maxCommonCapacity {
			return nil, invalidInput("max_count must be between 1 and %d", maxCommonCapacity)
		}
		if *req.MaxCount < promo.UsedCount {
			return nil, invalidInput("max_count must not drop below the current activation count")
		}
		promo.MaxCount = *req.MaxCount
	}
	if req.ActiveFrom != nil {
		promo.ActiveFrom = req.ActiveFrom
	}
	if req.ActiveUntil != nil {
		promo.ActiveUntil = req.ActiveUntil
	}

	promo.Active = promo.IsActiveAt(time.Now().UTC())

	if err := s.promoRepo.Update(ctx, promo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, err
	}
	return promo, nil
}

func (s *PromoService) List(ctx context.Context, filter repository.PromoListFilter) ([]*model.Promo, int64, error) {
	switch filter.SortBy {
	case "", repository.PromoSortByID, repository.PromoSortByActiveFrom, repository.PromoSortByActiveUntil:
	default:
		return nil, 0, invalidInput("sort_by must be one of id, active_from, active_until")
	}
	return s.promoRepo.List(ctx, filter)
}

func (s *PromoService) Stat(ctx context.Context, companyID, promoID uuid.UUID) (*model.PromoStat, error) {
	if _, err := s.GetForCompany(ctx, companyID, promoID); err != nil {
		return nil, err
	}

	countries, err := s.promoRepo.CountryStats(ctx, promoID)
	if err != nil {
		return nil, err
	}

	stat := &model.PromoStat{Countries: countries}
	for _, country := range countries {
		stat.ActivationsCount += country.Activations
	}
	return stat, nil
}

// Feed lists promos visible to the user's country, decorated with the user's
// own like and activation flags.
func (s *PromoService) Feed(ctx context.Context, user *model.User, req FeedRequest) ([]UserPromoView, int64, error) {
	promos, total, err := s.promoRepo.Feed(ctx, repository.FeedFilter{
		Country:    user.Country,
		Category:   req.Category,
		Active:     req.Active,
		Pagination: req.Pagination,
	})
	if err != nil {
		return nil, 0, err
	}

	views, err := s.decorate(ctx, user.ID, promos)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *PromoService) GetForUser(ctx context.Context, userID, promoID uuid.UUID) (*UserPromoView, error) {
	promo, err := s.findPromo(ctx, promoID)
	if err != nil {
		return nil, err
	}

	views, err := s.decorate(ctx, userID, []*model.Promo{promo})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PromoService) History(ctx context.Context, userID uuid.UUID, page repository.Pagination) ([]UserPromoView, int64, error) {
	promos, total, err := s.activationRepo.History(ctx, userID, page)
	if err != nil {
		return nil, 0, err
	}

	views, err := s.decorate(ctx, userID, promos)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *PromoService) findPromo(ctx context.Context, promoID uuid.UUID) (*model.Promo, error) {
	promo, err := s.promoRepo.FindByID(ctx, promoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, err
	}
	return promo, nil
}

func (s *PromoService) decorate(ctx context.Context, userID uuid.UUID, promos []*model.Promo) ([]UserPromoView, error) {
	ids := make([]uuid.UUID, len(promos))
	for i, promo := range promos {
		ids[i] = promo.ID
	}

	liked, err := s.likeRepo.LikedByUser(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	activated, err := s.activationRepo.ActivatedByUser(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]UserPromoView, len(promos))
	for i, promo := range promos {
		views[i] = UserPromoView{
			PromoID:           promo.ID,
			CompanyID:         promo.CompanyID,
			CompanyName:       promo.CompanyName,
			Description:       promo.Description,
			ImageURL:          promo.ImageURL,
			Active:            promo.Active,
			IsActivatedByUser: activated[promo.ID],
			IsLikedByUser:     liked[promo.ID],
			LikeCount:         promo.LikeCount,
			CommentCount:      promo.CommentCount,
		}
	}
	return views, nil
}

func (s *PromoService) validateCreate(req *CreatePromoRequest) error {
	if err := validateName("description", req.Description, minDescriptionLen, maxDescriptionLen); err != nil {
		return err
	}
	if err := validateOptionalURL("image_url", req.ImageURL); err != nil {
		return err
	}
	if err := validateTarget(&req.Target); err != nil {
		return err
	}

	switch req.Mode {
	case model.PromoModeCommon:
		if req.PromoCommon == nil {
			return invalidInput("promo_common is required for COMMON mode")
		}
		if len(req.PromoUnique) > 0 {
			return invalidInput("promo_unique is not allowed for COMMON mode")
		}
		if err := validateName("promo_common", *req.PromoCommon, 5, 30); err != nil {
			return err
		}
		if req.MaxCount < 1 || req.MaxCount > maxCommonCapacity {
			return invalidInput("max_count must be between 1 and %d", maxCommonCapacity)
		}
	case model.PromoModeUnique:
		if req.PromoCommon != nil {
			return invalidInput("promo_common is not allowed for UNIQUE mode")
		}
		if len(req.PromoUnique) == 0 || len(req.PromoUnique) > maxUniquePoolSize {
			return invalidInput("promo_unique must hold between 1 and %d codes", maxUniquePoolSize)
		}
		for _, code := range req.PromoUnique {
			if err := validateName("promo_unique entry", code, 3, 30); err != nil {
				return err
			}
		}
		// Each pool entry is issuable once, so capacity is the pool size.
		req.MaxCount = len(req.PromoUnique)
	default:
		return invalidInput("mode must be COMMON or UNIQUE")
	}

	if req.ActiveFrom != nil && req.ActiveUntil != nil && req.ActiveUntil.Before(*req.ActiveFrom) {
		return invalidInput("active_until must not precede active_from")
	}
	return nil
}

func validateTarget(target *model.Target) error {
	if target.AgeFrom != nil && (*target.AgeFrom < 0 || *target.AgeFrom > 100) {
		return invalidInput("target.age_from must be between 0 and 100")
	}
	if target.AgeUntil != nil && (*target.AgeUntil < 0 || *target.AgeUntil > 100) {
		return invalidInput("target.age_until must be between 0 and 100")
	}
	if target.AgeFrom != nil && target.AgeUntil != nil && *target.AgeFrom > *target.AgeUntil {
		return invalidInput("target.age_from must not exceed target.age_until")
	}
	if target.Country != nil {
		if err := validateCountry(*target.Country); err != nil {
			return err
		}
	}
	if len(target.Categories) > maxCategories {
		return invalidInput("target.categories must hold at most %d entries", maxCategories)
	}
	for _, category := range target.Categories {
		if err := validateName("target category", category, 2, 20); err != nil {
			return err
		}
	}
	return nil
}
