package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NikSneMC/prod-2025-promo-api/internal/metrics"
	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

// FraudChecker is the decision surface of the antifraud client. false means
// deny, whatever the reason.
type FraudChecker interface {
	Ask(ctx context.Context, email string, promoID uuid.UUID) (bool, error)
}

// RedemptionService issues promo codes. Gates run in a fixed order: promo
// exists, window open, capacity left, user targeted, fraud check passed.
// The fraud provider is only consulted after the cheap local gates, so a
// miss on any of them costs no network call.
type RedemptionService struct {
	userRepo       repository.UserRepository
	promoRepo      repository.PromoRepository
	activationRepo repository.ActivationRepository
	fraud          FraudChecker
	logger         *zap.Logger
}

func NewRedemptionService(
	userRepo repository.UserRepository,
	promoRepo repository.PromoRepository,
	activationRepo repository.ActivationRepository,
	fraud FraudChecker,
	logger *zap.Logger,
) *RedemptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedemptionService{
		userRepo:       userRepo,
		promoRepo:      promoRepo,
		activationRepo: activationRepo,
		fraud:          fraud,
		logger:         logger,
	}
}

func (s *RedemptionService) Activate(ctx context.Context, userID, promoID uuid.UUID) (string, error) {
	started := time.Now()
	code, err := s.activate(ctx, userID, promoID)
	metrics.ObserveActivationDuration(time.Since(started))
	metrics.IncActivation(outcomeLabel(err))
	return code, err
}

func (s *RedemptionService) activate(ctx context.Context, userID, promoID uuid.UUID) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	promo, err := s.promoRepo.FindByID(ctx, promoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPromoNotFound
		}
		return "", err
	}

	now := time.Now().UTC()
	if promo.ActiveFrom != nil && now.Before(*promo.ActiveFrom) {
		return "", ErrPromoExpired
	}
	if promo.ActiveUntil != nil && now.After(*promo.ActiveUntil) {
		return "", ErrPromoExpired
	}
	if promo.UsedCount >= promo.MaxCount {
		return "", ErrNoCodesLeft
	}

	if !user.MatchesTarget(promo.Target) {
		return "", ErrNotPromoTarget
	}

	allowed, err := s.fraud.Ask(ctx, user.Email, promoID)
	if err != nil {
		return "", err
	}
	if !allowed {
		s.logger.Info("redemption denied by fraud check",
			zap.String("user_id", userID.String()),
			zap.String("promo_id", promoID.String()),
		)
		return "", ErrFraudDetected
	}

	code, err := s.issue(ctx, promo, userID, now)
	if err != nil {
		return "", err
	}

	s.logger.Info("promo activated",
		zap.String("user_id", userID.String()),
		zap.String("promo_id", promoID.String()),
	)
	return code, nil
}

// issue runs the transactional claim, retrying once when a concurrent
// activation races it. The pre-checked capacity may be gone by the time the
// transaction runs; the store is authoritative.
func (s *RedemptionService) issue(ctx context.Context, promo *model.Promo, userID uuid.UUID, at time.Time) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		code, err := s.issueOnce(ctx, promo, userID, at)
		switch {
		case err == nil:
			return code, nil
		case errors.Is(err, repository.ErrCapacityExhausted):
			return "", ErrNoCodesLeft
		case errors.Is(err, repository.ErrNotFound):
			return "", ErrPromoNotFound
		}
		lastErr = err
		s.logger.Warn("activation attempt failed, retrying",
			zap.String("promo_id", promo.ID.String()),
			zap.Error(err),
		)
	}
	return "", lastErr
}

func (s *RedemptionService) issueOnce(ctx context.Context, promo *model.Promo, userID uuid.UUID, at time.Time) (string, error) {
	if promo.Mode == model.PromoModeUnique {
		return s.activationRepo.ActivateUnique(ctx, userID, promo.ID, at)
	}
	return s.activationRepo.ActivateCommon(ctx, userID, promo.ID, at)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "issued"
	case errors.Is(err, ErrPromoExpired):
		return "expired"
	case errors.Is(err, ErrNoCodesLeft):
		return "no_codes_left"
	case errors.Is(err, ErrNotPromoTarget):
		return "not_target"
	case errors.Is(err, ErrFraudDetected):
		return "fraud"
	case errors.Is(err, ErrPromoNotFound), errors.Is(err, ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}
