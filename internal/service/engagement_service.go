package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

const (
	minCommentLen = 10
	maxCommentLen = 1000
)

type EngagementService struct {
	promoRepo   repository.PromoRepository
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	logger      *zap.Logger
}

func NewEngagementService(
	promoRepo repository.PromoRepository,
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	logger *zap.Logger,
) *EngagementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngagementService{
		promoRepo:   promoRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		logger:      logger,
	}
}

func (s *EngagementService) Like(ctx context.Context, userID, promoID uuid.UUID) error {
	if err := s.ensurePromoExists(ctx, promoID); err != nil {
		return err
	}
	return s.likeRepo.Add(ctx, userID, promoID)
}

func (s *EngagementService) Unlike(ctx context.Context, userID, promoID uuid.UUID) error {
	if err := s.ensurePromoExists(ctx, promoID); err != nil {
		return err
	}
	return s.likeRepo.Remove(ctx, userID, promoID)
}

func (s *EngagementService) AddComment(ctx context.Context, authorID, promoID uuid.UUID, text string) (*model.Comment, error) {
	if err := validateName("text", text, minCommentLen, maxCommentLen); err != nil {
		return nil, err
	}
	if err := s.ensurePromoExists(ctx, promoID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PromoID:  promoID,
		AuthorID: authorID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// The stored row lacks the denormalized author block; re-read it.
	return s.GetComment(ctx, promoID, comment.ID)
}

func (s *EngagementService) ListComments(ctx context.Context, promoID uuid.UUID, page repository.Pagination) ([]*model.Comment, int64, error) {
	if err := s.ensurePromoExists(ctx, promoID); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListByPromo(ctx, promoID, page)
}

func (s *EngagementService) GetComment(ctx context.Context, promoID, commentID uuid.UUID) (*model.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, promoID, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCommentNotFound
	}
	return comment, err
}

func (s *EngagementService) EditComment(ctx context.Context, authorID, promoID, commentID uuid.UUID, text string) (*model.Comment, error) {
	if err := validateName("text", text, minCommentLen, maxCommentLen); err != nil {
		return nil, err
	}
	if _, err := s.GetComment(ctx, promoID, commentID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.UpdateText(ctx, commentID, authorID, text)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrCommentNotFound
	case errors.Is(err, repository.ErrNotOwner):
		return nil, ErrNotOwner
	}
	return comment, err
}

func (s *EngagementService) DeleteComment(ctx context.Context, authorID, promoID, commentID uuid.UUID) error {
	err := s.commentRepo.Delete(ctx, promoID, commentID, authorID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrCommentNotFound
	case errors.Is(err, repository.ErrNotOwner):
		return ErrNotOwner
	}
	return err
}

func (s *EngagementService) ensurePromoExists(ctx context.Context, promoID uuid.UUID) error {
	_, err := s.promoRepo.FindByID(ctx, promoID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPromoNotFound
	}
	return err
}
