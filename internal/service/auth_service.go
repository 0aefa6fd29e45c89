package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/NikSneMC/prod-2025-promo-api/internal/auth"
	"github.com/NikSneMC/prod-2025-promo-api/internal/metrics"
	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
	"github.com/NikSneMC/prod-2025-promo-api/pkg/token"
)

type AuthService struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	tokens      *auth.TokenStore
	logger      *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	tokens *auth.TokenStore,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		tokens:      tokens,
		logger:      logger,
	}
}

type SignUpUserRequest struct {
	Name      string
	Surname   string
	Email     string
	AvatarURL *string
	Age       int
	Country   string
	Password  string
}

type SignUpCompanyRequest struct {
	Name     string
	Email    string
	Password string
}

func (s *AuthService) SignUpUser(ctx context.Context, req SignUpUserRequest) (*model.User, string, error) {
	if err := s.validateUserSignUp(req); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        strings.ToLower(req.Email),
		AvatarURL:    req.AvatarURL,
		Age:          req.Age,
		Country:      strings.ToLower(req.Country),
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	encoded, err := s.openSession(ctx, token.KindUser, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return user, encoded, nil
}

func (s *AuthService) SignInUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.openSession(ctx, token.KindUser, user.ID)
}

func (s *AuthService) SignUpCompany(ctx context.Context, req SignUpCompanyRequest) (*model.Company, string, error) {
	if err := validateName("name", req.Name, 5, 50); err != nil {
		return nil, "", err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, "", err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	company := &model.Company{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
	}

	if err := s.companyRepo.Create(ctx, company); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	encoded, err := s.openSession(ctx, token.KindCompany, company.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("company signed up", zap.String("company_id", company.ID.String()))
	return company, encoded, nil
}

func (s *AuthService) SignInCompany(ctx context.Context, email, password string) (string, error) {
	company, err := s.companyRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.openSession(ctx, token.KindCompany, company.ID)
}

// openSession mints a fresh credential and registers it. Registration keys by
// subject, so signing in again invalidates the previous token.
func (s *AuthService) openSession(ctx context.Context, kind token.Kind, subject uuid.UUID) (string, error) {
	cred := token.New(kind, subject)
	if _, err := s.tokens.Issue(ctx, cred); err != nil {
		return "", err
	}
	metrics.IncTokensIssued(string(kind))
	return cred.Encode(), nil
}

func (s *AuthService) validateUserSignUp(req SignUpUserRequest) error {
	if err := validateName("name", req.Name, 1, 100); err != nil {
		return err
	}
	if err := validateName("surname", req.Surname, 1, 120); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if err := validateOptionalURL("avatar_url", req.AvatarURL); err != nil {
		return err
	}
	if req.Age < 0 || req.Age > 100 {
		return invalidInput("age must be between 0 and 100")
	}
	if err := validateCountry(req.Country); err != nil {
		return err
	}
	return validatePassword(req.Password)
}
