package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

type companyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) repository.CompanyRepository {
	return &companyRepository{pool: pool}
}

var _ repository.CompanyRepository = (*companyRepository)(nil)

const companyColumns = `
	id,
	name,
	email,
	password_hash,
	created_at
`

func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	company, err := scanCompany(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (r *companyRepository) FindByEmail(ctx context.Context, email string) (*model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE lower(email) = lower($1)`
	company, err := scanCompany(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO companies (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(
		ctx,
		query,
		company.ID,
		company.Name,
		company.Email,
		company.PasswordHash,
		company.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func scanCompany(src rowScanner) (*model.Company, error) {
	company := &model.Company{}
	err := src.Scan(
		&company.ID,
		&company.Name,
		&company.Email,
		&company.PasswordHash,
		&company.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return company, nil
}
