package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

var _ repository.UserRepository = (*userRepository)(nil)

const userColumns = `
	id,
	name,
	surname,
	email,
	avatar_url,
	age,
	country,
	password_hash,
	created_at
`

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Country = strings.ToLower(user.Country)

	query := `
		INSERT INTO users (
			id, name, surname, email, avatar_url,
			age, country, password_hash, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Surname,
		user.Email,
		user.AvatarURL,
		user.Age,
		user.Country,
		user.PasswordHash,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.Country = strings.ToLower(user.Country)

	query := `
		UPDATE users
		SET name = $2,
			surname = $3,
			avatar_url = $4,
			age = $5,
			country = $6,
			password_hash = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Surname,
		user.AvatarURL,
		user.Age,
		user.Country,
		user.PasswordHash,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func scanUser(src rowScanner) (*model.User, error) {
	user := &model.User{}
	err := src.Scan(
		&user.ID,
		&user.Name,
		&user.Surname,
		&user.Email,
		&user.AvatarURL,
		&user.Age,
		&user.Country,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
