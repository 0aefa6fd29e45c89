package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrDuplicate         = repository.ErrDuplicate
	ErrCapacityExhausted = repository.ErrCapacityExhausted
	ErrNotOwner          = repository.ErrNotOwner
)

type rowScanner interface {
	Scan(dest ...any) error
}

func normalizePagination(page repository.Pagination) (int32, int32) {
	limit := page.Limit
	offset := page.Offset

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

func ensureAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
