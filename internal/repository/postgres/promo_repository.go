package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

type promoRepository struct {
	pool *pgxpool.Pool
}

func NewPromoRepository(pool *pgxpool.Pool) repository.PromoRepository {
	return &promoRepository{pool: pool}
}

var _ repository.PromoRepository = (*promoRepository)(nil)

const promoColumns = `
	p.id,
	p.company_id,
	c.name,
	p.description,
	p.image_url,
	p.age_from,
	p.age_until,
	p.country,
	p.categories,
	p.max_count,
	p.active_from,
	p.active_until,
	p.mode,
	p.promo_common,
	p.like_count,
	p.used_count,
	p.comment_count,
	p.active,
	p.created_at
`

const promoFrom = ` FROM promos p JOIN companies c ON c.id = p.company_id`

func (r *promoRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Promo, error) {
	query := `SELECT ` + promoColumns + `,
		ARRAY(SELECT pc.code FROM promo_codes pc WHERE pc.promo_id = p.id ORDER BY pc.ord)` +
		promoFrom + ` WHERE p.id = $1`

	promo := &model.Promo{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		promoScanDests(promo, &promo.PromoUnique)...,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return promo, nil
}

func (r *promoRepository) Create(ctx context.Context, promo *model.Promo) error {
	if promo.ID == uuid.Nil {
		promo.ID = uuid.New()
	}
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO promos (
			id, company_id, description, image_url,
			age_from, age_until, country, categories,
			max_count, active_from, active_until, mode,
			promo_common, like_count, used_count, comment_count,
			active, created_at
		)
		VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18
		)
	`

	if _, err := tx.Exec(
		ctx,
		query,
		promo.ID,
		promo.CompanyID,
		promo.Description,
		promo.ImageURL,
		promo.Target.AgeFrom,
		promo.Target.AgeUntil,
		lowerPtr(promo.Target.Country),
		promo.Target.Categories,
		promo.MaxCount,
		promo.ActiveFrom,
		promo.ActiveUntil,
		promo.Mode,
		promo.PromoCommon,
		promo.LikeCount,
		promo.UsedCount,
		promo.CommentCount,
		promo.Active,
		promo.CreatedAt,
	); err != nil {
		return err
	}

	if promo.Mode == model.PromoModeUnique {
		batch := &pgx.Batch{}
		for ord, code := range promo.PromoUnique {
			batch.Queue(
				`INSERT INTO promo_codes (id, promo_id, ord, code) VALUES ($1, $2, $3, $4)`,
				uuid.New(), promo.ID, ord, code,
			)
		}
		results := tx.SendBatch(ctx, batch)
		for range promo.PromoUnique {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *promoRepository) Update(ctx context.Context, promo *model.Promo) error {
	query := `
		UPDATE promos
		SET description = $2,
			image_url = $3,
			age_from = $4,
			age_until = $5,
			country = $6,
			categories = $7,
			max_count = $8,
			active_from = $9,
			active_until = $10,
			active = $11
		WHERE id = $1
	`

	tag, err := r.pool.Exec(
		ctx,
		query,
		promo.ID,
		promo.Description,
		promo.ImageURL,
		promo.Target.AgeFrom,
		promo.Target.AgeUntil,
		lowerPtr(promo.Target.Country),
		promo.Target.Categories,
		promo.MaxCount,
		promo.ActiveFrom,
		promo.ActiveUntil,
		promo.Active,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

// List composes the company listing from optional predicates instead of
// dispatching over hand-written query variants.
func (r *promoRepository) List(ctx context.Context, filter repository.PromoListFilter) ([]*model.Promo, int64, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args := []any{filter.CompanyID}
	conditions := []string{"p.company_id = $1"}

	if len(filter.Countries) > 0 {
		lowered := make([]string, len(filter.Countries))
		for i, country := range filter.Countries {
			lowered[i] = strings.ToLower(country)
		}
		args = append(args, lowered)
		conditions = append(conditions,
			fmt.Sprintf("(p.country IS NULL OR p.country = ANY($%d))", len(args)))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")
	orderBy := promoOrderClause(filter.SortBy)

	countArgs := make([]any, len(args))
	copy(countArgs, args)

	args = append(args, limit, offset)
	query := `SELECT ` + promoColumns + promoFrom + where + orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	promos, err := r.queryPromos(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := `SELECT COUNT(*)` + promoFrom + where
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return promos, total, nil
}

// Feed lists promos visible to a user in the given country. Promos without a
// country bound are visible everywhere.
func (r *promoRepository) Feed(ctx context.Context, filter repository.FeedFilter) ([]*model.Promo, int64, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args := []any{strings.ToLower(filter.Country)}
	conditions := []string{"(p.country IS NULL OR p.country = $1)"}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(p.categories) category WHERE lower(category) = lower($%d))",
			len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("p.active = $%d", len(args)))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	countArgs := make([]any, len(args))
	copy(countArgs, args)

	args = append(args, limit, offset)
	query := `SELECT ` + promoColumns + promoFrom + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	promos, err := r.queryPromos(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := `SELECT COUNT(*)` + promoFrom + where
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return promos, total, nil
}

func (r *promoRepository) CountryStats(ctx context.Context, promoID uuid.UUID) ([]model.CountryActivations, error) {
	query := `
		SELECT u.country, COUNT(*)
		FROM promo_activations pa
		JOIN users u ON u.id = pa.user_id
		WHERE pa.promo_id = $1
		GROUP BY u.country
		ORDER BY u.country
	`

	rows, err := r.pool.Query(ctx, query, promoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]model.CountryActivations, 0, 8)
	for rows.Next() {
		var stat model.CountryActivations
		if err := rows.Scan(&stat.Country, &stat.Activations); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (r *promoRepository) RefreshActive(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE promos
		SET active = (
			(active_from IS NULL OR active_from <= $1)
			AND (active_until IS NULL OR active_until >= $1)
			AND used_count < max_count
		)
	`
	if _, err := r.pool.Exec(ctx, query, now); err != nil {
		return 0, err
	}

	var active int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM promos WHERE active`).Scan(&active); err != nil {
		return 0, err
	}
	return active, nil
}

func (r *promoRepository) queryPromos(ctx context.Context, query string, args ...any) ([]*model.Promo, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	promos := make([]*model.Promo, 0, 16)
	for rows.Next() {
		promo, scanErr := scanPromo(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		promos = append(promos, promo)
	}
	return promos, rows.Err()
}

func promoOrderClause(sortBy repository.PromoSortBy) string {
	switch sortBy {
	case repository.PromoSortByActiveFrom:
		return " ORDER BY p.active_from DESC NULLS LAST"
	case repository.PromoSortByActiveUntil:
		return " ORDER BY p.active_until DESC NULLS LAST"
	default:
		return " ORDER BY p.created_at DESC"
	}
}

func promoScanDests(promo *model.Promo, extra ...any) []any {
	dests := []any{
		&promo.ID,
		&promo.CompanyID,
		&promo.CompanyName,
		&promo.Description,
		&promo.ImageURL,
		&promo.Target.AgeFrom,
		&promo.Target.AgeUntil,
		&promo.Target.Country,
		&promo.Target.Categories,
		&promo.MaxCount,
		&promo.ActiveFrom,
		&promo.ActiveUntil,
		&promo.Mode,
		&promo.PromoCommon,
		&promo.LikeCount,
		&promo.UsedCount,
		&promo.CommentCount,
		&promo.Active,
		&promo.CreatedAt,
	}
	return append(dests, extra...)
}

func scanPromo(src rowScanner) (*model.Promo, error) {
	promo := &model.Promo{}
	if err := src.Scan(promoScanDests(promo)...); err != nil {
		return nil, err
	}
	return promo, nil
}

func lowerPtr(value *string) *string {
	if value == nil {
		return nil
	}
	lowered := strings.ToLower(*value)
	return &lowered
}
