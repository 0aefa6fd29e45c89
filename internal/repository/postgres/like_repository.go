package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

type likeRepository struct {
	pool *pgxpool.Pool
}

func NewLikeRepository(pool *pgxpool.Pool) repository.LikeRepository {
	return &likeRepository{pool: pool}
}

var _ repository.LikeRepository = (*likeRepository)(nil)

// Add records a like. Re-liking is a no-op and leaves the counter untouched.
func (r *likeRepository) Add(ctx context.Context, userID, promoID uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(
		ctx,
		`INSERT INTO promo_likes (user_id, promo_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, promoID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(
			ctx,
			`UPDATE promos SET like_count = like_count + 1 WHERE id = $1`,
			promoID,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *likeRepository) LikedByUser(ctx context.Context, userID uuid.UUID, promoIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(promoIDs))
	if len(promoIDs) == 0 {
		return liked, nil
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT promo_id FROM promo_likes WHERE user_id = $1 AND promo_id = ANY($2)`,
		userID, promoIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var promoID uuid.UUID
		if err := rows.Scan(&promoID); err != nil {
			return nil, err
		}
		liked[promoID] = true
	}
	return liked, rows.Err()
}

// Remove deletes a like. Removing a like that was never set is a no-op.
func (r *likeRepository) Remove(ctx context.Context, userID, promoID uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(
		ctx,
		`DELETE FROM promo_likes WHERE user_id = $1 AND promo_id = $2`,
		userID, promoID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(
			ctx,
			`UPDATE promos SET like_count = like_count - 1 WHERE id = $1 AND like_count > 0`,
			promoID,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
