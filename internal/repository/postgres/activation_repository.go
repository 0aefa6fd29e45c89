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

type activationRepository struct {
	pool *pgxpool.Pool
}

func NewActivationRepository(pool *pgxpool.Pool) repository.ActivationRepository {
	return &activationRepository{pool: pool}
}

var _ repository.ActivationRepository = (*activationRepository)(nil)

// ActivateCommon hands out the shared code while the promo still has capacity.
// The promo row is locked for the duration of the transaction, so the
// used_count check and bump cannot race with concurrent activations.
func (r *activationRepository) ActivateCommon(ctx context.Context, userID, promoID uuid.UUID, at time.Time) (string, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var (
		code      *string
		maxCount  int32
		usedCount int32
	)
	err = tx.QueryRow(
		ctx,
		`SELECT promo_common, max_count, used_count FROM promos WHERE id = $1 FOR UPDATE`,
		promoID,
	).Scan(&code, &maxCount, &usedCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if code == nil {
		return "", ErrNotFound
	}

	var existing string
	err = tx.QueryRow(
		ctx,
		`SELECT code FROM promo_activations WHERE user_id = $1 AND promo_id = $2`,
		userID, promoID,
	).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	if usedCount >= maxCount {
		return "", ErrCapacityExhausted
	}

	if _, err := tx.Exec(
		ctx,
		`UPDATE promos SET used_count = used_count + 1, active = active AND (used_count + 1 < max_count) WHERE id = $1`,
		promoID,
	); err != nil {
		return "", err
	}

	if _, err := tx.Exec(
		ctx,
		`INSERT INTO promo_activations (user_id, promo_id, code, date) VALUES ($1, $2, $3, $4)`,
		userID, promoID, *code, at,
	); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return *code, nil
}

// ActivateUnique claims the next unclaimed code from the pool. SKIP LOCKED
// lets concurrent activations of the same promo claim distinct rows without
// queueing behind each other; a losing racer for the same user rolls back its
// claim and re-reads the winner's code.
func (r *activationRepository) ActivateUnique(ctx context.Context, userID, promoID uuid.UUID, at time.Time) (string, error) {
	code, err := r.claimUnique(ctx, userID, promoID, at)
	if errors.Is(err, repository.ErrDuplicate) {
		activation, findErr := r.FindByUserAndPromo(ctx, userID, promoID)
		if findErr != nil {
			return "", findErr
		}
		return activation.Code, nil
	}
	return code, err
}

func (r *activationRepository) claimUnique(ctx context.Context, userID, promoID uuid.UUID, at time.Time) (string, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var existing string
	err = tx.QueryRow(
		ctx,
		`SELECT code FROM promo_activations WHERE user_id = $1 AND promo_id = $2`,
		userID, promoID,
	).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	var code string
	err = tx.QueryRow(
		ctx,
		`UPDATE promo_codes
		 SET claimed_by = $1, claimed_at = $2
		 WHERE id = (
			SELECT id FROM promo_codes
			WHERE promo_id = $3 AND claimed_by IS NULL
			ORDER BY ord
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING code`,
		userID, at, promoID,
	).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrCapacityExhausted
	}
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(
		ctx,
		`UPDATE promos SET used_count = used_count + 1, active = active AND (used_count + 1 < max_count) WHERE id = $1`,
		promoID,
	); err != nil {
		return "", err
	}

	tag, err := tx.Exec(
		ctx,
		`INSERT INTO promo_activations (user_id, promo_id, code, date)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, promo_id) DO NOTHING`,
		userID, promoID, code, at,
	)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		// Another request for the same user won the race. Rolling back
		// releases the claimed code and the counter bump.
		return "", ErrDuplicate
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return code, nil
}

func (r *activationRepository) FindByUserAndPromo(ctx context.Context, userID, promoID uuid.UUID) (*model.Activation, error) {
	activation := &model.Activation{}
	err := r.pool.QueryRow(
		ctx,
		`SELECT user_id, promo_id, code, date FROM promo_activations WHERE user_id = $1 AND promo_id = $2`,
		userID, promoID,
	).Scan(&activation.UserID, &activation.PromoID, &activation.Code, &activation.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return activation, nil
}

func (r *activationRepository) ActivatedByUser(ctx context.Context, userID uuid.UUID, promoIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	activated := make(map[uuid.UUID]bool, len(promoIDs))
	if len(promoIDs) == 0 {
		return activated, nil
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT promo_id FROM promo_activations WHERE user_id = $1 AND promo_id = ANY($2)`,
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
		activated[promoID] = true
	}
	return activated, rows.Err()
}

// History lists the promos a user has activated, most recent first. A promo
// appears once per activation record.
func (r *activationRepository) History(ctx context.Context, userID uuid.UUID, page repository.Pagination) ([]*model.Promo, int64, error) {
	limit, offset := normalizePagination(page)

	query := `SELECT ` + promoColumns + `
		FROM promo_activations pa
		JOIN promos p ON p.id = pa.promo_id
		JOIN companies c ON c.id = p.company_id
		WHERE pa.user_id = $1
		ORDER BY pa.date DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	promos := make([]*model.Promo, 0, limit)
	for rows.Next() {
		promo, scanErr := scanPromo(rows)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		promos = append(promos, promo)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM promo_activations WHERE user_id = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return promos, total, nil
}
