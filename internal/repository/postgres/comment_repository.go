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

type commentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) repository.CommentRepository {
	return &commentRepository{pool: pool}
}

var _ repository.CommentRepository = (*commentRepository)(nil)

const commentColumns = `
	pc.id,
	pc.promo_id,
	pc.author_id,
	pc.text,
	pc.date,
	u.name,
	u.surname,
	u.avatar_url
`

const commentFrom = ` FROM promo_comments pc JOIN users u ON u.id = pc.author_id`

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.Date.IsZero() {
		comment.Date = time.Now().UTC()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(
		ctx,
		`INSERT INTO promo_comments (id, promo_id, author_id, text, date) VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.PromoID, comment.AuthorID, comment.Text, comment.Date,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`UPDATE promos SET comment_count = comment_count + 1 WHERE id = $1`,
		comment.PromoID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *commentRepository) FindByID(ctx context.Context, promoID, commentID uuid.UUID) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + commentFrom + ` WHERE pc.id = $1 AND pc.promo_id = $2`

	comment, err := scanComment(r.pool.QueryRow(ctx, query, commentID, promoID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *commentRepository) ListByPromo(ctx context.Context, promoID uuid.UUID, page repository.Pagination) ([]*model.Comment, int64, error) {
	limit, offset := normalizePagination(page)

	query := `SELECT ` + commentColumns + commentFrom +
		` WHERE pc.promo_id = $1 ORDER BY pc.date DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, promoID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0, limit)
	for rows.Next() {
		comment, scanErr := scanComment(rows)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM promo_comments WHERE promo_id = $1`,
		promoID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) UpdateText(ctx context.Context, commentID, authorID uuid.UUID, text string) (*model.Comment, error) {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE promo_comments SET text = $3 WHERE id = $1 AND author_id = $2`,
		commentID, authorID, text,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, r.classifyMiss(ctx, commentID)
	}

	query := `SELECT ` + commentColumns + commentFrom + ` WHERE pc.id = $1`
	comment, err := scanComment(r.pool.QueryRow(ctx, query, commentID))
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, promoID, commentID, authorID uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(
		ctx,
		`DELETE FROM promo_comments WHERE id = $1 AND promo_id = $2 AND author_id = $3`,
		commentID, promoID, authorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMiss(ctx, commentID)
	}

	if _, err := tx.Exec(
		ctx,
		`UPDATE promos SET comment_count = comment_count - 1 WHERE id = $1 AND comment_count > 0`,
		promoID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// classifyMiss tells a missing comment apart from one owned by someone else,
// so handlers can answer 404 vs 403.
func (r *commentRepository) classifyMiss(ctx context.Context, commentID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM promo_comments WHERE id = $1)`,
		commentID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrNotOwner
	}
	return ErrNotFound
}

func scanComment(src rowScanner) (*model.Comment, error) {
	comment := &model.Comment{}
	err := src.Scan(
		&comment.ID,
		&comment.PromoID,
		&comment.AuthorID,
		&comment.Text,
		&comment.Date,
		&comment.Author.Name,
		&comment.Author.Surname,
		&comment.Author.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return comment, nil
}
