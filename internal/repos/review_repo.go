package repos

import (
	"context"
	"fmt"

	"bookmood/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewWithAuthor = `
	SELECT r.id, r.user_id, r.book_title, r.rating, r.review, r.mood, r.created_at,
	       u.id AS "user.id", u.name AS "user.name", u.email AS "user.email"
	FROM reviews r
	JOIN users u ON u.id = r.user_id`

// Create inserts rv and fills in its id and timestamp.
func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	if rv.CreatedAt == "" {
		rv.CreatedAt = Now()
	}
	err := r.db.GetContext(ctx, &rv.ID, r.db.Rebind(`
	  INSERT INTO reviews(user_id, book_title, rating, review, mood, created_at)
	  VALUES(?, ?, ?, ?, ?, ?)
	  RETURNING id
	`), rv.UserID, rv.BookTitle, rv.Rating, rv.Body, rv.Mood, rv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// FindMany returns every review with its author, in insertion order.
func (r *ReviewRepo) FindMany(ctx context.Context) ([]domain.Review, error) {
	out := []domain.Review{}
	if err := r.db.SelectContext(ctx, &out, reviewWithAuthor+` ORDER BY r.id`); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

// FindUnique loads one review with its author, or ErrNotFound.
func (r *ReviewRepo) FindUnique(ctx context.Context, id int64) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.GetContext(ctx, &rv, r.db.Rebind(reviewWithAuthor+` WHERE r.id = ?`), id); err != nil {
		return nil, notFound(err)
	}
	return &rv, nil
}

// Delete removes the review; ErrNotFound if no row matched.
func (r *ReviewRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM reviews WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reviews`)
	return n, err
}
