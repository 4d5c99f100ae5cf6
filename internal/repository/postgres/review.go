package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dmarkov/product_catalog/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository for PostgreSQL
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create persists a new review
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, product_id, user_id, rating, comment, created_at, updated_at
	`

	var stored domain.Review
	err := r.db.GetContext(
		ctx,
		&stored,
		query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// FindByProductID retrieves all reviews for a product, newest first
func (r *ReviewRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`

	var reviews []*domain.Review
	if err := r.db.SelectContext(ctx, &reviews, query, productID); err != nil {
		return nil, err
	}

	return reviews, nil
}

// FindByID retrieves a review by id
func (r *ReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	var review domain.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &review, nil
}

// Update replaces the stored review with the given entity
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, updated_at = $3
		WHERE id = $4
		RETURNING id, product_id, user_id, rating, comment, created_at, updated_at
	`

	var stored domain.Review
	err := r.db.GetContext(
		ctx,
		&stored,
		query,
		review.Rating,
		review.Comment,
		review.UpdatedAt,
		review.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &stored, nil
}

// Delete removes a review, reporting whether a record was removed
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM reviews WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// AverageRatingByProductID aggregates the mean rating in the store.
// ROUND(numeric, 2) rounds half away from zero, matching domain.AverageRating.
func (r *ReviewRepository) AverageRatingByProductID(ctx context.Context, productID uuid.UUID) (float64, error) {
	query := `
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0)
		FROM reviews
		WHERE product_id = $1
	`

	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, productID); err != nil {
		return 0, err
	}

	return avg, nil
}
