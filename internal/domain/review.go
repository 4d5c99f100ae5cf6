package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Review represents a product review. UserID is an opaque caller-supplied
// identifier; no identity verification is performed at this layer.
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewReview builds a validated review. It does not verify that the product
// exists; that check needs the repository and belongs to the use-case layer.
func NewReview(productID uuid.UUID, userID string, rating int, comment string) (*Review, error) {
	now := time.Now()

	r := &Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks review invariants in order: productId, userId, rating,
// comment. The first violated rule determines the reported reason.
func (r *Review) Validate() error {
	if r.ProductID == uuid.Nil {
		return newValidationError("productId missing")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return newValidationError("userId missing")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return newValidationError("rating out of range [1,5]")
	}
	if strings.TrimSpace(r.Comment) == "" {
		return newValidationError("comment empty")
	}
	return nil
}

// ReviewPatch carries the updatable fields of a review. Nil fields are left
// unchanged by Apply.
type ReviewPatch struct {
	Rating  *int
	Comment *string
}

// Apply merges the patch onto a copy of the review, stamps UpdatedAt and
// re-validates. The receiver is never mutated.
func (r *Review) Apply(patch ReviewPatch) (*Review, error) {
	merged := *r

	if patch.Rating != nil {
		merged.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		merged.Comment = *patch.Comment
	}
	merged.UpdatedAt = time.Now()

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	return &merged, nil
}

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	// Create persists a new review and returns the stored entity
	Create(ctx context.Context, review *Review) (*Review, error)

	// FindByProductID retrieves all reviews for a product, newest first
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]*Review, error)

	// FindByID retrieves a review by id
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// Update replaces the stored review with the given entity
	Update(ctx context.Context, review *Review) (*Review, error)

	// Delete removes a review, reporting whether a record was removed
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// AverageRatingByProductID computes the product's mean rating rounded to
	// two decimals, 0 when the product has no reviews. Must agree with
	// AverageRating over FindByProductID for the same data.
	AverageRatingByProductID(ctx context.Context, productID uuid.UUID) (float64, error)
}
