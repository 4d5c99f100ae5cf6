package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmarkov/product_catalog/internal/pkg/logger"
)

// RatingSource supplies the authoritative average rating for a product
type RatingSource interface {
	AverageRatingByProductID(ctx context.Context, productID uuid.UUID) (float64, error)
}

// RatingStore receives freshly computed averages
type RatingStore interface {
	SetAverageRating(ctx context.Context, productID uuid.UUID, rating float64) error
}

// Refresher recomputes a product's average rating from the repository and
// warms the cache with the result. Full recalculation keeps the worker
// self-correcting: any missed event is repaired by the next one.
type Refresher struct {
	source RatingSource
	store  RatingStore
	logger *logger.Logger
}

// NewRefresher creates a new rating refresher
func NewRefresher(source RatingSource, store RatingStore, log *logger.Logger) *Refresher {
	return &Refresher{
		source: source,
		store:  store,
		logger: log,
	}
}

// Refresh recomputes and caches the average rating for a product
func (r *Refresher) Refresh(ctx context.Context, productID uuid.UUID) error {
	rating, err := r.source.AverageRatingByProductID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to compute average rating: %w", err)
	}

	if err := r.store.SetAverageRating(ctx, productID, rating); err != nil {
		return fmt.Errorf("failed to store average rating: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"product_id": productID.String(),
		"rating":     rating,
	}).Info("Refreshed cached product rating")

	return nil
}
