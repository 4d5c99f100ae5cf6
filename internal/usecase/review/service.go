package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmarkov/product_catalog/internal/domain"
	"github.com/dmarkov/product_catalog/internal/pkg/logger"
)

// EventPublisher defines the interface for publishing review events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Cache defines the review cache operations the service depends on
type Cache interface {
	GetReviewsList(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	SetReviewsList(ctx context.Context, productID uuid.UUID, reviews []*domain.Review) error
	GetAverageRating(ctx context.Context, productID uuid.UUID) (float64, error)
	SetAverageRating(ctx context.Context, productID uuid.UUID, rating float64) error
	InvalidateProduct(ctx context.Context, productID uuid.UUID) error
}

// ReviewEvent represents an event related to a review
type ReviewEvent struct {
	EventType string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	ProductID uuid.UUID      `json:"product_id"`
	Review    *domain.Review `json:"review"`
}

// EventsSubject is the NATS subject review events are published to
const EventsSubject = "reviews.events"

// Service orchestrates review business operations with caching and event
// publishing
type Service struct {
	repo        domain.ReviewRepository
	productRepo domain.ProductRepository
	cache       Cache
	publisher   EventPublisher
	logger      *logger.Logger
}

// NewService creates a new review service
func NewService(
	repo domain.ReviewRepository,
	productRepo domain.ProductRepository,
	cache Cache,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		productRepo: productRepo,
		cache:       cache,
		publisher:   publisher,
		logger:      log,
	}
}

// CreateInput carries the raw fields for a new review
type CreateInput struct {
	ProductID uuid.UUID
	UserID    string
	Rating    int
	Comment   string
}

// Create validates and persists a new review. The referenced product must
// exist at the time of the call; the check and the insert are not atomic, a
// concurrent product delete makes the insert fail on the FK instead.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Review, error) {
	if _, err := s.productRepo.FindByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found for review: %s", in.ProductID)
			return nil, err
		}
		s.logger.Error("Failed to check product existence", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	review, err := domain.NewReview(in.ProductID, in.UserID, in.Rating, in.Comment)
	if err != nil {
		s.logger.Error("Review validation failed", err)
		return nil, err
	}

	stored, err := s.repo.Create(ctx, review)
	if err != nil {
		s.logger.Error("Failed to create review", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	s.invalidateCache(ctx, stored.ProductID)
	s.publishEvent("review.created", stored)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  stored.ID,
		"product_id": stored.ProductID,
		"rating":     stored.Rating,
	}).Info("Review created successfully")

	return stored, nil
}

// GetByID retrieves a review by id
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Review not found: %s", id)
			return nil, err
		}
		s.logger.Error("Failed to get review", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	return review, nil
}

// ListByProduct retrieves all reviews for a product, cache first
func (s *Service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	reviews, err := s.cache.GetReviewsList(ctx, productID)
	if err == nil {
		s.logger.Debugf("Cache hit for product %s reviews", productID)
		return reviews, nil
	}

	reviews, err = s.repo.FindByProductID(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to list reviews by product", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	if reviews == nil {
		reviews = []*domain.Review{}
	}

	if err := s.cache.SetReviewsList(ctx, productID, reviews); err != nil {
		s.logger.Warnf("Failed to cache reviews for product %s: %v", productID, err)
	}

	return reviews, nil
}

// AverageRating returns the product's mean rating rounded to two decimals.
// 0 means "no reviews yet" and is a valid result, not an error.
func (s *Service) AverageRating(ctx context.Context, productID uuid.UUID) (float64, error) {
	rating, err := s.cache.GetAverageRating(ctx, productID)
	if err == nil {
		s.logger.Debugf("Cache hit for product %s rating", productID)
		return rating, nil
	}

	rating, err = s.repo.AverageRatingByProductID(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to compute average rating", err)
		return 0, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	if err := s.cache.SetAverageRating(ctx, productID, rating); err != nil {
		s.logger.Warnf("Failed to cache rating for product %s: %v", productID, err)
	}

	return rating, nil
}

// Update merges the patch onto the stored review, re-validates and persists
// the result
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch domain.ReviewPatch) (*domain.Review, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to get review for update", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	merged, err := existing.Apply(patch)
	if err != nil {
		s.logger.Error("Review validation failed", err)
		return nil, err
	}

	stored, err := s.repo.Update(ctx, merged)
	if err != nil {
		s.logger.Error("Failed to update review", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	s.invalidateCache(ctx, stored.ProductID)
	s.publishEvent("review.updated", stored)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  stored.ID,
		"product_id": stored.ProductID,
		"rating":     stored.Rating,
	}).Info("Review updated successfully")

	return stored, nil
}

// Delete removes a review by id
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.logger.Error("Failed to get review for deletion", err)
		return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete review", err)
		return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}
	if !removed {
		return fmt.Errorf("failed to delete review: %w", domain.ErrNotFound)
	}

	s.invalidateCache(ctx, review.ProductID)
	s.publishEvent("review.deleted", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  id,
		"product_id": review.ProductID,
	}).Info("Review deleted successfully")

	return nil
}

// invalidateCache drops cached lists and ratings for a product (best-effort)
func (s *Service) invalidateCache(ctx context.Context, productID uuid.UUID) {
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", productID, err)
	}
}

// publishEvent publishes a review event without blocking the caller
func (s *Service) publishEvent(eventType string, review *domain.Review) {
	event := ReviewEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ProductID: review.ProductID,
		Review:    review,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}

	go func() {
		if err := s.publisher.Publish(context.Background(), EventsSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", review.ID)
		}
	}()
}
