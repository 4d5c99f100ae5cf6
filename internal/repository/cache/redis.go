package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmarkov/product_catalog/internal/domain"
)

// RedisCache caches per-product review lists and average ratings
type RedisCache struct {
	client           *redis.Client
	averageRatingTTL time.Duration
	reviewsListTTL   time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, averageRatingTTL, reviewsListTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:           client,
		averageRatingTTL: averageRatingTTL,
		reviewsListTTL:   reviewsListTTL,
	}
}

func (c *RedisCache) averageRatingKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:rating", productID.String())
}

func (c *RedisCache) reviewsListKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:reviews", productID.String())
}

// GetAverageRating retrieves a cached average rating.
// Returns domain.ErrNotFound on a cache miss.
func (c *RedisCache) GetAverageRating(ctx context.Context, productID uuid.UUID) (float64, error) {
	val, err := c.client.Get(ctx, c.averageRatingKey(productID)).Float64()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return val, nil
}

// SetAverageRating stores an average rating
func (c *RedisCache) SetAverageRating(ctx context.Context, productID uuid.UUID, rating float64) error {
	return c.client.Set(ctx, c.averageRatingKey(productID), rating, c.averageRatingTTL).Err()
}

// GetReviewsList retrieves a cached review list for a product.
// Returns domain.ErrNotFound on a cache miss.
func (c *RedisCache) GetReviewsList(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	val, err := c.client.Get(ctx, c.reviewsListKey(productID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var reviews []*domain.Review
	if err := json.Unmarshal([]byte(val), &reviews); err != nil {
		return nil, err
	}

	return reviews, nil
}

// SetReviewsList stores a review list for a product
func (c *RedisCache) SetReviewsList(ctx context.Context, productID uuid.UUID, reviews []*domain.Review) error {
	data, err := json.Marshal(reviews)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.reviewsListKey(productID), data, c.reviewsListTTL).Err()
}

// InvalidateProduct drops every cache entry belonging to a product.
// Called on any review write; stale entries would show wrong ratings.
func (c *RedisCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	return c.client.Unlink(ctx, c.averageRatingKey(productID), c.reviewsListKey(productID)).Err()
}
