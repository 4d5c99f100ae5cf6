package review

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmarkov/product_catalog/internal/domain"
	"github.com/dmarkov/product_catalog/internal/pkg/logger"
)

// MockReviewRepository is a mock implementation of domain.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) AverageRatingByProductID(ctx context.Context, productID uuid.UUID) (float64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(float64), args.Error(1)
}

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetReviewsList(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockCache) SetReviewsList(ctx context.Context, productID uuid.UUID, reviews []*domain.Review) error {
	args := m.Called(ctx, productID, reviews)
	return args.Error(0)
}

func (m *MockCache) GetAverageRating(ctx context.Context, productID uuid.UUID) (float64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockCache) SetAverageRating(ctx context.Context, productID uuid.UUID, rating float64) error {
	args := m.Called(ctx, productID, rating)
	return args.Error(0)
}

func (m *MockCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// capturingPublisher records published events for inspection
type capturingPublisher struct {
	events chan []byte
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{events: make(chan []byte, 8)}
}

func (p *capturingPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	p.events <- data
	return nil
}

func (p *capturingPublisher) waitForEvent(t *testing.T) ReviewEvent {
	t.Helper()
	select {
	case data := <-p.events:
		var event ReviewEvent
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return ReviewEvent{}
	}
}

type testDeps struct {
	repo        *MockReviewRepository
	productRepo *MockProductRepository
	cache       *MockCache
	publisher   *capturingPublisher
}

func newTestService() (*Service, *testDeps) {
	deps := &testDeps{
		repo:        new(MockReviewRepository),
		productRepo: new(MockProductRepository),
		cache:       new(MockCache),
		publisher:   newCapturingPublisher(),
	}
	service := NewService(deps.repo, deps.productRepo, deps.cache, deps.publisher, logger.New("test"))
	return service, deps
}

func TestService_Create_Success(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	deps.productRepo.On("FindByID", mock.Anything, productID).
		Return(&domain.Product{ID: productID, Name: "Widget", Price: 9.99}, nil)
	deps.repo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.ProductID == productID && r.UserID == "u1" && r.Rating == 5
	})).Return(&domain.Review{ID: uuid.New(), ProductID: productID, UserID: "u1", Rating: 5, Comment: "great"}, nil)
	deps.cache.On("InvalidateProduct", mock.Anything, productID).Return(nil)

	review, err := service.Create(context.Background(), CreateInput{
		ProductID: productID,
		UserID:    "u1",
		Rating:    5,
		Comment:   "great",
	})

	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	event := deps.publisher.waitForEvent(t)
	assert.Equal(t, "review.created", event.EventType)
	assert.Equal(t, productID, event.ProductID)

	deps.repo.AssertExpectations(t)
	deps.cache.AssertExpectations(t)
}

func TestService_Create_ProductNotFound(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	deps.productRepo.On("FindByID", mock.Anything, productID).Return(nil, domain.ErrNotFound)

	review, err := service.Create(context.Background(), CreateInput{
		ProductID: productID,
		UserID:    "u1",
		Rating:    5,
		Comment:   "great",
	})

	assert.Nil(t, review)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	deps.repo.AssertNotCalled(t, "Create")
}

func TestService_Create_InvalidRating(t *testing.T) {
	for _, rating := range []int{0, 6} {
		service, deps := newTestService()

		productID := uuid.New()
		deps.productRepo.On("FindByID", mock.Anything, productID).
			Return(&domain.Product{ID: productID, Name: "Widget", Price: 9.99}, nil)

		review, err := service.Create(context.Background(), CreateInput{
			ProductID: productID,
			UserID:    "u1",
			Rating:    rating,
			Comment:   "great",
		})

		assert.Nil(t, review)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		deps.repo.AssertNotCalled(t, "Create")
	}
}

func TestService_Create_EmptyComment(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	deps.productRepo.On("FindByID", mock.Anything, productID).
		Return(&domain.Product{ID: productID, Name: "Widget", Price: 9.99}, nil)

	review, err := service.Create(context.Background(), CreateInput{
		ProductID: productID,
		UserID:    "u1",
		Rating:    5,
		Comment:   "  ",
	})

	assert.Nil(t, review)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	deps.repo.AssertNotCalled(t, "Create")
}

func TestService_ListByProduct_CacheMiss(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	reviews := []*domain.Review{
		{ID: uuid.New(), ProductID: productID, UserID: "u1", Rating: 5, Comment: "great"},
	}
	deps.cache.On("GetReviewsList", mock.Anything, productID).Return(nil, domain.ErrNotFound)
	deps.repo.On("FindByProductID", mock.Anything, productID).Return(reviews, nil)
	deps.cache.On("SetReviewsList", mock.Anything, productID, reviews).Return(nil)

	result, err := service.ListByProduct(context.Background(), productID)

	require.NoError(t, err)
	assert.Equal(t, reviews, result)
	deps.cache.AssertExpectations(t)
}

func TestService_ListByProduct_CacheHit(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	reviews := []*domain.Review{
		{ID: uuid.New(), ProductID: productID, UserID: "u1", Rating: 4, Comment: "good"},
	}
	deps.cache.On("GetReviewsList", mock.Anything, productID).Return(reviews, nil)

	result, err := service.ListByProduct(context.Background(), productID)

	require.NoError(t, err)
	assert.Equal(t, reviews, result)
	deps.repo.AssertNotCalled(t, "FindByProductID")
}

func TestService_ListByProduct_NoReviews(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	deps.cache.On("GetReviewsList", mock.Anything, productID).Return(nil, domain.ErrNotFound)
	deps.repo.On("FindByProductID", mock.Anything, productID).Return([]*domain.Review{}, nil)
	deps.cache.On("SetReviewsList", mock.Anything, productID, mock.Anything).Return(nil)

	result, err := service.ListByProduct(context.Background(), productID)

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestService_AverageRating_CacheMiss(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	deps.cache.On("GetAverageRating", mock.Anything, productID).Return(0.0, domain.ErrNotFound)
	deps.repo.On("AverageRatingByProductID", mock.Anything, productID).Return(4.0, nil)
	deps.cache.On("SetAverageRating", mock.Anything, productID, 4.0).Return(nil)

	rating, err := service.AverageRating(context.Background(), productID)

	require.NoError(t, err)
	assert.Equal(t, 4.0, rating)
	deps.cache.AssertExpectations(t)
}

func TestService_AverageRating_NoReviewsIsZero(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	deps.cache.On("GetAverageRating", mock.Anything, productID).Return(0.0, domain.ErrNotFound)
	deps.repo.On("AverageRatingByProductID", mock.Anything, productID).Return(0.0, nil)
	deps.cache.On("SetAverageRating", mock.Anything, productID, 0.0).Return(nil)

	rating, err := service.AverageRating(context.Background(), productID)

	require.NoError(t, err)
	assert.Equal(t, 0.0, rating)
}

func TestService_AverageRating_CacheHit(t *testing.T) {
	service, deps := newTestService()

	productID := uuid.New()
	deps.cache.On("GetAverageRating", mock.Anything, productID).Return(4.5, nil)

	rating, err := service.AverageRating(context.Background(), productID)

	require.NoError(t, err)
	assert.Equal(t, 4.5, rating)
	deps.repo.AssertNotCalled(t, "AverageRatingByProductID")
}

func TestService_Update_Success(t *testing.T) {
	service, deps := newTestService()

	reviewID := uuid.New()
	productID := uuid.New()
	existing := &domain.Review{
		ID:        reviewID,
		ProductID: productID,
		UserID:    "u1",
		Rating:    5,
		Comment:   "great",
	}
	deps.repo.On("FindByID", mock.Anything, reviewID).Return(existing, nil)
	deps.repo.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Rating == 3 && r.Comment == "great"
	})).Return(&domain.Review{ID: reviewID, ProductID: productID, UserID: "u1", Rating: 3, Comment: "great"}, nil)
	deps.cache.On("InvalidateProduct", mock.Anything, productID).Return(nil)

	rating := 3
	updated, err := service.Update(context.Background(), reviewID, domain.ReviewPatch{Rating: &rating})

	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)
	assert.Equal(t, "great", updated.Comment)

	event := deps.publisher.waitForEvent(t)
	assert.Equal(t, "review.updated", event.EventType)
}

func TestService_Update_NotFound(t *testing.T) {
	service, deps := newTestService()

	reviewID := uuid.New()
	deps.repo.On("FindByID", mock.Anything, reviewID).Return(nil, domain.ErrNotFound)

	rating := 3
	updated, err := service.Update(context.Background(), reviewID, domain.ReviewPatch{Rating: &rating})

	assert.Nil(t, updated)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	deps.repo.AssertNotCalled(t, "Update")
}

func TestService_Update_InvalidRating(t *testing.T) {
	service, deps := newTestService()

	reviewID := uuid.New()
	existing := &domain.Review{
		ID:        reviewID,
		ProductID: uuid.New(),
		UserID:    "u1",
		Rating:    5,
		Comment:   "great",
	}
	deps.repo.On("FindByID", mock.Anything, reviewID).Return(existing, nil)

	rating := 6
	updated, err := service.Update(context.Background(), reviewID, domain.ReviewPatch{Rating: &rating})

	assert.Nil(t, updated)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	deps.repo.AssertNotCalled(t, "Update")
}

func TestService_Delete_Success(t *testing.T) {
	service, deps := newTestService()

	reviewID := uuid.New()
	productID := uuid.New()
	existing := &domain.Review{ID: reviewID, ProductID: productID, UserID: "u1", Rating: 5, Comment: "great"}
	deps.repo.On("FindByID", mock.Anything, reviewID).Return(existing, nil)
	deps.repo.On("Delete", mock.Anything, reviewID).Return(true, nil)
	deps.cache.On("InvalidateProduct", mock.Anything, productID).Return(nil)

	err := service.Delete(context.Background(), reviewID)

	assert.NoError(t, err)

	event := deps.publisher.waitForEvent(t)
	assert.Equal(t, "review.deleted", event.EventType)
}

func TestService_Delete_NotFound(t *testing.T) {
	service, deps := newTestService()

	reviewID := uuid.New()
	deps.repo.On("FindByID", mock.Anything, reviewID).Return(nil, domain.ErrNotFound)

	err := service.Delete(context.Background(), reviewID)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	deps.repo.AssertNotCalled(t, "Delete")
}
