package product

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmarkov/product_catalog/internal/domain"
	"github.com/dmarkov/product_catalog/internal/pkg/logger"
)

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

func newTestService(repo domain.ProductRepository) *Service {
	return NewService(repo, logger.New("test"))
}

func TestService_Create_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Name == "Widget" && p.Price == 9.99 && p.Stock == 3 && p.ID != uuid.Nil
	})).Return(&domain.Product{ID: uuid.New(), Name: "Widget", Price: 9.99, Stock: 3}, nil)

	product, err := service.Create(context.Background(), CreateInput{
		Name:  "Widget",
		Price: 9.99,
		Stock: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, "Widget", product.Name)
	mockRepo.AssertExpectations(t)
}

func TestService_Create_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input CreateInput
	}{
		{"empty name", CreateInput{Name: "", Price: 9.99, Stock: 1}},
		{"zero price", CreateInput{Name: "Widget", Price: 0, Stock: 1}},
		{"negative price", CreateInput{Name: "Widget", Price: -5, Stock: 1}},
		{"negative stock", CreateInput{Name: "Widget", Price: 9.99, Stock: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := newTestService(mockRepo)

			product, err := service.Create(context.Background(), tt.input)

			assert.Nil(t, product)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			mockRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestService_Create_RepositoryFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	product, err := service.Create(context.Background(), CreateInput{
		Name:  "Widget",
		Price: 9.99,
		Stock: 3,
	})

	assert.Nil(t, product)
	assert.True(t, errors.Is(err, domain.ErrOperationFailed))
}

func TestService_List_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	expected := []*domain.Product{
		{ID: uuid.New(), Name: "Widget", Price: 9.99},
		{ID: uuid.New(), Name: "Gadget", Price: 19.99},
	}
	mockRepo.On("FindAll", mock.Anything).Return(expected, nil)

	products := service.List(context.Background())

	assert.Equal(t, expected, products)
	mockRepo.AssertExpectations(t)
}

func TestService_List_StorageFailureReturnsEmpty(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	mockRepo.On("FindAll", mock.Anything).Return(nil, errors.New("connection refused"))

	products := service.List(context.Background())

	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestService_GetByID_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	expected := &domain.Product{ID: productID, Name: "Widget", Price: 9.99, Stock: 3}
	mockRepo.On("FindByID", mock.Anything, productID).Return(expected, nil)

	product, err := service.GetByID(context.Background(), productID)

	require.NoError(t, err)
	assert.Equal(t, expected, product)
}

func TestService_GetByID_Idempotent(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	expected := &domain.Product{ID: productID, Name: "Widget", Price: 9.99, Stock: 3}
	mockRepo.On("FindByID", mock.Anything, productID).Return(expected, nil).Twice()

	first, err := service.GetByID(context.Background(), productID)
	require.NoError(t, err)
	second, err := service.GetByID(context.Background(), productID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_GetByID_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	mockRepo.On("FindByID", mock.Anything, productID).Return(nil, domain.ErrNotFound)

	product, err := service.GetByID(context.Background(), productID)

	assert.Nil(t, product)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestService_Update_MergesPatch(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	existing := &domain.Product{
		ID:          productID,
		Name:        "Widget",
		Description: "A useful widget",
		Price:       9.99,
		Stock:       3,
	}
	mockRepo.On("FindByID", mock.Anything, productID).Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Price == 50.0 && p.Name == "Widget" && p.Stock == 3
	})).Return(&domain.Product{ID: productID, Name: "Widget", Description: "A useful widget", Price: 50.0, Stock: 3}, nil)

	price := 50.0
	updated, err := service.Update(context.Background(), productID, domain.ProductPatch{Price: &price})

	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.Price)
	assert.Equal(t, "Widget", updated.Name)
	mockRepo.AssertExpectations(t)
}

func TestService_Update_StockToZero(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	existing := &domain.Product{ID: productID, Name: "Widget", Price: 9.99, Stock: 3}
	mockRepo.On("FindByID", mock.Anything, productID).Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Stock == 0
	})).Return(&domain.Product{ID: productID, Name: "Widget", Price: 9.99, Stock: 0}, nil)

	stock := 0
	updated, err := service.Update(context.Background(), productID, domain.ProductPatch{Stock: &stock})

	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
}

func TestService_Update_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	mockRepo.On("FindByID", mock.Anything, productID).Return(nil, domain.ErrNotFound)

	price := 50.0
	updated, err := service.Update(context.Background(), productID, domain.ProductPatch{Price: &price})

	assert.Nil(t, updated)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	mockRepo.AssertNotCalled(t, "Update")
}

func TestService_Update_InvalidPatch(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	existing := &domain.Product{ID: productID, Name: "Widget", Price: 9.99, Stock: 3}
	mockRepo.On("FindByID", mock.Anything, productID).Return(existing, nil)

	price := -1.0
	updated, err := service.Update(context.Background(), productID, domain.ProductPatch{Price: &price})

	assert.Nil(t, updated)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	mockRepo.AssertNotCalled(t, "Update")
}

func TestService_Delete_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	existing := &domain.Product{ID: productID, Name: "Widget", Price: 9.99}
	mockRepo.On("FindByID", mock.Anything, productID).Return(existing, nil)
	mockRepo.On("Delete", mock.Anything, productID).Return(true, nil)

	err := service.Delete(context.Background(), productID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_Delete_NeverCreated(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	mockRepo.On("FindByID", mock.Anything, productID).Return(nil, domain.ErrNotFound)

	err := service.Delete(context.Background(), productID)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	mockRepo.AssertNotCalled(t, "Delete")
}

func TestService_Delete_NothingRemoved(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newTestService(mockRepo)

	productID := uuid.New()
	existing := &domain.Product{ID: productID, Name: "Widget", Price: 9.99}
	mockRepo.On("FindByID", mock.Anything, productID).Return(existing, nil)
	mockRepo.On("Delete", mock.Anything, productID).Return(false, nil)

	err := service.Delete(context.Background(), productID)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
