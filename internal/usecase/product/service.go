package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmarkov/product_catalog/internal/domain"
	"github.com/dmarkov/product_catalog/internal/pkg/logger"
)

// Service orchestrates product business operations
type Service struct {
	repo   domain.ProductRepository
	logger *logger.Logger
}

// NewService creates a new product service
func NewService(repo domain.ProductRepository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log,
	}
}

// CreateInput carries the raw fields for a new product. The transport layer
// owns shape validation; domain invariants are enforced here.
type CreateInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	ImageURL    *string
}

// Create validates and persists a new product
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	product, err := domain.NewProduct(in.Name, in.Description, in.Price, in.Stock, in.ImageURL)
	if err != nil {
		s.logger.Error("Product validation failed", err)
		return nil, err
	}

	stored, err := s.repo.Create(ctx, product)
	if err != nil {
		s.logger.Error("Failed to create product", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": stored.ID,
		"name":       stored.Name,
	}).Info("Product created successfully")

	return stored, nil
}

// List retrieves all products. Storage failures are deliberately swallowed
// and an empty list returned; listing is never an error for the caller.
func (s *Service) List(ctx context.Context) []*domain.Product {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list products, returning empty list", err)
		return []*domain.Product{}
	}

	if products == nil {
		return []*domain.Product{}
	}

	return products
}

// GetByID retrieves a product by id
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
			return nil, err
		}
		s.logger.Error("Failed to get product", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	return product, nil
}

// Update merges the patch onto the stored product, re-validates and persists
// the result. The lookup must succeed; a product vanishing between lookup and
// update surfaces as ErrOperationFailed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to get product for update", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	merged, err := existing.Apply(patch)
	if err != nil {
		s.logger.Error("Product validation failed", err)
		return nil, err
	}

	stored, err := s.repo.Update(ctx, merged)
	if err != nil {
		s.logger.Error("Failed to update product", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": stored.ID,
		"name":       stored.Name,
	}).Info("Product updated successfully")

	return stored, nil
}

// Delete removes a product by id
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.logger.Error("Failed to get product for deletion", err)
		return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete product", err)
		return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}
	if !removed {
		return fmt.Errorf("failed to delete product: %w", domain.ErrNotFound)
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted successfully")

	return nil
}
