package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog product
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	ImageURL    *string   `json:"image_url,omitempty" db:"image_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NewProduct builds a validated product. A fresh id is assigned when none is
// supplied and missing timestamps are stamped with the current time.
func NewProduct(name, description string, price float64, stock int, imageURL *string) (*Product, error) {
	now := time.Now()

	p := &Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks product invariants in order: name, price, stock.
// The first violated rule determines the reported reason.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return newValidationError("name empty")
	}
	if p.Price <= 0 {
		return newValidationError("price not positive")
	}
	if p.Stock < 0 {
		return newValidationError("stock negative")
	}
	return nil
}

// ProductPatch carries the fields of a partial update. Nil fields are left
// unchanged by Apply.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	ImageURL    *string
}

// Apply merges the patch onto a copy of the product, stamps UpdatedAt and
// re-validates. The receiver is never mutated; update is all-or-nothing.
func (p *Product) Apply(patch ProductPatch) (*Product, error) {
	merged := *p

	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.Stock != nil {
		merged.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		merged.ImageURL = patch.ImageURL
	}
	merged.UpdatedAt = time.Now()

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	return &merged, nil
}

// ProductRepository defines the interface for product data access.
// Lookups report absence with ErrNotFound; Delete reports it with false.
type ProductRepository interface {
	// Create persists a new product and returns the stored entity
	Create(ctx context.Context, product *Product) (*Product, error)

	// FindAll retrieves every product, newest first
	FindAll(ctx context.Context) ([]*Product, error)

	// FindByID retrieves a product by id
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// Update replaces the stored product with the given entity
	Update(ctx context.Context, product *Product) (*Product, error)

	// Delete removes a product, reporting whether a record was removed
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
