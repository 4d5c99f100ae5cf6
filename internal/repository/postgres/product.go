package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dmarkov/product_catalog/internal/domain"
)

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create persists a new product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (id, name, description, price, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, name, description, price, stock, image_url, created_at, updated_at
	`

	var stored domain.Product
	err := r.db.GetContext(
		ctx,
		&stored,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.ImageURL,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// FindAll retrieves every product, newest first
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, description, price, stock, image_url, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}

	return products, nil
}

// FindByID retrieves a product by id
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, stock, image_url, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// Update replaces the stored product with the given entity
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, stock = $4, image_url = $5, updated_at = $6
		WHERE id = $7
		RETURNING id, name, description, price, stock, image_url, created_at, updated_at
	`

	var stored domain.Product
	err := r.db.GetContext(
		ctx,
		&stored,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.ImageURL,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &stored, nil
}

// Delete removes a product, reporting whether a record was removed.
// Reviews referencing the product go with it via the FK cascade.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM products WHERE id = $1`

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
