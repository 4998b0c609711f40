package repositories

import (
	"context"
	"errors"
	"fmt"

	"rental/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// FindAll retrieves all products with their contracts, highest code first.
func (r *GORMProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.WithContext(ctx).
		Preload("Contracts", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Order("code DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// FindByID retrieves a single product by its ID, without relations.
func (r *GORMProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// FindByIDWithContracts retrieves a product by its ID with its contracts loaded.
func (r *GORMProductRepository) FindByIDWithContracts(ctx context.Context, id string) (*models.Product, error) {
	tx := r.db.WithContext(ctx).Preload("Contracts", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") })
	return r.first(tx, "id = ?", id)
}

// FindByCode retrieves a product by its unique code.
func (r *GORMProductRepository) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	return r.first(r.db.WithContext(ctx), "code = ?", code)
}

func (r *GORMProductRepository) first(tx *gorm.DB, query string, arg string) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", arg, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get product %s: %w", arg, err)
	}
	return &product, nil
}

// Create inserts a new product, generating its ID when empty.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product with code %s: %w", product.Code, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Save writes every column of product. Loaded contracts are left untouched.
func (r *GORMProductRepository) Save(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product with code %s: %w", product.Code, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save product %s: %w", product.ID, err)
	}
	return nil
}

// Delete removes a product by its ID. Deleting a missing product is not an error.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}
