package repositories

import (
	"context"
	"errors"

	"rental/internal/models"
)

var (
	// ErrRecordNotFound is returned when a lookup matches no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// FindAll returns every product ordered by code descending, with contracts.
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByIDWithContracts(ctx context.Context, id string) (*models.Product, error)
	FindByCode(ctx context.Context, code string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// ContractRepository defines the interface for contract data access.
type ContractRepository interface {
	FindAll(ctx context.Context) ([]models.Contract, error)
	FindByID(ctx context.Context, id string) (*models.Contract, error)
	Create(ctx context.Context, contract *models.Contract) error
	Save(ctx context.Context, contract *models.Contract) error
	Delete(ctx context.Context, id string) error
}
