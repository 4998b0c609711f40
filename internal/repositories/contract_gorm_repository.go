package repositories

import (
	"context"
	"errors"
	"fmt"

	"rental/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMContractRepository is a GORM implementation of ContractRepository.
type GORMContractRepository struct {
	db *gorm.DB
}

// NewGORMContractRepository creates a new instance of GORMContractRepository.
func NewGORMContractRepository(db *gorm.DB) *GORMContractRepository {
	return &GORMContractRepository{
		db: db,
	}
}

// FindAll retrieves all contracts ordered by number.
func (r *GORMContractRepository) FindAll(ctx context.Context) ([]models.Contract, error) {
	contracts := []models.Contract{}
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("failed to get all contracts: %w", err)
	}
	return contracts, nil
}

// FindByID retrieves a single contract by its ID.
func (r *GORMContractRepository) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.WithContext(ctx).First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contract %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get contract %s: %w", id, err)
	}
	return &contract, nil
}

// Create inserts a new contract, generating its ID when empty.
func (r *GORMContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	if contract.ID == "" {
		contract.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(contract).Error; err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// Save writes every column of contract.
func (r *GORMContractRepository) Save(ctx context.Context, contract *models.Contract) error {
	if err := r.db.WithContext(ctx).Save(contract).Error; err != nil {
		return fmt.Errorf("failed to save contract %s: %w", contract.ID, err)
	}
	return nil
}

// Delete removes a contract by its ID. Deleting a missing contract is not an error.
func (r *GORMContractRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Contract{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete contract %s: %w", id, err)
	}
	return nil
}
