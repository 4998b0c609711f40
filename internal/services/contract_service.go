package services

import (
	"context"
	"errors"
	"fmt"

	"rental/internal/apperrors"
	"rental/internal/models"
	"rental/internal/repositories"
	"rental/internal/schemas"
	"rental/pkg/rabbitmq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgContractNotFound = "Contrato não encontrado"

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// ProductRefresher is the part of the product service contracts depend on.
type ProductRefresher interface {
	FindUnique(ctx context.Context, id string) (*models.Product, error)
	UpdatePopularity(ctx context.Context, productID string) error
	InvalidateCache(ctx context.Context)
}

// ContractEvent is published whenever a contract is created or deleted.
type ContractEvent struct {
	ContractID string  `json:"contract_id"`
	ProductID  *string `json:"product_id"`
	Status     string  `json:"status"`
}

// ContractService handles the contract lifecycle and keeps the popularity
// of the linked product in step with it.
type ContractService struct {
	repo      repositories.ContractRepository
	products  ProductRefresher
	publisher EventPublisher
	log       *zap.Logger
}

// NewContractService creates a new ContractService. publisher may be nil.
func NewContractService(repo repositories.ContractRepository, products ProductRefresher, publisher EventPublisher, log *zap.Logger) *ContractService {
	return &ContractService{
		repo:      repo,
		products:  products,
		publisher: publisher,
		log:       log.Named("contracts"),
	}
}

// Create stores a validated contract and refreshes its product's popularity.
func (s *ContractService) Create(ctx context.Context, in *schemas.ContractCreate) (*schemas.ContractResponse, error) {
	if in.ProductID != nil {
		if _, err := s.products.FindUnique(ctx, *in.ProductID); err != nil {
			return nil, err
		}
	}

	contract := &models.Contract{
		ID:         uuid.New().String(),
		Number:     *in.Number,
		Retirada:   in.Retirada,
		Devolucao:  in.Devolucao,
		Observacao: in.Observacao,
		Tipo:       *in.Tipo,
		Status:     *in.Status,
		ProductID:  in.ProductID,
	}

	// Checked before the insert so a contract that could never be returned is not stored.
	if err := schemas.ValidateContractResponse(schemas.NewContractResponse(contract)); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, err
	}

	s.refresh(ctx, contract.ProductID)
	s.publish(rabbitmq.ContractCreatedKey, contract)

	resp := schemas.NewContractResponse(contract)
	return &resp, nil
}

// FindAll returns every contract ordered by number.
func (s *ContractService) FindAll(ctx context.Context) ([]schemas.ContractResponse, error) {
	contracts, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]schemas.ContractResponse, 0, len(contracts))
	for i := range contracts {
		out = append(out, schemas.NewContractResponse(&contracts[i]))
	}
	return out, nil
}

// FindUnique returns a contract by id.
func (s *ContractService) FindUnique(ctx context.Context, id string) (*schemas.ContractResponse, error) {
	contract, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := schemas.NewContractResponse(contract)
	return &resp, nil
}

// UpdateStatus changes the status of a contract.
func (s *ContractService) UpdateStatus(ctx context.Context, id, status string) (*schemas.ContractResponse, error) {
	if status == "" {
		return nil, apperrors.Validation("invalid contract status",
			apperrors.FieldError{Field: "status", Message: "is required"})
	}

	contract, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	contract.Status = status
	if err := s.repo.Save(ctx, contract); err != nil {
		return nil, err
	}

	if contract.ProductID != nil {
		s.products.InvalidateCache(ctx)
	}

	resp := schemas.NewContractResponse(contract)
	return &resp, nil
}

// DeleteUnique removes a contract. Deleting an unknown id is a no-op.
func (s *ContractService) DeleteUnique(ctx context.Context, id string) error {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.refresh(ctx, contract.ProductID)
	s.publish(rabbitmq.ContractDeletedKey, contract)
	return nil
}

func (s *ContractService) find(ctx context.Context, id string) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgContractNotFound)
		}
		return nil, err
	}
	return contract, nil
}

// refresh recounts the product's contracts. The contract change is already
// committed, so a failure here is logged and left to a later refresh.
func (s *ContractService) refresh(ctx context.Context, productID *string) {
	if productID == nil {
		return
	}
	if err := s.products.UpdatePopularity(ctx, *productID); err != nil {
		s.log.Warn("popularity refresh after contract change failed", zap.String("product_id", *productID), zap.Error(err))
	}
}

func (s *ContractService) publish(routingKey string, c *models.Contract) {
	if s.publisher == nil {
		s.log.Debug("no event publisher configured, skipping", zap.String("routing_key", routingKey))
		return
	}
	event := ContractEvent{ContractID: c.ID, ProductID: c.ProductID, Status: c.Status}
	if err := s.publisher.Publish(routingKey, event); err != nil {
		s.log.Warn(fmt.Sprintf("failed to publish %s", routingKey), zap.String("contract_id", c.ID), zap.Error(err))
	}
}
