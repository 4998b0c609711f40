package services_test

import (
	"context"
	"fmt"
	"testing"

	"rental/internal/apperrors"
	"rental/internal/models"
	"rental/internal/repositories"
	"rental/internal/schemas"
	"rental/internal/services"
	"rental/pkg/rabbitmq"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func contractInput(number int, productID *string) *schemas.ContractCreate {
	return &schemas.ContractCreate{
		Number:    ptr(number),
		Retirada:  "2024-03-01",
		Devolucao: "2024-03-04",
		Tipo:      ptr("aluguel"),
		Status:    ptr("ativo"),
		ProductID: productID,
	}
}

func TestContractService_Create(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	mockProducts := new(MockProductRefresher)
	mockPublisher := new(MockPublisher)
	service := services.NewContractService(mockRepo, mockProducts, mockPublisher, zap.NewNop())

	productID := gofakeit.UUID()
	mockProducts.On("FindUnique", ctx, productID).Return(&models.Product{ID: productID}, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Contract")).Return(nil).Once()
	mockProducts.On("UpdatePopularity", ctx, productID).Return(nil).Once()
	mockPublisher.On("Publish", rabbitmq.ContractCreatedKey, mock.MatchedBy(func(e services.ContractEvent) bool {
		return e.ProductID != nil && *e.ProductID == productID && e.Status == "ativo"
	})).Return(nil).Once()

	resp, err := service.Create(ctx, contractInput(7, &productID))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 7, resp.Number)
	assert.Equal(t, "aluguel", resp.Tipo)
	mockRepo.AssertExpectations(t)
	mockProducts.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestContractService_CreateWithoutProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	mockProducts := new(MockProductRefresher)
	service := services.NewContractService(mockRepo, mockProducts, nil, zap.NewNop())

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Contract")).Return(nil).Once()

	resp, err := service.Create(ctx, contractInput(1, nil))
	require.NoError(t, err)
	assert.Nil(t, resp.ProductID)
	mockProducts.AssertNotCalled(t, "UpdatePopularity", mock.Anything, mock.Anything)
}

func TestContractService_CreateRejectsNumberBelowOne(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	service := services.NewContractService(mockRepo, new(MockProductRefresher), nil, zap.NewNop())

	_, err := service.Create(ctx, contractInput(0, nil))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "number", appErr.Fields[0].Field)
	assert.Equal(t, "O numero do contrato é Obrigatorio", appErr.Fields[0].Message)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestContractService_CreateUnknownProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	mockProducts := new(MockProductRefresher)
	service := services.NewContractService(mockRepo, mockProducts, nil, zap.NewNop())

	productID := gofakeit.UUID()
	mockProducts.On("FindUnique", ctx, productID).Return(nil, apperrors.NotFound("Produto não encontrado")).Once()

	_, err := service.Create(ctx, contractInput(3, &productID))
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestContractService_CreateSurvivesRefreshAndPublishFailures(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	mockProducts := new(MockProductRefresher)
	mockPublisher := new(MockPublisher)
	service := services.NewContractService(mockRepo, mockProducts, mockPublisher, zap.NewNop())

	productID := gofakeit.UUID()
	mockProducts.On("FindUnique", ctx, productID).Return(&models.Product{ID: productID}, nil).Once()
	mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	mockProducts.On("UpdatePopularity", ctx, productID).Return(fmt.Errorf("database error")).Once()
	mockPublisher.On("Publish", rabbitmq.ContractCreatedKey, mock.Anything).Return(fmt.Errorf("channel closed")).Once()

	resp, err := service.Create(ctx, contractInput(2, &productID))
	assert.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestContractService_FindAll(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	service := services.NewContractService(mockRepo, new(MockProductRefresher), nil, zap.NewNop())

	mockRepo.On("FindAll", ctx).Return([]models.Contract{
		{ID: "c1", Number: 1, Status: "ativo"},
		{ID: "c2", Number: 2, Status: "finalizado"},
	}, nil).Once()

	contracts, err := service.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, "c1", contracts[0].ID)
	assert.Equal(t, "finalizado", contracts[1].Status)

	mockRepo.On("FindAll", ctx).Return(nil, fmt.Errorf("database error")).Once()
	_, err = service.FindAll(ctx)
	assert.Error(t, err)
}

func TestContractService_FindUnique(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	service := services.NewContractService(mockRepo, new(MockProductRefresher), nil, zap.NewNop())

	mockRepo.On("FindByID", ctx, "c1").Return(&models.Contract{ID: "c1", Number: 4}, nil).Once()
	resp, err := service.FindUnique(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Number)

	mockRepo.On("FindByID", ctx, "missing").
		Return(nil, fmt.Errorf("contract missing: %w", repositories.ErrRecordNotFound)).Once()
	_, err = service.FindUnique(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, "Contrato não encontrado", err.Error())
}

func TestContractService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	mockProducts := new(MockProductRefresher)
	service := services.NewContractService(mockRepo, mockProducts, nil, zap.NewNop())

	stored := &models.Contract{ID: "c1", Number: 1, Status: "ativo", ProductID: ptr("p-1")}
	mockRepo.On("FindByID", ctx, "c1").Return(stored, nil).Once()
	mockRepo.On("Save", ctx, stored).Return(nil).Once()
	mockProducts.On("InvalidateCache", ctx).Return().Once()

	resp, err := service.UpdateStatus(ctx, "c1", "finalizado")
	require.NoError(t, err)
	assert.Equal(t, "finalizado", resp.Status)
	mockRepo.AssertExpectations(t)
	mockProducts.AssertExpectations(t)

	_, err = service.UpdateStatus(ctx, "c1", "")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestContractService_DeleteUnique(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockContractRepository)
	mockProducts := new(MockProductRefresher)
	mockPublisher := new(MockPublisher)
	service := services.NewContractService(mockRepo, mockProducts, mockPublisher, zap.NewNop())

	stored := &models.Contract{ID: "c1", Number: 1, ProductID: ptr("p-1")}
	mockRepo.On("FindByID", ctx, "c1").Return(stored, nil).Once()
	mockRepo.On("Delete", ctx, "c1").Return(nil).Once()
	mockProducts.On("UpdatePopularity", ctx, "p-1").Return(nil).Once()
	mockPublisher.On("Publish", rabbitmq.ContractDeletedKey, mock.Anything).Return(nil).Once()

	assert.NoError(t, service.DeleteUnique(ctx, "c1"))
	mockRepo.AssertExpectations(t)
	mockProducts.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)

	// Unknown ids are a no-op
	mockRepo.On("FindByID", ctx, "missing").
		Return(nil, fmt.Errorf("contract missing: %w", repositories.ErrRecordNotFound)).Once()
	assert.NoError(t, service.DeleteUnique(ctx, "missing"))
	mockRepo.AssertNumberOfCalls(t, "Delete", 1)
}
