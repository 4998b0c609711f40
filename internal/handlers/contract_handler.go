package handlers

import (
	"rental/internal/schemas"
	"rental/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ContractHandler handles HTTP requests for contracts.
type ContractHandler struct {
	service *services.ContractService
	log     *zap.Logger
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(service *services.ContractService, log *zap.Logger) *ContractHandler {
	return &ContractHandler{
		service: service,
		log:     log.Named("contract_handler"),
	}
}

// RegisterRoutes registers the contract routes. Mutating routes go through auth.
func (h *ContractHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	contractRoutes := router.Group("/contracts")
	contractRoutes.Get("/", h.HandleGetContracts)
	contractRoutes.Get("/:id", h.HandleGetContractByID)

	contractRoutes.Post("/", auth, h.HandleCreateContract)
	contractRoutes.Patch("/:id/status", auth, h.HandleUpdateContractStatus)
	contractRoutes.Delete("/:id", auth, h.HandleDeleteContract)
}

// HandleGetContracts retrieves all contracts.
func (h *ContractHandler) HandleGetContracts(c *fiber.Ctx) error {
	contracts, err := h.service.FindAll(c.UserContext())
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not retrieve contracts")
	}
	return c.JSON(contracts)
}

// HandleGetContractByID retrieves a single contract.
func (h *ContractHandler) HandleGetContractByID(c *fiber.Ctx) error {
	contract, err := h.service.FindUnique(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not retrieve contract")
	}
	return c.JSON(contract)
}

// HandleCreateContract validates and stores a new contract.
func (h *ContractHandler) HandleCreateContract(c *fiber.Ctx) error {
	input, err := schemas.ParseContractCreate(c.Body())
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not create contract")
	}

	contract, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not create contract")
	}
	return c.Status(fiber.StatusCreated).JSON(contract)
}

// StatusUpdateRequest is the body of a contract status change.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// HandleUpdateContractStatus changes the status of a contract.
func (h *ContractHandler) HandleUpdateContractStatus(c *fiber.Ctx) error {
	var req StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.Debug("invalid status body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	contract, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not update contract status")
	}
	return c.JSON(contract)
}

// HandleDeleteContract removes a contract. Unknown ids succeed too.
func (h *ContractHandler) HandleDeleteContract(c *fiber.Ctx) error {
	if err := h.service.DeleteUnique(c.UserContext(), c.Params("id")); err != nil {
		return handleServiceError(c, h.log, err, "Could not delete contract")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
