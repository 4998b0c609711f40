package handlers

import (
	"os"
	"path/filepath"

	"rental/internal/apperrors"
	"rental/internal/models"
	"rental/internal/schemas"
	"rental/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgNoImage       = "Nenhuma imagem enviada"
	msgUploadFailed  = "Erro ao fazer upload da imagem"
	msgImageNotFound = "Imagem não encontrada"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service   *services.ProductService
	uploadDir string
	log       *zap.Logger
}

// NewProductHandler creates a new ProductHandler. Uploaded files are written
// to uploadDir before the service moves them to storage.
func NewProductHandler(service *services.ProductService, uploadDir string, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:   service,
		uploadDir: uploadDir,
		log:       log.Named("product_handler"),
	}
}

// RegisterRoutes registers the product routes. Mutating routes go through auth.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/images/:name", h.HandleGetImage)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	productRoutes.Post("/", auth, h.HandleCreateProduct)
	productRoutes.Patch("/:id", auth, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, h.HandleDeleteProduct)
	productRoutes.Patch("/:id/popularity", auth, h.HandleUpdatePopularity)
	productRoutes.Post("/:id/image", auth, h.HandleUploadImage)
}

// HandleGetProducts lists every product with its contracts.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.FindAll(c.UserContext())
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.FindUnique(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleCreateProduct registers a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := c.BodyParser(&input); err != nil {
		h.log.Debug("invalid product body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if err := schemas.Validate("invalid product payload", input); err != nil {
		return handleServiceError(c, h.log, err, "")
	}

	product, err := h.service.Create(c.UserContext(), &input)
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update to a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var update models.ProductUpdate
	if err := c.BodyParser(&update); err != nil {
		h.log.Debug("invalid product update body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if err := schemas.Validate("invalid product payload", update); err != nil {
		return handleServiceError(c, h.log, err, "")
	}

	product, err := h.service.UpdateUnique(c.UserContext(), c.Params("id"), &update)
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product. Unknown ids succeed too.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteUnique(c.UserContext(), c.Params("id")); err != nil {
		return handleServiceError(c, h.log, err, "Could not delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleUpdatePopularity recounts the contracts of a product.
func (h *ProductHandler) HandleUpdatePopularity(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.UpdatePopularity(c.UserContext(), id); err != nil {
		return handleServiceError(c, h.log, err, "Could not update product popularity")
	}

	product, err := h.service.FindUnique(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.log, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleUploadImage stores the multipart "image" file as the product's picture.
func (h *ProductHandler) HandleUploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, msgNoImage)
	}

	fileName := uuid.New().String() + "-" + filepath.Base(file.Filename)
	localPath := filepath.Join(h.uploadDir, fileName)
	if err := c.SaveFile(file, localPath); err != nil {
		h.log.Error("failed to save upload", zap.String("path", localPath), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgUploadFailed})
	}

	product, err := h.service.UploadImage(c.UserContext(), c.Params("id"), fileName)
	if err != nil {
		// Storage removes the upload only once it has been stored.
		if rmErr := os.Remove(localPath); rmErr != nil && !os.IsNotExist(rmErr) {
			h.log.Warn("failed to remove upload", zap.String("path", localPath), zap.Error(rmErr))
		}
		if apperrors.Is(err, apperrors.KindNotFound) {
			return handleServiceError(c, h.log, err, msgUploadFailed)
		}
		h.log.Error(msgUploadFailed, zap.String("product_id", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgUploadFailed})
	}
	return c.JSON(product)
}

// HandleGetImage streams a stored image.
func (h *ProductHandler) HandleGetImage(c *fiber.Ctx) error {
	image := h.service.GetImage(c.UserContext(), c.Params("name"))
	if image == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msgImageNotFound})
	}
	c.Set(fiber.HeaderContentType, image.ContentType)
	return c.Send(image.Data)
}
