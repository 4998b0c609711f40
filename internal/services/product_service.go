package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"rental/internal/apperrors"
	"rental/internal/models"
	"rental/internal/repositories"
	"rental/pkg/cache"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	msgProductExists       = "Este Produto ja esta cadastrado"
	msgProductNotFound     = "Produto não encontrado"
	msgProductUpdateAbsent = "Produto Não Encontrado"
)

// totalValueFactor is the multiplier from price to a product's total value.
var totalValueFactor = decimal.NewFromInt(3)

// ObjectStorage saves and retrieves product images by name.
type ObjectStorage interface {
	// SaveFile moves a file from the local upload directory to the store.
	SaveFile(ctx context.Context, fileName string) error
	GetFile(ctx context.Context, name string) ([]byte, error)
}

// ProductCache caches the full product listing.
type ProductCache interface {
	// GetProducts also reports the generation a later SetProducts must match.
	GetProducts(ctx context.Context) ([]models.Product, int64, error)
	SetProducts(ctx context.Context, products []models.Product, generation int64) error
	InvalidateProducts(ctx context.Context) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	storage   ObjectStorage
	cache     ProductCache
	imageHost string
	log       *zap.Logger
}

// NewProductService creates a new ProductService. cache may be nil.
func NewProductService(
	repo repositories.ProductRepository,
	storage ObjectStorage,
	cache ProductCache,
	imageHost string,
	log *zap.Logger,
) *ProductService {
	return &ProductService{
		repo:      repo,
		storage:   storage,
		cache:     cache,
		imageHost: imageHost,
		log:       log.Named("products"),
	}
}

// FindAll returns every product ordered by code descending, with contracts.
func (s *ProductService) FindAll(ctx context.Context) ([]models.Product, error) {
	fill := false
	var generation int64
	if s.cache != nil {
		products, gen, err := s.cache.GetProducts(ctx)
		if err == nil {
			return products, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			fill, generation = true, gen
		} else {
			s.log.Warn("product cache read failed", zap.Error(err))
		}
	}

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		withContracts(&products[i])
	}

	if fill {
		if err := s.cache.SetProducts(ctx, products, generation); err != nil {
			s.log.Warn("product cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

// Create registers a product. A product with the same code must not exist.
func (s *ProductService) Create(ctx context.Context, input *models.ProductInput) (*models.Product, error) {
	existing, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil && !errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check product code %s: %w", input.Code, err)
	}
	if existing != nil {
		return nil, apperrors.Conflict(msgProductExists)
	}

	product := &models.Product{
		ID:          uuid.New().String(),
		Code:        input.Code,
		Price:       input.Price,
		Description: input.Description,
		Modelo:      input.Modelo,
		TotalValue:  input.TotalValue,
		Color:       input.Color,
		Image:       input.Image,
		Contracts:   []models.Contract{},
	}
	if product.TotalValue.IsZero() {
		product.TotalValue = product.Price.Mul(totalValueFactor)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, apperrors.Conflict(msgProductExists)
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("product created", zap.String("product_id", product.ID), zap.String("code", product.Code))
	return product, nil
}

// UpdatePopularity sets a product's popularity to its current number of contracts.
func (s *ProductService) UpdatePopularity(ctx context.Context, productID string) error {
	err := s.updatePopularity(ctx, productID)
	if err != nil {
		s.log.Error("failed to update product popularity", zap.String("product_id", productID), zap.Error(err))
	}
	return err
}

func (s *ProductService) updatePopularity(ctx context.Context, productID string) error {
	product, err := s.repo.FindByIDWithContracts(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return apperrors.NotFound(fmt.Sprintf("Produto com ID %s não encontrado.", productID))
		}
		return err
	}

	product.Popularity = len(product.Contracts)
	if err := s.repo.Save(ctx, product); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// UpdateUnique applies a partial update. Absent or zero fields keep their
// stored value; a new price also resets the total value.
func (s *ProductService) UpdateUnique(ctx context.Context, productID string, update *models.ProductUpdate) (*models.Product, error) {
	product, err := s.repo.FindByIDWithContracts(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgProductUpdateAbsent)
		}
		return nil, err
	}

	if update.Price != nil && !update.Price.IsZero() {
		product.Price = *update.Price
		product.TotalValue = update.Price.Mul(totalValueFactor)
	}
	product.Description = orKeep(update.Description, product.Description)
	product.Modelo = orKeep(update.Modelo, product.Modelo)
	product.Color = orKeep(update.Color, product.Color)

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	withContracts(product)
	return product, nil
}

// FindUnique returns a product with its contracts.
func (s *ProductService) FindUnique(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.FindByIDWithContracts(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgProductNotFound)
		}
		return nil, err
	}
	withContracts(product)
	return product, nil
}

// DeleteUnique removes a product. Deleting an unknown id is a no-op.
func (s *ProductService) DeleteUnique(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UploadImage stores an uploaded file and points the product image at its
// public URL. fileName must already be present in the upload directory.
func (s *ProductService) UploadImage(ctx context.Context, productID, fileName string) (*models.Product, error) {
	product, err := s.repo.FindByIDWithContracts(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgProductNotFound)
		}
		return nil, err
	}

	if err := s.storage.SaveFile(ctx, fileName); err != nil {
		return nil, fmt.Errorf("failed to store image %s: %w", fileName, err)
	}

	product.Image = s.ImageURL(fileName)
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("product image uploaded", zap.String("product_id", product.ID), zap.String("image", product.Image))
	withContracts(product)
	return product, nil
}

// ImageURL is the public address of a stored image.
func (s *ProductService) ImageURL(fileName string) string {
	return fmt.Sprintf("https://%s/%s", s.imageHost, fileName)
}

// GetImage fetches a stored image. Failures are logged and reported as nil.
func (s *ProductService) GetImage(ctx context.Context, name string) *models.Image {
	data, err := s.storage.GetFile(ctx, name)
	if err != nil {
		s.log.Error("failed to get image", zap.String("name", name), zap.Error(err))
		return nil
	}

	contentType := mimetype.Detect(data).String()
	return &models.Image{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		URL:         "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// InvalidateCache drops the cached product listing, if any.
func (s *ProductService) InvalidateCache(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx); err != nil {
		s.log.Warn("product cache invalidation failed", zap.Error(err))
	}
}

func orKeep(v *string, current string) string {
	if v == nil || *v == "" {
		return current
	}
	return *v
}

func withContracts(p *models.Product) {
	if p.Contracts == nil {
		p.Contracts = []models.Contract{}
	}
}
