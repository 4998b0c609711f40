// Package app wires repositories, services and handlers into a Fiber app.
package app

import (
	"fmt"
	"strings"
	"time"

	"rental/internal/handlers"
	"rental/internal/middleware"
	"rental/internal/models"
	"rental/internal/repositories"
	"rental/internal/services"
	"rental/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB connects to the configured database and migrates the schema.
// GORM's own log lines go through log.
func OpenDB(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormLog, err := newGormLogger(log)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Product{}, &models.Contract{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}

// sqliteDSN turns on foreign keys for every pooled connection. SQLite
// leaves them off by default, which would skip ON DELETE SET NULL.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

func newGormLogger(log *zap.Logger) (gormlogger.Interface, error) {
	stdLog, err := zap.NewStdLogAt(log.Named("gorm"), zap.WarnLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build gorm logger: %w", err)
	}
	return gormlogger.New(stdLog, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	}), nil
}

// Deps are the external resources the app is built from. Cache and
// Publisher are optional and must be left as nil interfaces when absent.
type Deps struct {
	DB        *gorm.DB
	Storage   services.ObjectStorage
	Cache     services.ProductCache
	Publisher services.EventPublisher
	Metrics   *metrics.Metrics
	Log       *zap.Logger

	JWTSecret string
	ImageHost string
	UploadDir string
	// AccessLog enables Fiber's request logger.
	AccessLog bool
}

// App is the wired HTTP application and its services.
type App struct {
	Fiber     *fiber.App
	Products  *services.ProductService
	Contracts *services.ContractService
	Auth      *services.AuthService
}

// New builds the services and registers every route under /api/v1.
func New(d Deps) *App {
	productRepo := repositories.NewGORMProductRepository(d.DB)
	contractRepo := repositories.NewGORMContractRepository(d.DB)
	userRepo := repositories.NewGORMUserRepository(d.DB)

	productService := services.NewProductService(productRepo, d.Storage, d.Cache, d.ImageHost, d.Log)
	contractService := services.NewContractService(contractRepo, productService, d.Publisher, d.Log)
	authService := services.NewAuthService(userRepo, d.JWTSecret, d.Log)

	app := fiber.New(fiber.Config{
		AppName:               "rental",
		DisableStartupMessage: true,
		BodyLimit:             10 * 1024 * 1024,
	})

	app.Use(requestid.New())
	if d.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	if d.Metrics != nil {
		app.Use(middleware.Metrics(d.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"cache":    d.Cache != nil,
			"rabbitMQ": d.Publisher != nil,
		})
	})

	auth := middleware.AuthRequired(authService, d.Log)
	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(authService, d.Log).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService, d.UploadDir, d.Log).RegisterRoutes(apiV1, auth)
	handlers.NewContractHandler(contractService, d.Log).RegisterRoutes(apiV1, auth)

	return &App{
		Fiber:     app,
		Products:  productService,
		Contracts: contractService,
		Auth:      authService,
	}
}
