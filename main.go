package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rental/internal/app"
	"rental/internal/config"
	"rental/internal/services"
	"rental/pkg/cache"
	"rental/pkg/logger"
	"rental/pkg/metrics"
	"rental/pkg/rabbitmq"
	"rental/pkg/storage"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Service:     "rental",
		Env:         cfg.AppEnv,
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
		Filename:    cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Database ---
	db, err := app.OpenDB(cfg.DBDriver, cfg.DatabaseDSN, zlog)
	if err != nil {
		zlog.Fatal("Failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// --- Object storage ---
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		zlog.Fatal("Failed to create upload dir", zap.String("dir", cfg.UploadDir), zap.Error(err))
	}
	var objectStorage services.ObjectStorage
	switch cfg.StorageDriver {
	case "disk":
		objectStorage, err = storage.NewDiskStorage(afero.NewOsFs(), cfg.UploadDir, cfg.StorageDir)
	default:
		objectStorage, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UploadDir: cfg.UploadDir,
		})
	}
	if err != nil {
		zlog.Fatal("Failed to initialize storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}

	// --- Optional Redis cache ---
	var productCache services.ProductCache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			zlog.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
		defer redisClient.Close()
		productCache = redisClient
	}

	// --- Optional RabbitMQ client ---
	var mqClient *rabbitmq.Client
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, zlog)
		if err != nil {
			zlog.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		publisher = mqClient
	}

	m := metrics.New()
	rental := app.New(app.Deps{
		DB:        db,
		Storage:   objectStorage,
		Cache:     productCache,
		Publisher: publisher,
		Metrics:   m,
		Log:       zlog,
		JWTSecret: cfg.JWTSecret,
		ImageHost: cfg.S3PublicHost,
		UploadDir: cfg.UploadDir,
		AccessLog: true,
	})

	// --- Popularity refresh consumer ---
	if mqClient != nil {
		err := mqClient.ConsumePopularityRefresh(ctx, func(ctx context.Context, req rabbitmq.PopularityRefresh) error {
			err := rental.Products.UpdatePopularity(ctx, req.ProductID)
			m.Event("popularity_refresh", err)
			return err
		})
		if err != nil {
			zlog.Error("Failed to start popularity refresh consumer", zap.Error(err))
		}
	}

	// --- Start HTTP Server ---
	zlog.Info("Starting server", zap.String("port", cfg.AppPort))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := rental.Fiber.Listen(cfg.AppPort); err != nil {
			zlog.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("Shutting down server...")
	cancel()

	if err := rental.Fiber.Shutdown(); err != nil {
		zlog.Error("Error during Fiber shutdown", zap.Error(err))
	}

	zlog.Info("Server gracefully stopped")
}
