// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultImageHost is the public host of the product image bucket.
const DefaultImageHost = "dianealmeida-modelos.s3.us-east-2.amazonaws.com"

// Config holds every setting of the service.
type Config struct {
	AppPort string `mapstructure:"APP_PORT" validate:"required"`
	AppEnv  string `mapstructure:"APP_ENV" validate:"oneof=development production test"`

	DBDriver    string `mapstructure:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	DatabaseDSN string `mapstructure:"DATABASE_DSN" validate:"required"`

	JWTSecret string `mapstructure:"JWT_SECRET" validate:"required"`

	// Empty RabbitMQURL or RedisAddr disables the integration.
	RabbitMQURL   string        `mapstructure:"RABBITMQ_URL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB" validate:"gte=0"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER" validate:"oneof=s3 disk"`
	S3Bucket      string `mapstructure:"S3_BUCKET" validate:"required_if=StorageDriver s3"`
	S3Region      string `mapstructure:"S3_REGION" validate:"required_if=StorageDriver s3"`
	S3PublicHost  string `mapstructure:"S3_PUBLIC_HOST" validate:"required"`
	StorageDir    string `mapstructure:"STORAGE_DIR" validate:"required_if=StorageDriver disk"`
	UploadDir     string `mapstructure:"UPLOAD_DIR" validate:"required"`

	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFile  string `mapstructure:"LOG_FILE"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

var keys = map[string]any{
	"APP_PORT":       ":8080",
	"APP_ENV":        "development",
	"DB_DRIVER":      "postgres",
	"DATABASE_DSN":   "host=localhost user=postgres password=postgres dbname=rental port=5432 sslmode=disable",
	"JWT_SECRET":     "",
	"RABBITMQ_URL":   "",
	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"CACHE_TTL":      "5m",
	"STORAGE_DRIVER": "s3",
	"S3_BUCKET":      "dianealmeida-modelos",
	"S3_REGION":      "us-east-2",
	"S3_PUBLIC_HOST": DefaultImageHost,
	"STORAGE_DIR":    "./storage",
	"UPLOAD_DIR":     "./uploads",
	"LOG_LEVEL":      "info",
	"LOG_FILE":       "",
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment alone may be enough.
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper applies defaults and environment overrides to v and decodes
// the validated result.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, def := range keys {
		v.SetDefault(key, def)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
