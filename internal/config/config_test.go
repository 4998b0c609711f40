package config_test

import (
	"testing"
	"time"

	"rental/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "s3", cfg.StorageDriver)
	assert.Equal(t, config.DefaultImageHost, cfg.S3PublicHost)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.True(t, cfg.IsDevelopment())
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("STORAGE_DRIVER", "disk")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("APP_ENV", "production")

	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "disk", cfg.StorageDriver)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.False(t, cfg.IsDevelopment())
}

func TestFromViper_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := config.FromViper(viper.New())
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = config.FromViper(viper.New())
	assert.Error(t, err)
}
