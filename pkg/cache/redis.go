package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"rental/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	productListKey       = "products:all"
	productGenerationKey = "products:generation"
)

// setIfCurrent writes the listing only while the generation it was read
// under is still current, so a fill racing an invalidation is dropped.
var setIfCurrent = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current ~= tonumber(ARGV[1]) then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// ErrCacheMiss is returned when the requested entry is not cached.
var ErrCacheMiss = errors.New("cache miss")

// Config holds Redis connection details.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisClient caches product listings in Redis.
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection with a PING.
func NewRedisClient(ctx context.Context, cfg Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisClientFrom(client, cfg.TTL), nil
}

// NewRedisClientFrom wraps an existing go-redis client.
func NewRedisClientFrom(client *redis.Client, ttl time.Duration) *RedisClient {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisClient{client: client, ttl: ttl}
}

// GetProducts returns the cached product listing and the current cache
// generation. On a miss it returns ErrCacheMiss along with the generation
// to pass back to SetProducts.
func (c *RedisClient) GetProducts(ctx context.Context) ([]models.Product, int64, error) {
	vals, err := c.client.MGet(ctx, productGenerationKey, productListKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get %s from Redis: %w", productListKey, err)
	}

	var generation int64
	if raw, ok := vals[0].(string); ok {
		if generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("invalid %s value %q: %w", productGenerationKey, raw, err)
		}
	}

	raw, ok := vals[1].(string)
	if !ok {
		return nil, generation, ErrCacheMiss
	}

	var products []models.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, generation, fmt.Errorf("failed to unmarshal cached products: %w", err)
	}
	return products, generation, nil
}

// SetProducts caches the product listing for the configured TTL, unless
// the cache was invalidated after generation was read.
func (c *RedisClient) SetProducts(ctx context.Context, products []models.Product, generation int64) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal products for cache: %w", err)
	}

	keys := []string{productGenerationKey, productListKey}
	if err := setIfCurrent.Run(ctx, c.client, keys, generation, data, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to set %s in Redis: %w", productListKey, err)
	}
	return nil
}

// InvalidateProducts drops the cached product listing and bumps the generation.
func (c *RedisClient) InvalidateProducts(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, productGenerationKey)
		pipe.Del(ctx, productListKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate %s in Redis: %w", productListKey, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}
