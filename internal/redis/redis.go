package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/config"
	"github.com/sjafferali/searcharr/internal/models"
)

// Client wraps the Redis client and exposes it as a TTL-bounded status
// store for health probe results.
type Client struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

// Initialize creates and configures the Redis client
func Initialize(cfg config.RedisConfig, logger *logrus.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully")
	return &Client{rdb: rdb, logger: logger}, nil
}

const statusKeyPrefix = "status:"

// Get returns the cached status for a probe key, or false when the key
// is missing or expired.
func (c *Client) Get(ctx context.Context, key string) (*models.Status, bool) {
	val, err := c.rdb.Get(ctx, statusKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnf("Redis status read failed for %s: %v", key, err)
		}
		return nil, false
	}

	var status models.Status
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		c.logger.Warnf("Corrupt status entry for %s: %v", key, err)
		return nil, false
	}
	return &status, true
}

// Set stores a probe result under key with the given TTL.
func (c *Client) Set(ctx context.Context, key string, status *models.Status, ttl time.Duration) {
	data, err := json.Marshal(status)
	if err != nil {
		c.logger.Errorf("Failed to encode status for %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, statusKeyPrefix+key, data, ttl).Err(); err != nil {
		c.logger.Warnf("Redis status write failed for %s: %v", key, err)
	}
}

// Health checks the Redis connection health
func (c *Client) Health() error {
	return c.rdb.Ping(context.Background()).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
