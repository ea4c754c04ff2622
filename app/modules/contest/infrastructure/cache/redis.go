package contestcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	"github.com/code-arena-club/arena-backend/config"
	"github.com/code-arena-club/arena-backend/internal/attr"
)

const hotKeyPrefix = "contest:hot:"

// RedisCache is the redis-backed ContestCache implementation.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

var _ ContestCache = (*RedisCache)(nil)

// NewRedisCache connects to redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis hot-cache connection established", attr.String("addr", cfg.Addr))
	return &RedisCache{client: client, logger: logger}, nil
}

func hotKey(contestID uuid.UUID) string {
	return hotKeyPrefix + contestID.String()
}

// Get fetches the materialized contest document, or ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error) {
	data, err := c.client.Get(ctx, hotKey(contestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read contest %s from hot cache: %w", contestID, err)
	}

	var contest contestdomain.Contest
	if err := json.Unmarshal(data, &contest); err != nil {
		// A corrupt entry is as good as a miss; the durable read path covers it.
		c.logger.WarnContext(ctx, "Corrupt hot-cache entry, treating as miss",
			attr.ContestID("contest_id", contestID),
			attr.Error(err))
		return nil, ErrCacheMiss
	}
	return &contest, nil
}

// Set writes the materialized contest document with the given TTL.
func (c *RedisCache) Set(ctx context.Context, contest *contestdomain.Contest, ttl time.Duration) error {
	data, err := json.Marshal(contest)
	if err != nil {
		return fmt.Errorf("failed to marshal contest %s for hot cache: %w", contest.ID, err)
	}
	if err := c.client.Set(ctx, hotKey(contest.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write contest %s to hot cache: %w", contest.ID, err)
	}
	return nil
}

// Delete evicts the contest document.
func (c *RedisCache) Delete(ctx context.Context, contestID uuid.UUID) error {
	if err := c.client.Del(ctx, hotKey(contestID)).Err(); err != nil {
		return fmt.Errorf("failed to delete contest %s from hot cache: %w", contestID, err)
	}
	return nil
}

// Ping verifies connectivity for health checks.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
