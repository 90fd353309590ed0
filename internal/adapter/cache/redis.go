package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"docqa/config"
	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.QueryCache = (*RedisCache)(nil)

// RedisCache stores retrieval results in Redis with a TTL. Keys embed a
// generation counter; Invalidate bumps the counter so older keys are never
// read again and expire on their own.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// ScopedPrefix derives a key prefix unique to one index, so projects that
// share a Redis server never read each other's results.
func ScopedPrefix(prefix, indexPath string) string {
	if prefix == "" {
		prefix = "docqa"
	}
	sum := sha256.Sum256([]byte(indexPath))
	return prefix + ":" + hex.EncodeToString(sum[:6])
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if prefix == "" {
		prefix = "docqa"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Ping checks that the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) genKey() string {
	return c.prefix + ":query:gen"
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) entryKey(gen int64, query string, topK int) string {
	return fmt.Sprintf("%s:query:%d:%s", c.prefix, gen, cacheKey(query, topK))
}

// Get treats any Redis failure as a miss.
func (c *RedisCache) Get(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Debug("redis cache unavailable", "error", err)
		return nil, false
	}

	data, err := c.client.Get(ctx, c.entryKey(gen, query, topK)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("redis cache get failed", "error", err)
		}
		return nil, false
	}

	var results []domain.ScoredChunk
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Debug("redis cache entry unreadable", "error", err)
		return nil, false
	}
	return results, true
}

func (c *RedisCache) Put(ctx context.Context, query string, topK int, results []domain.ScoredChunk) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Debug("redis cache unavailable", "error", err)
		return
	}

	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.entryKey(gen, query, topK), data, c.ttl).Err(); err != nil {
		c.logger.Debug("redis cache put failed", "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, c.genKey()).Err(); err != nil {
		c.logger.Warn("failed to invalidate redis cache", "error", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
