package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/essentialstracker/backend/internal/domain"
)

const keyPrefix = "essentials"

func statsKey(essentialID uuid.UUID) string {
	return fmt.Sprintf("%s:stats:%s", keyPrefix, essentialID)
}

func candlesKey(essentialID uuid.UUID) string {
	return fmt.Sprintf("%s:candles:%s", keyPrefix, essentialID)
}

// RedisCache implements domain.ChartCache on Redis with JSON values.
// Read and write failures are logged and treated as misses so the cache never fails a request
type RedisCache struct {
	client     *redis.Client
	log        *slog.Logger
	candlesTTL time.Duration
}

var _ domain.ChartCache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and verifies the connection.
// candlesTTL bounds how long a candle series lives without an invalidation; zero keeps it until then
func NewRedisCache(ctx context.Context, log *slog.Logger, addr, password string, db int, candlesTTL time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisCache(client, log, candlesTTL), nil
}

func newRedisCache(client *redis.Client, log *slog.Logger, candlesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     client,
		log:        log,
		candlesTTL: candlesTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) GetStats(ctx context.Context, essentialID uuid.UUID) (*domain.WindowedStats, bool) {
	var stats domain.WindowedStats
	if !c.get(ctx, statsKey(essentialID), &stats) {
		return nil, false
	}
	return &stats, true
}

func (c *RedisCache) SetStats(ctx context.Context, essentialID uuid.UUID, stats *domain.WindowedStats, ttl time.Duration) {
	c.set(ctx, statsKey(essentialID), stats, ttl)
}

func (c *RedisCache) GetCandles(ctx context.Context, essentialID uuid.UUID) ([]domain.Candle, bool) {
	var candles []domain.Candle
	if !c.get(ctx, candlesKey(essentialID), &candles) {
		return nil, false
	}
	if candles == nil {
		candles = []domain.Candle{}
	}
	return candles, true
}

func (c *RedisCache) SetCandles(ctx context.Context, essentialID uuid.UUID, candles []domain.Candle) {
	c.set(ctx, candlesKey(essentialID), candles, c.candlesTTL)
}

// Invalidate drops every cached series of an essential
func (c *RedisCache) Invalidate(ctx context.Context, essentialID uuid.UUID) error {
	if err := c.client.Del(ctx, statsKey(essentialID), candlesKey(essentialID)).Err(); err != nil {
		c.log.Warn("cache invalidation failed",
			slog.String("essential_id", essentialID.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("cache entry undecodable", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (c *RedisCache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache entry unencodable", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
