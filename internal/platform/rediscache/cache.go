package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/harumcare/harumcare-backend/internal/platform/envutil"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

// Cache is a small JSON cache in front of expensive read paths (campaign
// statistics). Misses and redis failures are both reported as ErrMiss so
// callers fall through to the store.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

var ErrMiss = fmt.Errorf("cache miss")

type cache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func New(log *logger.Logger) (Cache, error) {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &cache{
		log: log.With("service", "RedisCache"),
		rdb: rdb,
	}, nil
}

func (c *cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return ErrMiss
	}
	if err != nil {
		c.log.Warn("redis get failed, treating as miss", "key", key, "error", err)
		return ErrMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("cached value undecodable, treating as miss", "key", key, "error", err)
		return ErrMiss
	}
	return nil
}

func (c *cache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *cache) Close() error {
	return c.rdb.Close()
}

// Noop returns a cache that always misses, for deployments without redis.
func Noop() Cache { return noopCache{} }

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, dest any) error { return ErrMiss }
func (noopCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	return nil
}
func (noopCache) Delete(ctx context.Context, keys ...string) error { return nil }
func (noopCache) Close() error                                     { return nil }
