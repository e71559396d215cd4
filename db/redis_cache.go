package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const recordKeyPrefix = "roster:" // String prefix: roster:{kind}:{id} -> JSON encoded record

// RedisOptions configures the redis connection used for the record cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Cache is a byte-oriented key/value cache with expiry.
//
// Every key has a write generation. Writers call Invalidate after they commit, which
// bumps the generation and drops the value. Readers take Version before loading from
// the store and fill with SetIfVersion, so a load that raced a write is never cached.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, version int64, value []byte, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// defaultGenerationTTL bounds how long an idle generation counter is kept. It must
// outlive the value ttl.
const defaultGenerationTTL = 24 * time.Hour

var errStaleFill = errors.New("generation changed")

// RedisCache is a Cache backed by redis.
type RedisCache struct {
	Client        *redis.Client
	GenerationTTL time.Duration
}

// NewRedisCache creates a new RedisCache instance
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client, GenerationTTL: defaultGenerationTTL}
}

// Helper to generate record cache key
func recordKey(kind string, id int64) string {
	return recordKeyPrefix + kind + ":" + strconv.FormatInt(id, 10)
}

// Helper to generate the generation counter key of a cache key
func generationKey(key string) string {
	return key + ":gen"
}

// Get returns the cached value, or false when the key is absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}
	return data, true, nil
}

// Version returns the write generation of key. A key never written has generation 0.
func (c *RedisCache) Version(ctx context.Context, key string) (int64, error) {
	v, err := c.Client.Get(ctx, generationKey(key)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to get generation of %s from Redis: %w", key, err)
	}
	return v, nil
}

// SetIfVersion stores value under key unless the generation of key moved past version.
// The check and the write run in one WATCH/MULTI transaction.
func (c *RedisCache) SetIfVersion(ctx context.Context, key string, version int64, value []byte, ttl time.Duration) (bool, error) {
	genKey := generationKey(key)
	err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("failed to set %s in Redis: %w", key, err)
	}
}

// Invalidate bumps the generation of key and removes its value in one transaction.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	genKey := generationKey(key)
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		if c.GenerationTTL > 0 {
			pipe.Expire(ctx, genKey, c.GenerationTTL)
		}
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate %s in Redis: %w", key, err)
	}
	return nil
}

// InitializeRedisClient creates a Redis client and pings it.
func InitializeRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
