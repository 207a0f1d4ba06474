package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.CodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.CodeSerialization, "serialization failed")
)

// Cache stores JSON-encoded values under a key prefix.
type Cache interface {
	// Get decodes the value stored under key into dest.  ErrCacheMiss is
	// returned when the key is absent.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores value with ttl, or the default TTL when ttl is zero.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// GetOrLoad serves key from the cache or calls loader once per key
	// across concurrent callers and stores its result.
	GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPrefix removes every key starting with prefix and returns the
	// number removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	Ping(ctx context.Context) error
}

type redisCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	jitter     float64
	group      singleflight.Group
}

type CacheOption func(*redisCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.defaultTTL = ttl }
}

// WithJitter spreads expiry by up to +/- fraction of the TTL.  Zero disables
// jitter.
func WithJitter(fraction float64) CacheOption {
	return func(c *redisCache) { c.jitter = fraction }
}

func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &redisCache{
		client:     client,
		logger:     log,
		prefix:     "smiles:",
		defaultTTL: time.Hour,
		jitter:     0.1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string { return c.prefix + key }

func (c *redisCache) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if c.jitter == 0 || ttl <= 0 {
		return ttl
	}
	return ttl + time.Duration(float64(ttl)*c.jitter*(rand.Float64()*2-1))
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "failed to read from cache")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.ttl(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "failed to write to cache")
	}
	return nil
}

func (c *redisCache) GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.IsCode(err, errors.CodeNotFound) {
		c.logger.Warn("cache read failed, loading directly", logging.String("key", key), logging.Err(err))
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("cache write failed", logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})
	if err != nil {
		return err
	}
	data, err := json.Marshal(val)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	return json.Unmarshal(data, dest)
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	return c.client.Del(ctx, full...).Err()
}

func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		deleted int64
		cursor  uint64
	)
	match := c.fullKey(prefix) + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.CodeCacheError, "failed to scan cache keys")
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, errors.Wrap(err, errors.CodeCacheError, "failed to delete cache keys")
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}
