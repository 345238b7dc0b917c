package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/redis/go-redis/v9"
)

// generationTTL only has to outlive a read-through load.
const generationTTL = time.Hour

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// OpenRedis connects and pings; callers fall back to MemoryCache when it fails.
func OpenRedis(ctx context.Context, cfg internal.RedisConfig) (*RedisCache, error) {
	cfg = withDefaults(cfg)
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func withDefaults(cfg internal.RedisConfig) internal.RedisConfig {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 2 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 20
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "assetlc:"
	}
	return cfg
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

func (c *RedisCache) Generation(ctx context.Context, key string) (uint64, error) {
	return generation(ctx, c.client, c.generationKey(key))
}

// SetIfGeneration watches the generation key so an Invalidate landing
// between the check and the write aborts the write.
func (c *RedisCache) SetIfGeneration(ctx context.Context, key string, value interface{}, gen uint64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	genKey := c.generationKey(key)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.prefix+key, raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Del(ctx, c.prefix+k)
			pipe.Incr(ctx, c.generationKey(k))
			pipe.Expire(ctx, c.generationKey(k), generationTTL)
		}
		return nil
	})
	return err
}

func (c *RedisCache) generationKey(key string) string {
	return c.prefix + "gen:" + key
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, client stringGetter, genKey string) (uint64, error) {
	gen, err := client.Get(ctx, genKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
