package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bar-order-api/models"

	"github.com/redis/go-redis/v9"
)

const (
	productListKey = "products:all"
	generationKey  = "products:gen"
)

// ProductCache holds the serialized product list. Every Invalidate bumps a
// generation counter; SetProducts only stores a list read under the current
// generation, so a slow reader cannot put back rows a writer just replaced.
type ProductCache interface {
	GetProducts(ctx context.Context) ([]models.Product, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetProducts(ctx context.Context, gen int64, products []models.Product) error
	Invalidate(ctx context.Context) error
}

type RedisProductCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, prefix string, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisProductCache) key() string {
	return c.prefixed(productListKey)
}

func (c *RedisProductCache) genKey() string {
	return c.prefixed(generationKey)
}

func (c *RedisProductCache) prefixed(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Generation returns the current invalidation counter; zero before the first write
func (c *RedisProductCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read product cache generation: %w", err)
	}
	return gen, nil
}

// GetProducts reports ok=false on a cache miss
func (c *RedisProductCache) GetProducts(ctx context.Context) ([]models.Product, bool, error) {
	raw, err := c.client.Get(ctx, c.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read product cache: %w", err)
	}
	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("decode product cache: %w", err)
	}
	return products, true, nil
}

// SetProducts stores the list read under gen. It is a no-op when an
// invalidation happened since, including one racing with this call.
func (c *RedisProductCache) SetProducts(ctx context.Context, gen int64, products []models.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode product cache: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, c.genKey()).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(), raw, c.ttl)
			return nil
		})
		return err
	}, c.genKey())
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("write product cache: %w", err)
	}
	return nil
}

func (c *RedisProductCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey())
		pipe.Del(ctx, c.key())
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate product cache: %w", err)
	}
	return nil
}

// NewRedisClient connects and pings; callers fall back to no cache on error
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}
