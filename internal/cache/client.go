// Package cache wraps a pooled Redis client with namespaced keys and JSON
// helpers. The cache is an optimization layer only: deserialization failures
// surface as misses, never as errors.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultExpiry = 12 * time.Hour

type Client struct {
	rdb           *redis.Client
	metaNamespace string
}

type Config struct {
	Addr          string
	DB            int
	PoolSize      int
	MetaNamespace string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{rdb: rdb, metaNamespace: cfg.MetaNamespace}, nil
}

// NewClientFromRedis wraps an existing redis client; used by tests.
func NewClientFromRedis(rdb *redis.Client, metaNamespace string) *Client {
	return &Client{rdb: rdb, metaNamespace: metaNamespace}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) key(namespace, id string) string {
	return fmt.Sprintf("%s_%s:%s", c.metaNamespace, namespace, id)
}

// Set stores a raw string value. A non-positive expiry falls back to the
// default 12h; the cache never stores immortal keys.
func (c *Client) Set(ctx context.Context, namespace, id, value string, expiry time.Duration) error {
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	return c.rdb.Set(ctx, c.key(namespace, id), value, expiry).Err()
}

func (c *Client) Get(ctx context.Context, namespace, id string) (string, bool, error) {
	value, err := c.rdb.Get(ctx, c.key(namespace, id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *Client) SetJSON(ctx context.Context, namespace, id string, value any, expiry time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, namespace, id, string(raw), expiry)
}

// GetJSON unmarshals the stored value into out. A missing key or a value
// that fails to parse both report a miss.
func (c *Client) GetJSON(ctx context.Context, namespace, id string, out any) (bool, error) {
	value, ok, err := c.Get(ctx, namespace, id)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, nil
	}
	return true, nil
}

// GetMany returns one slot per requested id, in input order; missing keys
// yield nil slots.
func (c *Client) GetMany(ctx context.Context, namespace string, ids []string) ([]*string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(namespace, id)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*string, len(ids))
	for i, value := range values {
		if s, ok := value.(string); ok {
			result[i] = &s
		}
	}
	return result, nil
}

// GetManyJSON decodes each present slot into a freshly allocated T. Slots
// that are absent or fail to parse stay nil.
func GetManyJSON[T any](ctx context.Context, c *Client, namespace string, ids []string) ([]*T, error) {
	raw, err := c.GetMany(ctx, namespace, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*T, len(raw))
	for i, value := range raw {
		if value == nil {
			continue
		}
		out := new(T)
		if err := json.Unmarshal([]byte(*value), out); err != nil {
			continue
		}
		result[i] = out
	}
	return result, nil
}

// Delete is best-effort: deleting an absent key is not an error.
func (c *Client) Delete(ctx context.Context, namespace, id string) error {
	return c.rdb.Del(ctx, c.key(namespace, id)).Err()
}

func (c *Client) DeleteMany(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(namespace, id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
