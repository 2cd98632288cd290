// Package redis provides a Redis-backed read-through cache for component
// definitions, so identical addresses across documents and instances
// resolve from a single underlying fetch.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/futurepaul/hypernote-pages/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Cache implements ports.ComponentFetcher on top of another fetcher,
// caching resolved component ASTs in Redis.
type Cache struct {
	client *backend.Client
	next   ports.ComponentFetcher
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Cache.
type Option func(*Cache)

// WithTTL sets the cache entry lifetime (default 10 minutes).
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLogger sets a logger for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// NewCache creates a read-through cache in front of next.
func NewCache(client *backend.Client, next ports.ComponentFetcher, prefix string, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		next:   next,
		prefix: prefix,
		ttl:    10 * time.Minute,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(address string) string {
	return c.prefix + "component:" + address
}

// Fetch returns the cached AST when present and falls back to the inner
// fetcher on miss. Cache errors degrade to a plain fetch; they never fail
// the resolution.
func (c *Cache) Fetch(ctx context.Context, address string) (*domain.Node, error) {
	data, err := c.client.Get(ctx, c.key(address)).Bytes()
	if err == nil {
		var node domain.Node
		if jsonErr := json.Unmarshal(data, &node); jsonErr == nil {
			return &node, nil
		}
		// Corrupt entry: fall through and refetch.
		c.logger.Warn("corrupt component cache entry", "address", address)
	} else if err != backend.Nil {
		c.logger.Warn("component cache read failed", "address", address, "err", err)
	}

	node, err := c.next.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(node); err == nil {
		if err := c.client.Set(ctx, c.key(address), data, c.ttl).Err(); err != nil {
			c.logger.Warn("component cache write failed", "address", address, "err", err)
		}
	}
	return node, nil
}

// Invalidate drops one cached component.
func (c *Cache) Invalidate(ctx context.Context, address string) error {
	if err := c.client.Del(ctx, c.key(address)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", address, err)
	}
	return nil
}
