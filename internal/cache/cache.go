// Package cache holds the public directory projection in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"afa.directory/internal/directory"
	"afa.directory/internal/obs"
)

const (
	DefaultKey = "directory:visible"
	DefaultTTL = 30 * time.Second
)

var _ directory.ListingCache = (*DirectoryCache)(nil)

// Connect creates a Redis client and verifies connectivity.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// DirectoryCache stores the visible employee projection under one key.
// Redis failures degrade to a miss; the database stays the source of truth.
type DirectoryCache struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

type Option func(*DirectoryCache)

func WithKey(key string) Option {
	return func(c *DirectoryCache) {
		if key != "" {
			c.key = key
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(c *DirectoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *DirectoryCache) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(rdb *redis.Client, opts ...Option) *DirectoryCache {
	c := &DirectoryCache{
		rdb:    rdb,
		key:    DefaultKey,
		ttl:    DefaultTTL,
		logger: obs.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *DirectoryCache) Get(ctx context.Context) ([]directory.EmployeeView, bool) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		obs.DirectoryCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		obs.DirectoryCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("directory cache read failed", zap.Error(err))
		return nil, false
	}
	var views []directory.EmployeeView
	if err := json.Unmarshal(raw, &views); err != nil {
		obs.DirectoryCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("directory cache entry corrupt", zap.Error(err))
		c.Invalidate(ctx)
		return nil, false
	}
	obs.DirectoryCacheLookups.WithLabelValues("hit").Inc()
	return views, true
}

func (c *DirectoryCache) Set(ctx context.Context, views []directory.EmployeeView) {
	if views == nil {
		views = []directory.EmployeeView{}
	}
	raw, err := json.Marshal(views)
	if err != nil {
		c.logger.Warn("directory cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("directory cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached projection. It runs detached from request
// cancellation since it follows an already committed mutation.
func (c *DirectoryCache) Invalidate(ctx context.Context) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := c.rdb.Del(delCtx, c.key).Err(); err != nil {
		c.logger.Warn("directory cache invalidate failed", zap.Error(err))
	}
}
