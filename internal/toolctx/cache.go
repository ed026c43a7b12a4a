package toolctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/classifier"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

// RedisConfig holds cache connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// CachedProvider serves payloads from Redis and fills misses from the wrapped
// provider. Redis failures fall through to the wrapped provider.
type CachedProvider struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *logger.Logger
}

// NewCachedProvider connects to Redis and wraps next.
func NewCachedProvider(ctx context.Context, cfg RedisConfig, next Provider, log *logger.Logger) (*CachedProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &CachedProvider{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: "toolctx:",
		logger: log,
	}, nil
}

func (c *CachedProvider) key(req classifier.Request) string {
	return c.prefix + string(req.Kind) + ":" + req.Tag
}

// Fetch returns the cached payload for req or loads and caches it.
func (c *CachedProvider) Fetch(ctx context.Context, req classifier.Request) (*Payload, error) {
	key := c.key(req)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Payload
		if jsonErr := json.Unmarshal(data, &p); jsonErr == nil && !p.Empty() {
			return &p, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("tool context cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("tool context cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return p, nil
}

// Ping checks the Redis connection.
func (c *CachedProvider) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *CachedProvider) Close() error {
	return c.client.Close()
}
