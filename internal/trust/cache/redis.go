package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nintynick/transitive-trust-sub001/internal/domain"
	id "github.com/nintynick/transitive-trust-sub001/pkg/domain"
)

// RedisCache shares results across instances. Invalidation uses a per-domain
// generation counter baked into every entry key: bumping the counter orphans
// all prior entries at once, and orphans age out via TTL instead of being
// deleted individually.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithRedisLogger sets a logger for backend failures. The cache itself never
// surfaces them; a broken backend degrades to a miss.
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(c *RedisCache) { c.logger = logger }
}

// NewRedisCache creates a cache over an existing client. ttl bounds entry
// lifetime and reclaims orphaned generations.
func NewRedisCache(client *redis.Client, ttl time.Duration, opts ...RedisOption) *RedisCache {
	c := &RedisCache{client: client, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) Get(ctx context.Context, key Key) (domain.Result, bool) {
	entryKey, err := c.entryKey(ctx, key)
	if err != nil {
		c.logFailure(ctx, "resolve generation", err)
		return domain.Result{}, false
	}

	raw, err := c.client.Get(ctx, entryKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logFailure(ctx, "get entry", err)
		}
		return domain.Result{}, false
	}

	var result domain.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logFailure(ctx, "decode entry", err)
		return domain.Result{}, false
	}
	return result, true
}

func (c *RedisCache) Set(ctx context.Context, key Key, result domain.Result) {
	entryKey, err := c.entryKey(ctx, key)
	if err != nil {
		c.logFailure(ctx, "resolve generation", err)
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		c.logFailure(ctx, "encode entry", err)
		return
	}
	if err := c.client.Set(ctx, entryKey, raw, c.ttl).Err(); err != nil {
		c.logFailure(ctx, "set entry", err)
	}
}

func (c *RedisCache) InvalidateDomain(ctx context.Context, domainID id.DomainID) {
	if err := c.client.Incr(ctx, c.generationKey(domainID)).Err(); err != nil {
		c.logFailure(ctx, "bump generation", err)
	}
}

func (c *RedisCache) generationKey(domainID id.DomainID) string {
	return "trust:gen:" + domainID.String()
}

func (c *RedisCache) entryKey(ctx context.Context, key Key) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey(key.Domain)).Result()
	if err == redis.Nil {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return "g" + gen + ":" + key.String(), nil
}

func (c *RedisCache) logFailure(ctx context.Context, op string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, "result cache degraded", "op", op, "error", err)
	}
}
