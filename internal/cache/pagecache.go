package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// PageCache stores fully rendered responses for a fixed time. Entries are never
// updated in place: they expire or are dropped together by Clear.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	// Clear drops every entry owned by the cache.
	Clear(ctx context.Context) error
}

// RedisPageCache keeps rendered pages in Redis under a shared key prefix.
type RedisPageCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisPageCache returns a cache whose keys must start with prefix.
func NewRedisPageCache(rdb *redis.Client, prefix string) *RedisPageCache {
	return &RedisPageCache{rdb: rdb, prefix: prefix}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, body, ttl).Err()
}

func (c *RedisPageCache) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

type memoryEntry struct {
	body      []byte
	expiresAt time.Time
}

// MemoryPageCache is the single-process fallback used when Redis is unavailable.
type MemoryPageCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryPageCache returns an empty in-process cache.
func NewMemoryPageCache() *MemoryPageCache {
	return &MemoryPageCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.evictIfExpired(key)
		return nil, false, nil
	}
	return entry.body, true, nil
}

// evictIfExpired drops key only if the entry stored now is still expired;
// a Set racing between Get's read and this call keeps its fresh entry.
func (c *MemoryPageCache) evictIfExpired(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
	}
}

func (c *MemoryPageCache) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{body: body, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryPageCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// NewPageCache picks the Redis-backed cache when a client is available.
func NewPageCache(rdb *redis.Client, prefix string) PageCache {
	if rdb == nil {
		return NewMemoryPageCache()
	}
	return NewRedisPageCache(rdb, prefix)
}

// CachePage serves GET responses from pc for ttl. Only 200 responses are stored;
// a failing cache never fails the request.
func CachePage(pc PageCache, ttl time.Duration, key func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if pc == nil || ttl <= 0 || c.Method() != fiber.MethodGet {
			return c.Next()
		}

		ctx := c.UserContext()
		k := key(c)

		body, ok, err := pc.Get(ctx, k)
		switch {
		case err != nil:
			observability.PageCacheLookups.WithLabelValues("error").Inc()
			middleware.Logger.WarnContext(ctx, "page cache read failed", slog.String("key", k), slog.String("error", err.Error()))
		case ok:
			observability.PageCacheLookups.WithLabelValues("hit").Inc()
			c.Set("X-Cache", "HIT")
			c.Type("html", "utf-8")
			return c.Send(body)
		default:
			observability.PageCacheLookups.WithLabelValues("miss").Inc()
		}

		if err := c.Next(); err != nil {
			return err
		}
		c.Set("X-Cache", "MISS")

		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		rendered := append([]byte(nil), c.Response().Body()...)
		if err := pc.Set(ctx, k, rendered, ttl); err != nil {
			middleware.Logger.WarnContext(ctx, "page cache write failed", slog.String("key", k), slog.String("error", err.Error()))
		}
		return nil
	}
}
