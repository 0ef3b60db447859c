package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisPageCache_SetGetExpire(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	pc := NewRedisPageCache(rdb, IndexPagePrefix)
	ctx := context.Background()
	key := IndexPageKey(0, "1")

	_, ok, err := pc.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, pc.Set(ctx, key, []byte("<html>v1</html>"), 20*time.Second))

	body, ok, err := pc.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<html>v1</html>", string(body))

	mr.FastForward(21 * time.Second)

	_, ok, err = pc.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPageCache_ClearOnlyOwnPrefix(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	pc := NewRedisPageCache(rdb, IndexPagePrefix)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, pc.Set(ctx, IndexPageKey(uint(i), "1"), []byte("x"), time.Minute))
	}
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, pc.Clear(ctx))

	_, ok, err := pc.Get(ctx, IndexPageKey(3, "1"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("other:key"))
}

func TestMemoryPageCache(t *testing.T) {
	pc := NewMemoryPageCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, "k", []byte("v"), 20*time.Second))

	body, ok, _ := pc.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", string(body))

	now = now.Add(20 * time.Second)
	_, ok, _ = pc.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, pc.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, pc.Clear(ctx))
	_, ok, _ = pc.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryPageCache_EvictionKeepsFreshEntry(t *testing.T) {
	pc := NewMemoryPageCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, "k", []byte("old"), time.Second))
	now = now.Add(2 * time.Second)

	// a Set lands after Get saw the expired entry but before it evicts
	require.NoError(t, pc.Set(ctx, "k", []byte("fresh"), time.Minute))
	pc.evictIfExpired("k")

	body, ok, err := pc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", string(body))

	now = now.Add(2 * time.Minute)
	pc.evictIfExpired("k")
	pc.mu.RLock()
	_, stored := pc.entries["k"]
	pc.mu.RUnlock()
	assert.False(t, stored)
}

func TestNewPageCache_FallsBackWithoutRedis(t *testing.T) {
	assert.IsType(t, &MemoryPageCache{}, NewPageCache(nil, IndexPagePrefix))

	_, rdb := newMiniRedis(t)
	assert.IsType(t, &RedisPageCache{}, NewPageCache(rdb, IndexPagePrefix))
}

func TestCachePage_ServesStaleUntilCleared(t *testing.T) {
	_, rdb := newMiniRedis(t)
	pc := NewRedisPageCache(rdb, IndexPagePrefix)

	version := "first"
	app := fiber.New()
	app.Get("/", CachePage(pc, 20*time.Second, func(c *fiber.Ctx) string {
		return IndexPageKey(0, c.Query("page"))
	}), func(c *fiber.Ctx) error {
		return c.SendString(version)
	})

	get := func() (string, string) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body), resp.Header.Get("X-Cache")
	}

	body, state := get()
	assert.Equal(t, "first", body)
	assert.Equal(t, "MISS", state)

	version = "second"
	body, state = get()
	assert.Equal(t, "first", body)
	assert.Equal(t, "HIT", state)

	require.NoError(t, pc.Clear(context.Background()))
	body, state = get()
	assert.Equal(t, "second", body)
	assert.Equal(t, "MISS", state)
}

func TestCachePage_SkipsErrorResponses(t *testing.T) {
	pc := NewMemoryPageCache()
	app := fiber.New()
	app.Get("/", CachePage(pc, time.Minute, func(_ *fiber.Ctx) string { return "k" }), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("missing")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, ok, _ := pc.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "index_page:0:1", IndexPageKey(0, ""))
	assert.Equal(t, "index_page:5:2", IndexPageKey(5, "2"))
	assert.Equal(t, "revoked_token:abc", RevokedTokenKey("abc"))
	assert.Equal(t, time.Second, RevocationTTL(time.Now().Add(-time.Hour)))
	assert.Greater(t, RevocationTTL(time.Now().Add(time.Hour)), 59*time.Minute)
}
