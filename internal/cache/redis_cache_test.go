package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

type cachedResult struct {
	QuizID string `json:"quiz_id"`
	Score  int    `json:"score"`
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "result:1", cachedResult{QuizID: "ads-basics", Score: 75}, time.Minute))

	var got cachedResult
	require.NoError(t, c.Get(ctx, "result:1", &got))
	assert.Equal(t, cachedResult{QuizID: "ads-basics", Score: 75}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "result:1", &got), ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "quiz:a:1", 1, 0))
	require.NoError(t, c.Set(ctx, "quiz:a:2", 2, 0))
	require.NoError(t, c.Set(ctx, "quiz:b:1", 3, 0))

	require.NoError(t, c.Delete(ctx, "quiz:b:1"))
	assert.False(t, mr.Exists("quiz:b:1"))

	require.NoError(t, c.DeletePattern(ctx, "quiz:a:*"))
	assert.False(t, mr.Exists("quiz:a:1"))
	assert.False(t, mr.Exists("quiz:a:2"))

	require.NoError(t, c.DeletePattern(ctx, "nothing:*"))
}

func TestRedisCache_SetNX(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "attempt:x", true, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "attempt:x", true, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}
