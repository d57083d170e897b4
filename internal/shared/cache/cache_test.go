package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func setup(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisCache(rdb, "fb:", time.Minute), mr
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := setup(t)

	var got doc
	hit, err := c.Get(ctx, "form:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "form:1", doc{ID: "1", Name: "Signup"}))
	assert.True(t, mr.Exists("fb:form:1"))
	assert.Equal(t, time.Minute, mr.TTL("fb:form:1"))

	hit, err = c.Get(ctx, "form:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Signup", got.Name)

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, "form:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDeleteAndPrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := setup(t)

	for _, k := range []string{"form:1", "form:2", "layout:categories"} {
		require.NoError(t, c.Set(ctx, k, doc{ID: k}))
	}
	require.NoError(t, c.Delete(ctx, "form:1"))
	assert.False(t, mr.Exists("fb:form:1"))

	require.NoError(t, c.DeletePrefix(ctx, "form:"))
	assert.False(t, mr.Exists("fb:form:2"))
	assert.True(t, mr.Exists("fb:layout:categories"))
}

func TestCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := setup(t)
	require.NoError(t, mr.Set("fb:bad", "{"))

	var got doc
	_, err := c.Get(ctx, "bad", &got)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	hit, err := c.Get(context.Background(), "x", &doc{})
	assert.NoError(t, err)
	assert.False(t, hit)
}
