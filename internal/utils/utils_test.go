package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "alice", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT(1, "alice", "secret", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	type entry struct{ Name string }
	var got entry
	hit, err := GetCache(ctx, rdb, ProductKey(1), &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, SetCache(ctx, rdb, ProductKey(1), entry{Name: "Lamp"}, ProductTTL))
	hit, err = GetCache(ctx, rdb, ProductKey(1), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Lamp", got.Name)

	require.NoError(t, InvalidateProducts(ctx, rdb, 1, 2))
	assert.False(t, mr.Exists(ProductKey(1)))
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()
	var dest map[string]any
	hit, err := GetCache(ctx, nil, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, SetCache(ctx, nil, "k", 1, time.Minute))
	assert.NoError(t, InvalidateProducts(ctx, nil, 1))
}
