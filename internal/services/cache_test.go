package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kermittech/cv-screener/internal/models"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey(SchemaCV, "granite3.3", "prompt")
	assert.Len(t, a, 64)
	assert.Equal(t, a, CacheKey(SchemaCV, "granite3.3", "prompt"))
	assert.NotEqual(t, a, CacheKey(SchemaAudio, "granite3.3", "prompt"))
	assert.NotEqual(t, a, CacheKey(SchemaCV, "llama3", "prompt"))
	assert.NotEqual(t, a, CacheKey(SchemaCV, "granite3.3", "prompt "))
}

func TestRedisResultCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewRedisResultCache(client, time.Minute)
	ctx := context.Background()

	var out models.CandidateRecord
	hit, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	in := models.CandidateRecord{Name: "Jane Roe", AverageScore: 3.5, InterviewQuestions: []string{"Q1"}}
	require.NoError(t, cache.Set(ctx, "k", in))
	assert.True(t, mr.Exists(cacheKeyPrefix+"k"))
	assert.Equal(t, time.Minute, mr.TTL(cacheKeyPrefix+"k"))

	hit, err = cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, in, out)

	mr.FastForward(2 * time.Minute)
	hit, err = cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisResultCache_CorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set(cacheKeyPrefix+"bad", "not json"))

	var out models.CandidateRecord
	hit, err := NewRedisResultCache(client, time.Minute).Get(context.Background(), "bad", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestNoopResultCache(t *testing.T) {
	cache := NewNoopResultCache()
	require.NoError(t, cache.Set(context.Background(), "k", 1))
	var out int
	hit, err := cache.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}
