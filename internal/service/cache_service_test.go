package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("dial tcp: connection refused")
}

func (brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("dial tcp: connection refused")
}

func (brokenCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("dial tcp: connection refused")
}

func TestCacheServiceDisabledIsAlwaysMiss(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, svc.Set(context.Background(), "birthdays:x", 1, 0))
	assert.Empty(t, repo.entries)

	var out int
	hit, err := svc.Get(context.Background(), "birthdays:x", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, (*CacheService)(nil).Enabled())
}

func TestCacheServiceHitMissAndInvalidate(t *testing.T) {
	metrics := NewMetricsService()
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, BirthdayCachePrefix+"a", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, BirthdayCachePrefix+"a", "ana", 0))
	require.NoError(t, svc.Set(ctx, "other:b", "bia", 0))

	hit, err = svc.Get(ctx, BirthdayCachePrefix+"a", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "ana", out)

	require.NoError(t, svc.Invalidate(ctx, BirthdayCachePattern))
	assert.NotContains(t, repo.entries, BirthdayCachePrefix+"a")
	assert.Contains(t, repo.entries, "other:b")

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.CacheHits)
	assert.EqualValues(t, 1, snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
}

func TestCacheServiceBackendFailure(t *testing.T) {
	svc := NewCacheService(brokenCacheRepo{}, nil, 0, nil, true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, "birthdays:a", &out)
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Error(t, svc.Set(ctx, "birthdays:a", "x", 0))
	assert.Error(t, svc.Invalidate(ctx, BirthdayCachePattern))
}
