package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postal-engine/app/models"
)

func TestCacheService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour, "v1", zap.NewNop())

	_, found, err := cs.Get(ctx, "parse:a")
	require.NoError(t, err)
	assert.False(t, found)

	result := &models.AddressResult{Raw: "Main St", Status: models.StatusOK}
	require.NoError(t, cs.Set(ctx, "parse:a", result))

	got, found, err := cs.Get(ctx, "parse:a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, result, got)

	ok, err := cs.Exists(ctx, "parse:a")
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := cs.GetTTL(ctx, "parse:a")
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	stats, err := cs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &CacheStats{HitRate: 0.5, TotalHits: 1, TotalMiss: 1, TotalItems: 1}, stats)

	require.NoError(t, cs.Delete(ctx, "parse:a"))
	ok, _ = cs.Exists(ctx, "parse:a")
	assert.False(t, ok)
	ttl, _ = cs.GetTTL(ctx, "parse:a")
	assert.Zero(t, ttl)

	require.NoError(t, cs.Set(ctx, "parse:b", result))
	require.NoError(t, cs.Clear(ctx))
	assert.Zero(t, cs.Size())
	stats, _ = cs.GetStats(ctx)
	assert.Equal(t, &CacheStats{}, stats)
	assert.NoError(t, cs.Close())
}

func TestCacheService_InvalidateByModelVersion(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour, "v1", zap.NewNop())
	require.NoError(t, cs.Set(ctx, "old", &models.AddressResult{Raw: "old"}))

	require.NoError(t, cs.InvalidateByModelVersion(ctx, "v2"))
	_, found, _ := cs.Get(ctx, "old")
	assert.False(t, found)

	require.NoError(t, cs.Set(ctx, "new", &models.AddressResult{Raw: "new"}))
	require.NoError(t, cs.InvalidateByModelVersion(ctx, "v2"))
	_, found, _ = cs.Get(ctx, "new")
	assert.True(t, found, "entries of the current version survive")
}

func TestCacheService_Eviction(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(2, time.Hour, "v1", zap.NewNop())
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, cs.Set(ctx, k, &models.AddressResult{Raw: k}))
	}
	assert.Equal(t, 2, cs.Size())
	ok, _ := cs.Exists(ctx, "a")
	assert.False(t, ok)
}

func TestHybridCacheService(t *testing.T) {
	ctx := context.Background()
	fast := NewCacheService(10, time.Hour, "v1", zap.NewNop())
	persistent := NewCacheService(10, time.Hour, "v1", zap.NewNop())
	hcs := NewHybridCacheService(fast, persistent, zap.NewNop())

	result := &models.AddressResult{Raw: "Rope Walk"}
	require.NoError(t, hcs.Set(ctx, "k", result))
	assert.Equal(t, 1, fast.Size())
	assert.Equal(t, 1, persistent.Size())

	require.NoError(t, fast.Delete(ctx, "k"))
	got, found, err := hcs.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, result, got)
	assert.Eventually(t, func() bool { return fast.Size() == 1 }, time.Second, 10*time.Millisecond,
		"L2 hits are promoted to L1")

	ok, err := hcs.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	stats, err := hcs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalItems)

	require.NoError(t, hcs.InvalidateByModelVersion(ctx, "v2"))
	assert.Zero(t, fast.Size())
	assert.Zero(t, persistent.Size())

	require.NoError(t, hcs.Set(ctx, "k", result))
	require.NoError(t, hcs.Delete(ctx, "k"))
	_, found, _ = hcs.Get(ctx, "k")
	assert.False(t, found)
	assert.NoError(t, hcs.Close())
}

func TestVersionedKey(t *testing.T) {
	assert.Equal(t, "postal:v1:parse:abc", versionedKey(redisKeyPrefix, "v1", "parse:abc"))
}

func TestMongoCacheService_Usable(t *testing.T) {
	mcs := &MongoCacheService{ttl: time.Hour}
	mcs.version.Store("v2")

	fresh := models.NewAddressCache("parse:a", models.AddressResult{Raw: "Main St"}, "v2")
	stale := models.NewAddressCache("parse:a", models.AddressResult{Raw: "Main St"}, "v2")
	stale.CreatedAt = time.Now().Add(-2 * time.Hour)
	old := models.NewAddressCache("parse:a", models.AddressResult{Raw: "Main St"}, "v1")

	tests := []struct {
		name  string
		entry *models.AddressCache
		ttl   time.Duration
		want  bool
	}{
		{"fresh", fresh, time.Hour, true},
		{"expired", stale, time.Hour, false},
		{"no ttl", stale, 0, true},
		{"other model version", old, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mcs.ttl = tt.ttl
			assert.Equal(t, tt.want, mcs.usable(tt.entry))
		})
	}
}

func TestRemainingTTL(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 20*time.Minute, remainingTTL(now.Add(-40*time.Minute), time.Hour, now))
	assert.Zero(t, remainingTTL(now.Add(-2*time.Hour), time.Hour, now))
}
