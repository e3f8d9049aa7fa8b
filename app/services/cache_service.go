package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/postal-engine/app/models"
)

const (
	defaultCacheSize = 10000
	defaultCacheTTL  = 24 * time.Hour
)

type memoryEntry struct {
	result    *models.AddressResult
	version   string
	expiresAt time.Time
}

// CacheService is an in-process LRU cache with a fixed TTL per entry.
type CacheService struct {
	cache   *expirable.LRU[string, memoryEntry]
	ttl     time.Duration
	version atomic.Value
	logger  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates an LRU holding at most size entries for ttl.
// Entries are tagged with modelVersion.
func NewCacheService(size int, ttl time.Duration, modelVersion string, logger *zap.Logger) *CacheService {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cs := &CacheService{
		cache:  expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		ttl:    ttl,
		logger: logger,
	}
	cs.version.Store(modelVersion)
	return cs
}

func (cs *CacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	entry, ok := cs.cache.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return entry.result, true, nil
}

func (cs *CacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	cs.cache.Add(key, memoryEntry{
		result:    result,
		version:   cs.version.Load().(string),
		expiresAt: time.Now().Add(cs.ttl),
	})
	return nil
}

func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.cache.Remove(key)
	return nil
}

func (cs *CacheService) Clear(ctx context.Context) error {
	cs.cache.Purge()
	cs.hits.Store(0)
	cs.misses.Store(0)
	return nil
}

func (cs *CacheService) InvalidateByModelVersion(ctx context.Context, currentVersion string) error {
	removed := 0
	for _, key := range cs.cache.Keys() {
		if entry, ok := cs.cache.Peek(key); ok && entry.version != currentVersion {
			cs.cache.Remove(key)
			removed++
		}
	}
	cs.version.Store(currentVersion)
	cs.logger.Info("Invalidated memory cache",
		zap.String("model_version", currentVersion),
		zap.Int("removed", removed))
	return nil
}

func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	return newCacheStats(cs.hits.Load(), cs.misses.Load(), int64(cs.cache.Len())), nil
}

func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	return cs.cache.Contains(key), nil
}

func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	entry, ok := cs.cache.Peek(key)
	if !ok {
		return 0, nil
	}
	return max(time.Until(entry.expiresAt), 0), nil
}

// Size returns the number of live entries.
func (cs *CacheService) Size() int {
	return cs.cache.Len()
}

func (cs *CacheService) Close() error {
	return nil
}
