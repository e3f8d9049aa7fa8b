package services

import (
	"context"
	"time"

	"github.com/postal-engine/app/models"
)

// CacheStats summarizes cache effectiveness.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

func newCacheStats(hits, misses, items int64) *CacheStats {
	stats := &CacheStats{TotalHits: hits, TotalMiss: misses, TotalItems: items}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

// ICacheService stores operation results keyed by utils.CacheKey.
type ICacheService interface {
	Get(ctx context.Context, key string) (*models.AddressResult, bool, error)
	Set(ctx context.Context, key string, result *models.AddressResult) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	// InvalidateByModelVersion drops every entry produced by a model
	// version other than currentVersion.
	InvalidateByModelVersion(ctx context.Context, currentVersion string) error

	GetStats(ctx context.Context) (*CacheStats, error)
	Exists(ctx context.Context, key string) (bool, error)
	// GetTTL returns the remaining lifetime of key, 0 when it has none.
	GetTTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}
