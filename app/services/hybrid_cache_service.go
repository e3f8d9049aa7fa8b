package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/postal-engine/app/models"
)

// HybridCacheService reads through a fast cache (Redis) to a persistent
// one (MongoDB) and writes to both.
type HybridCacheService struct {
	fast       ICacheService
	persistent ICacheService
	logger     *zap.Logger
}

// NewHybridCacheService combines fast (L1) and persistent (L2) caches.
func NewHybridCacheService(fast, persistent ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{fast: fast, persistent: persistent, logger: logger}
}

func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	result, found, err := hcs.fast.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 cache failed, falling back to L2", zap.Error(err))
	} else if found {
		return result, true, nil
	}

	result, found, err = hcs.persistent.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hcs.fast.Set(bgCtx, key, result); err != nil {
			hcs.logger.Warn("Failed to promote entry to L1", zap.Error(err), zap.String("key", key))
		}
	}()
	return result, true, nil
}

// both runs op on the two layers concurrently and joins their errors.
func (hcs *HybridCacheService) both(op func(ICacheService) error) error {
	var g errgroup.Group
	errs := make([]error, 2)
	for i, c := range []ICacheService{hcs.fast, hcs.persistent} {
		i, c := i, c
		g.Go(func() error {
			errs[i] = op(c)
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	if err := hcs.both(func(c ICacheService) error { return c.Set(ctx, key, result) }); err != nil {
		return fmt.Errorf("hybrid cache set: %w", err)
	}
	return nil
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	if err := hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) }); err != nil {
		return fmt.Errorf("hybrid cache delete: %w", err)
	}
	return nil
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return fmt.Errorf("hybrid cache clear: %w", err)
	}
	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

func (hcs *HybridCacheService) InvalidateByModelVersion(ctx context.Context, currentVersion string) error {
	err := hcs.both(func(c ICacheService) error { return c.InvalidateByModelVersion(ctx, currentVersion) })
	if err != nil {
		return fmt.Errorf("hybrid cache invalidate: %w", err)
	}
	return nil
}

// GetStats sums both layers; a failing layer is left out.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	fast, fastErr := hcs.fast.GetStats(ctx)
	persistent, persistentErr := hcs.persistent.GetStats(ctx)
	switch {
	case fastErr != nil && persistentErr != nil:
		return nil, fmt.Errorf("hybrid cache stats: %w", errors.Join(fastErr, persistentErr))
	case fastErr != nil:
		return persistent, nil
	case persistentErr != nil:
		return fast, nil
	}
	return newCacheStats(
		fast.TotalHits+persistent.TotalHits,
		fast.TotalMiss+persistent.TotalMiss,
		fast.TotalItems+persistent.TotalItems,
	), nil
}

func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := hcs.fast.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 exists failed, falling back to L2", zap.Error(err))
	} else if ok {
		return true, nil
	}
	return hcs.persistent.Exists(ctx, key)
}

func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.fast.GetTTL(ctx, key)
}

func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() })
}
