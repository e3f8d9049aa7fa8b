package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/postal-engine/app/models"
	"github.com/postal-engine/app/requests"
	"github.com/postal-engine/app/responses"
	"github.com/postal-engine/internal/search"
	"github.com/postal-engine/postal"
)

// ErrSearchDisabled is returned by index operations when no search
// backend is configured.
var ErrSearchDisabled = errors.New("search index is not configured")

// AddressIndex is the search backend of the admin endpoints.
type AddressIndex interface {
	Index(ctx context.Context, docs []models.IndexedAddress) (int, error)
	Search(ctx context.Context, query string, filter search.Filter, limit int) ([]models.SearchHit, error)
}

// AdminService manages model modules, the result cache and the search
// index.
type AdminService struct {
	engine    *postal.Engine
	cache     ICacheService
	index     AddressIndex
	addresses *AddressService
	logger    *zap.Logger
}

// NewAdminService wires the admin operations. cache and index may be nil.
func NewAdminService(engine *postal.Engine, cache ICacheService, index AddressIndex, addresses *AddressService, logger *zap.Logger) *AdminService {
	return &AdminService{
		engine:    engine,
		cache:     cache,
		index:     index,
		addresses: addresses,
		logger:    logger,
	}
}

func parseModules(names []string) ([]postal.Module, error) {
	modules, err := postal.ParseModules(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return modules, nil
}

// SetupModules loads the named modules and returns the resident set.
func (as *AdminService) SetupModules(ctx context.Context, names []string) (map[string]int, error) {
	modules, err := parseModules(names)
	if err != nil {
		return nil, err
	}
	if err := as.engine.Setup(ctx, modules...); err != nil {
		return nil, err
	}
	as.logger.Info("Modules set up", zap.Strings("modules", names))
	return as.engine.Loaded(), nil
}

// TeardownModules releases one reference to each named module.
func (as *AdminService) TeardownModules(names []string) (map[string]int, error) {
	modules, err := parseModules(names)
	if err != nil {
		return nil, err
	}
	as.engine.Teardown(modules...)
	as.logger.Info("Modules torn down", zap.Strings("modules", names))
	return as.engine.Loaded(), nil
}

// LoadedModules returns the reference count of each resident module.
func (as *AdminService) LoadedModules() map[string]int {
	return as.engine.Loaded()
}

// InvalidateCache drops results of model versions other than version
// and tags new results with it. An empty version clears the cache.
func (as *AdminService) InvalidateCache(ctx context.Context, version string) error {
	if as.cache == nil {
		return nil
	}
	if version == "" {
		return as.cache.Clear(ctx)
	}
	if err := as.cache.InvalidateByModelVersion(ctx, version); err != nil {
		return err
	}
	if as.addresses != nil {
		as.addresses.SetModelVersion(version)
	}
	return nil
}

// GetSystemStats collects engine, cache and service counters.
func (as *AdminService) GetSystemStats(ctx context.Context) (*responses.SystemStatsResponse, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &responses.SystemStatsResponse{
		LoadedModules: as.engine.Loaded(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
	}
	if as.addresses != nil {
		svc := as.addresses.GetStats()
		stats.ModelVersion = as.addresses.ModelVersion()
		stats.TotalProcessed = svc.TotalProcessed
		stats.TotalFailed = svc.TotalFailed
		stats.AvgProcessingMs = svc.AvgProcessingMs
		stats.Jobs = svc.Jobs
		stats.Uptime = svc.Uptime.String()
	}
	if as.cache != nil {
		cs, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Could not read cache stats", zap.Error(err))
		} else {
			stats.Cache = &responses.CacheStatsResponse{
				HitRate:    cs.HitRate,
				TotalHits:  cs.TotalHits,
				TotalMiss:  cs.TotalMiss,
				TotalItems: cs.TotalItems,
			}
		}
	}
	return stats, nil
}

// IndexAddresses adds addresses to the search index.
func (as *AdminService) IndexAddresses(ctx context.Context, addrs []requests.IndexAddress) (int, error) {
	if as.index == nil {
		return 0, ErrSearchDisabled
	}
	docs := make([]models.IndexedAddress, len(addrs))
	for i, a := range addrs {
		docs[i] = models.IndexedAddress{ID: a.ID, Address: a.Address, Language: a.Language, Country: a.Country}
	}
	return as.index.Index(ctx, docs)
}

// SearchAddresses finds indexed addresses matching query.
func (as *AdminService) SearchAddresses(ctx context.Context, query string, filter search.Filter, limit int) ([]models.SearchHit, error) {
	if as.index == nil {
		return nil, ErrSearchDisabled
	}
	return as.index.Search(ctx, query, filter, limit)
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
