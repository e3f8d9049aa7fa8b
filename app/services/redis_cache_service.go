package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/postal-engine/app/models"
)

const redisKeyPrefix = "postal:"

// RedisCacheService stores results in Redis under
// "postal:<model version>:<key>" so that a version bump can drop stale
// entries by prefix.
type RedisCacheService struct {
	client  *redis.Client
	logger  *zap.Logger
	prefix  string
	ttl     time.Duration
	version atomic.Value

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCacheService connects to redisURL and pings it.
func NewRedisCacheService(redisURL string, ttl time.Duration, modelVersion string, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return newRedisCacheService(client, ttl, modelVersion, logger), nil
}

func newRedisCacheService(client *redis.Client, ttl time.Duration, modelVersion string, logger *zap.Logger) *RedisCacheService {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	rcs := &RedisCacheService{
		client: client,
		logger: logger,
		prefix: redisKeyPrefix,
		ttl:    ttl,
	}
	rcs.version.Store(modelVersion)
	return rcs
}

func (rcs *RedisCacheService) keyFor(key string) string {
	return versionedKey(rcs.prefix, rcs.version.Load().(string), key)
}

func versionedKey(prefix, version, key string) string {
	return prefix + version + ":" + key
}

func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	cacheKey := rcs.keyFor(key)
	val, err := rcs.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("Redis get failed", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result models.AddressResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	rcs.hits.Add(1)
	rcs.logger.Debug("Redis cache hit", zap.String("key", key))
	return &result, true, nil
}

func (rcs *RedisCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	cacheKey := rcs.keyFor(key)
	if err := rcs.client.Set(ctx, cacheKey, data, rcs.ttl).Err(); err != nil {
		rcs.logger.Error("Redis set failed", zap.Error(err), zap.String("key", cacheKey))
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	if err := rcs.client.Del(ctx, rcs.keyFor(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// deleteMatching removes every key under the prefix for which drop
// returns true.
func (rcs *RedisCacheService) deleteMatching(ctx context.Context, drop func(key string) bool) (int, error) {
	var batch []string
	deleted := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := rcs.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := rcs.client.Scan(ctx, 0, rcs.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		if key := iter.Val(); drop(key) {
			batch = append(batch, key)
		}
		if len(batch) >= 500 {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	deleted, err := rcs.deleteMatching(ctx, func(string) bool { return true })
	if err != nil {
		return fmt.Errorf("clear redis cache: %w", err)
	}
	rcs.hits.Store(0)
	rcs.misses.Store(0)
	rcs.logger.Info("Cleared Redis cache", zap.Int("keys_deleted", deleted))
	return nil
}

func (rcs *RedisCacheService) InvalidateByModelVersion(ctx context.Context, currentVersion string) error {
	keep := versionedKey(rcs.prefix, currentVersion, "")
	rcs.version.Store(currentVersion)
	deleted, err := rcs.deleteMatching(ctx, func(key string) bool {
		return !strings.HasPrefix(key, keep)
	})
	if err != nil {
		return fmt.Errorf("invalidate redis cache: %w", err)
	}
	rcs.logger.Info("Invalidated Redis cache",
		zap.String("model_version", currentVersion),
		zap.Int("keys_deleted", deleted))
	return nil
}

func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	var items int64
	iter := rcs.client.Scan(ctx, 0, rcs.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		items++
	}
	if err := iter.Err(); err != nil {
		rcs.logger.Warn("Could not count Redis keys", zap.Error(err))
	}
	return newCacheStats(rcs.hits.Load(), rcs.misses.Load(), items), nil
}

func (rcs *RedisCacheService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rcs.client.Exists(ctx, rcs.keyFor(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := rcs.client.TTL(ctx, rcs.keyFor(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	// Redis reports -2 for missing keys and -1 for keys without expiry.
	return max(ttl, 0), nil
}

func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}
