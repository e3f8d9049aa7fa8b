package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/postal-engine/app/models"
)

const addressCacheCollection = "address_cache"

// MongoCacheService is a persistent cache in MongoDB fronted by an
// in-process LRU. Entries older than ttl are misses; a zero ttl keeps them
// until the model version changes.
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *expirable.LRU[string, *models.AddressResult]
	ttl        time.Duration
	version    atomic.Value
	logger     *zap.Logger

	l1Hits    atomic.Int64
	mongoHits atomic.Int64
	misses    atomic.Int64
}

// NewMongoCacheService uses the address_cache collection of db and
// ensures its indexes.
func NewMongoCacheService(db *mongo.Database, l1Size int, ttl time.Duration, modelVersion string, logger *zap.Logger) (*MongoCacheService, error) {
	if l1Size <= 0 {
		l1Size = defaultCacheSize
	}
	if ttl < 0 {
		return nil, fmt.Errorf("cache ttl must not be negative, got %s", ttl)
	}

	collection := db.Collection(addressCacheCollection)
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "model_version", Value: 1}}},
		{Keys: bson.D{{Key: "last_accessed", Value: 1}}},
	}
	if ttl > 0 {
		// lets the server reap what Get already treats as expired
		indexModels = append(indexModels, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Could not create address_cache indexes", zap.Error(err))
	}

	mcs := &MongoCacheService{
		collection: collection,
		l1Cache:    expirable.NewLRU[string, *models.AddressResult](l1Size, nil, ttl),
		ttl:        ttl,
		logger:     logger,
	}
	mcs.version.Store(modelVersion)
	return mcs, nil
}

func (mcs *MongoCacheService) currentVersion() string {
	return mcs.version.Load().(string)
}

func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	if result, ok := mcs.l1Cache.Get(key); ok {
		mcs.l1Hits.Add(1)
		return result, true, nil
	}

	var entry models.AddressCache
	filter := bson.M{"key": key, "model_version": mcs.currentVersion()}
	err := mcs.collection.FindOne(ctx, filter).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		mcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query address cache: %w", err)
	}
	if !mcs.usable(&entry) {
		mcs.misses.Add(1)
		if _, err := mcs.collection.DeleteOne(ctx, bson.M{"_id": entry.ID}); err != nil {
			mcs.logger.Warn("Failed to drop expired cache entry", zap.Error(err), zap.String("key", key))
		}
		return nil, false, nil
	}
	mcs.mongoHits.Add(1)

	go mcs.updateAccessStats(entry)
	mcs.l1Cache.Add(key, &entry.Result)
	mcs.logger.Debug("MongoDB cache hit", zap.String("key", key))
	return &entry.Result, true, nil
}

func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	mcs.l1Cache.Add(key, result)

	entry := models.NewAddressCache(key, *result, mcs.currentVersion())
	opts := options.Replace().SetUpsert(true)
	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"key": key}, entry, opts); err != nil {
		mcs.logger.Error("Failed to store cache entry", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("store address cache: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)
	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"key": key}); err != nil {
		return fmt.Errorf("delete address cache: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()
	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear address cache: %w", err)
	}
	mcs.l1Hits.Store(0)
	mcs.mongoHits.Store(0)
	mcs.misses.Store(0)
	return nil
}

func (mcs *MongoCacheService) InvalidateByModelVersion(ctx context.Context, currentVersion string) error {
	mcs.version.Store(currentVersion)
	mcs.l1Cache.Purge()

	res, err := mcs.collection.DeleteMany(ctx, bson.M{"model_version": bson.M{"$ne": currentVersion}})
	if err != nil {
		return fmt.Errorf("invalidate address cache: %w", err)
	}
	mcs.logger.Info("Invalidated MongoDB cache",
		zap.String("model_version", currentVersion),
		zap.Int64("deleted_count", res.DeletedCount))
	return nil
}

func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	count, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count address cache: %w", err)
	}
	hits := mcs.l1Hits.Load() + mcs.mongoHits.Load()
	return newCacheStats(hits, mcs.misses.Load(), count), nil
}

func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}
	count, err := mcs.collection.CountDocuments(ctx, bson.M{"key": key, "model_version": mcs.currentVersion()})
	if err != nil {
		return false, fmt.Errorf("count address cache: %w", err)
	}
	return count > 0, nil
}

// usable reports whether a stored entry may be served: it was produced by
// the current model version and has not outlived the ttl.
func (mcs *MongoCacheService) usable(entry *models.AddressCache) bool {
	return entry.IsValidModelVersion(mcs.currentVersion()) && !entry.IsExpired(mcs.ttl)
}

// GetTTL returns the time key has left, 0 when entries do not expire.
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if mcs.ttl == 0 {
		return 0, nil
	}
	var entry models.AddressCache
	err := mcs.collection.FindOne(ctx, bson.M{"key": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query address cache: %w", err)
	}
	return remainingTTL(entry.CreatedAt, mcs.ttl, time.Now()), nil
}

func remainingTTL(created time.Time, ttl time.Duration, now time.Time) time.Duration {
	return max(ttl-now.Sub(created), 0)
}

// Close is a no-op; the caller owns the mongo client.
func (mcs *MongoCacheService) Close() error {
	return nil
}

func (mcs *MongoCacheService) updateAccessStats(entry models.AddressCache) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entry.UpdateAccess()
	update := bson.M{
		"$set": bson.M{"last_accessed": entry.LastAccessed},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": entry.ID}, update); err != nil {
		mcs.logger.Warn("Failed to update cache access stats", zap.Error(err))
	}
}

// WarmUp loads the most accessed entries of the current model version
// into the L1 cache.
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := mcs.collection.Find(ctx, bson.M{"model_version": mcs.currentVersion()}, opts)
	if err != nil {
		return fmt.Errorf("warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.AddressCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Skipping undecodable cache entry", zap.Error(err))
			continue
		}
		if !mcs.usable(&entry) {
			continue
		}
		result := entry.Result
		mcs.l1Cache.Add(entry.Key, &result)
		count++
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("warm up cache: %w", err)
	}
	mcs.logger.Info("Cache warm up finished", zap.Int("loaded_items", count))
	return nil
}
