package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache is a cached AddressResult as stored in MongoDB.
type AddressCache struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Key          string             `bson:"key" json:"key"`
	Operation    string             `bson:"operation" json:"operation"`
	RawAddress   string             `bson:"raw_address" json:"raw_address"`
	Result       AddressResult      `bson:"result" json:"result"`
	ModelVersion string             `bson:"model_version" json:"model_version"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount  int                `bson:"access_count" json:"access_count"`
}

// NewAddressCache wraps result for storage under key.
func NewAddressCache(key string, result AddressResult, modelVersion string) *AddressCache {
	now := time.Now()
	return &AddressCache{
		Key:          key,
		Operation:    result.Operation,
		RawAddress:   result.Raw,
		Result:       result,
		ModelVersion: modelVersion,
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
	}
}

// UpdateAccess records a cache hit.
func (ac *AddressCache) UpdateAccess() {
	ac.LastAccessed = time.Now()
	ac.AccessCount++
}

// IsExpired reports whether the entry is older than ttl.
func (ac *AddressCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(ac.CreatedAt) > ttl
}

// IsValidModelVersion reports whether the entry was produced by
// currentVersion of the model tables.
func (ac *AddressCache) IsValidModelVersion(currentVersion string) bool {
	return ac.ModelVersion == currentVersion
}
