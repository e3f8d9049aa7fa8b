package responses

import (
	"github.com/postal-engine/app/models"
)

// AddressResponse wraps the result of a single address operation.
type AddressResponse struct {
	Result           *models.AddressResult `json:"result"`
	ModelVersion     string                `json:"model_version"`
	ProcessingTimeMs int64                 `json:"processing_time_ms"`
	CacheHit         bool                  `json:"cache_hit"`
}

// DedupeResponse is the comparison of two addresses.
type DedupeResponse struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
	// Match is the shared expansion of an exact duplicate.
	Match string `json:"match,omitempty"`
}

// BatchResponse acknowledges a submitted batch job.
type BatchResponse struct {
	JobID            string `json:"job_id"`
	EstimatedSeconds int    `json:"estimated_seconds"`
	TotalAddresses   int    `json:"total_addresses"`
	Message          string `json:"message"`
}

// JobStatusResponse reports batch progress.
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`
	Status             string  `json:"status"`
	Progress           float64 `json:"progress"`
	Processed          int     `json:"processed"`
	Failed             int     `json:"failed"`
	Total              int     `json:"total"`
	EstimatedRemaining int     `json:"estimated_remaining"`
	Message            string  `json:"message"`
}

// Job states
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// ModulesResponse lists resident modules and their reference counts.
type ModulesResponse struct {
	Loaded map[string]int `json:"loaded"`
}

// IndexResponse reports an indexing run.
type IndexResponse struct {
	Indexed          int   `json:"indexed"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// SearchResponse lists search hits.
type SearchResponse struct {
	Query string             `json:"query"`
	Hits  []models.SearchHit `json:"hits"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// SuccessResponse acknowledges an action.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// HealthCheckResponse reports liveness and dependency status.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// SystemStatsResponse reports service statistics.
type SystemStatsResponse struct {
	ModelVersion    string                 `json:"model_version"`
	LoadedModules   map[string]int         `json:"loaded_modules"`
	Cache           *CacheStatsResponse    `json:"cache,omitempty"`
	TotalProcessed  int64                  `json:"total_processed"`
	TotalFailed     int64                  `json:"total_failed"`
	AvgProcessingMs float64                `json:"avg_processing_ms"`
	Jobs            int                    `json:"jobs"`
	Uptime          string                 `json:"uptime"`
	MemoryUsage     map[string]interface{} `json:"memory_usage"`
}

// CacheStatsResponse mirrors the cache counters.
type CacheStatsResponse struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}
