package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/postal-engine/app/models"
	"github.com/postal-engine/app/requests"
	"github.com/postal-engine/app/responses"
	"github.com/postal-engine/helpers/utils"
	"github.com/postal-engine/postal"
)

var (
	ErrEmptyAddress = errors.New("address must not be empty")
	ErrJobNotFound  = errors.New("job not found")

	// ErrJobNotFinished is returned for the results of a job still queued or running.
	ErrJobNotFinished = errors.New("job not finished")
)

// JobStatus tracks a background batch job.
type JobStatus struct {
	JobID              string
	Status             string
	Operation          string
	Progress           float64
	Processed          int
	Failed             int
	Total              int
	EstimatedRemaining int
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AddressServiceOptions tune an AddressService.
type AddressServiceOptions struct {
	ModelVersion   string
	Workers        int
	DefaultCountry string
	// Expand holds the defaults request options are applied over.
	Expand postal.ExpandOptions
}

// AddressService runs engine operations for the HTTP layer, caching
// results and running batch jobs.
type AddressService struct {
	engine    *postal.Engine
	cache     ICacheService
	opts      AddressServiceOptions
	logger    *zap.Logger
	startTime time.Time

	mu         sync.RWMutex
	jobs       map[string]*JobStatus
	jobResults map[string][]*models.AddressResult

	processed  atomic.Int64
	failed     atomic.Int64
	totalNanos atomic.Int64
}

// NewAddressService wires the engine and an optional cache.
func NewAddressService(engine *postal.Engine, cache ICacheService, opts AddressServiceOptions, logger *zap.Logger) *AddressService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Expand.MaxExpansions == 0 {
		opts.Expand = postal.DefaultExpandOptions()
	}
	return &AddressService{
		engine:     engine,
		cache:      cache,
		opts:       opts,
		logger:     logger,
		startTime:  time.Now(),
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]*models.AddressResult),
	}
}

// ModelVersion is the version tag of cached results.
func (as *AddressService) ModelVersion() string {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.opts.ModelVersion
}

// SetModelVersion retags future cache entries, typically after the model
// tables were reloaded.
func (as *AddressService) SetModelVersion(version string) {
	as.mu.Lock()
	as.opts.ModelVersion = version
	as.mu.Unlock()
}

// ParseAddress labels one address.
func (as *AddressService) ParseAddress(ctx context.Context, req requests.ParseAddressRequest) (*models.AddressResult, bool, error) {
	if strings.TrimSpace(req.Address) == "" {
		return nil, false, ErrEmptyAddress
	}
	country := req.Country
	if country == "" {
		country = as.opts.DefaultCountry
	}
	if err := as.requireModule(postal.ModuleParser, "parse address"); err != nil {
		return nil, false, err
	}
	key := utils.CacheKey(models.OperationParse, req.Address, strings.ToLower(req.Language), strings.ToLower(country))

	return as.cached(ctx, key, useCache(req.UseCache), func() (*models.AddressResult, error) {
		labeled, err := as.engine.ParseAddress(req.Address, postal.ParseOptions{Language: req.Language, Country: country})
		if err != nil {
			return nil, err
		}
		components := postal.GroupComponents(labeled)
		result := newResult(req.Address, models.OperationParse)
		result.Tokens = make([]models.LabeledToken, len(labeled))
		for i, lt := range labeled {
			result.Tokens[i] = models.LabeledToken{Text: lt.Text, Label: lt.Label.String()}
		}
		result.Components = make([]models.ParsedComponent, len(components))
		for i, c := range components {
			result.Components[i] = models.ParsedComponent{Label: c.Label.String(), Value: c.Value}
		}
		result.ComponentMap = postal.ComponentMap(components)
		return result, nil
	})
}

// ExpandAddress returns the normalized variants of one address.
func (as *AddressService) ExpandAddress(ctx context.Context, req requests.ExpandAddressRequest) (*models.AddressResult, bool, error) {
	if strings.TrimSpace(req.Address) == "" {
		return nil, false, ErrEmptyAddress
	}
	opts, err := as.ExpandOptions(req.Options)
	if err != nil {
		return nil, false, err
	}
	if err := as.requireModule(postal.ModuleExpansion, "expand address"); err != nil {
		return nil, false, err
	}
	key := utils.CacheKey(models.OperationExpand, req.Address, expandOptionsKey(opts))

	return as.cached(ctx, key, useCache(req.UseCache), func() (*models.AddressResult, error) {
		expansions, err := as.engine.ExpandAddress(req.Address, opts)
		if err != nil {
			return nil, err
		}
		result := newResult(req.Address, models.OperationExpand)
		result.Expansions = expansions
		return result, nil
	})
}

// ClassifyLanguage scores the languages of one address. Results are not
// cached; classification is cheaper than a cache round trip.
func (as *AddressService) ClassifyLanguage(ctx context.Context, req requests.ClassifyRequest) (*models.AddressResult, error) {
	if strings.TrimSpace(req.Address) == "" {
		return nil, ErrEmptyAddress
	}
	var hint *postal.LanguageHint
	if len(req.Languages) > 0 || req.Country != "" {
		hint = &postal.LanguageHint{Languages: req.Languages, Country: req.Country}
	}
	start := time.Now()
	scores, err := as.engine.ClassifyLanguage(req.Address, hint)
	as.record(start, err)
	if err != nil {
		return nil, err
	}
	result := newResult(req.Address, models.OperationClassify)
	result.Languages = make([]models.LanguageScore, len(scores))
	for i, s := range scores {
		result.Languages[i] = models.LanguageScore{Language: s.Language, Score: s.Score}
	}
	return result, nil
}

// Dedupe compares two addresses by their expansions.
func (as *AddressService) Dedupe(ctx context.Context, req requests.DedupeRequest) (postal.DedupeResult, error) {
	if strings.TrimSpace(req.A) == "" || strings.TrimSpace(req.B) == "" {
		return postal.DedupeResult{}, ErrEmptyAddress
	}
	opts, err := as.ExpandOptions(req.Options)
	if err != nil {
		return postal.DedupeResult{}, err
	}
	start := time.Now()
	res, err := as.engine.IsDuplicate(req.A, req.B, opts)
	as.record(start, err)
	return res, err
}

// ExpandOptions applies request options over the service defaults.
func (as *AddressService) ExpandOptions(req requests.ExpandOptions) (postal.ExpandOptions, error) {
	opts := as.opts.Expand
	opts.Languages = req.Languages
	if len(req.Components) > 0 {
		mask, err := postal.ParseComponents(req.Components)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		opts.AddressComponents = mask
	}
	if req.MaxExpansions > 0 {
		opts.MaxExpansions = req.MaxExpansions
	}
	if req.CanonicalOnly {
		opts.CanonicalOnly = true
	}
	if req.Uppercase {
		opts.Uppercase = true
		opts.Lowercase = false
	}
	if req.KeepAccents {
		opts.StripAccents = false
		opts.LatinASCII = false
	}
	return opts, nil
}

// ErrInvalidOptions wraps malformed request options.
var ErrInvalidOptions = errors.New("invalid options")

func expandOptionsKey(o postal.ExpandOptions) string {
	return fmt.Sprintf("%s|%s|%d|%t%t%t%t%t%t",
		strings.ToLower(strings.Join(o.Languages, ",")),
		o.AddressComponents,
		o.MaxExpansions,
		o.CanonicalOnly, o.Uppercase, o.Lowercase, o.StripAccents, o.LatinASCII, o.Transliterate)
}

func useCache(flag *bool) bool {
	return flag == nil || *flag
}

func newResult(raw, op string) *models.AddressResult {
	return &models.AddressResult{
		Raw:         raw,
		Fingerprint: utils.ShortFingerprint(raw),
		Operation:   op,
		Status:      models.StatusOK,
	}
}

// requireModule fails when m is not resident, so cached results are not
// served after teardown.
func (as *AddressService) requireModule(m postal.Module, op string) error {
	if !as.engine.Ready(m) {
		return fmt.Errorf("%s: %w", op, postal.ErrModuleNotInitialized)
	}
	return nil
}

// cached returns the cached result under key or computes and stores it.
// Cache failures are logged and never fail the request.
func (as *AddressService) cached(ctx context.Context, key string, enabled bool, compute func() (*models.AddressResult, error)) (*models.AddressResult, bool, error) {
	enabled = enabled && as.cache != nil
	if enabled {
		result, found, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return result, true, nil
		}
	}

	start := time.Now()
	result, err := compute()
	as.record(start, err)
	if err != nil {
		return nil, false, err
	}
	if enabled {
		if err := as.cache.Set(ctx, key, result); err != nil {
			as.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, false, nil
}

func (as *AddressService) record(start time.Time, err error) {
	as.processed.Add(1)
	as.totalNanos.Add(int64(time.Since(start)))
	if err != nil {
		as.failed.Add(1)
	}
}

// EstimateBatchProcessingTime is a rough duration in seconds for n
// addresses spread over the workers.
func (as *AddressService) EstimateBatchProcessingTime(n int) int {
	perAddress := 2 * time.Millisecond
	if p := as.processed.Load(); p > 0 {
		perAddress = time.Duration(as.totalNanos.Load() / p)
	}
	total := perAddress * time.Duration(n) / time.Duration(as.opts.Workers)
	return int(total.Seconds()) + 1
}

// SubmitBatch registers a job and processes it in the background. The job
// outlives the request, so it runs under its own context.
func (as *AddressService) SubmitBatch(req requests.BatchRequest) string {
	jobID := utils.GenerateUUID()
	now := time.Now()
	as.mu.Lock()
	as.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    responses.JobStatusPending,
		Operation: req.Operation,
		Total:     len(req.Addresses),
		Message:   "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	as.mu.Unlock()

	go as.ProcessBatchJob(context.Background(), jobID, req)
	return jobID
}

// ProcessBatchJob runs req on the worker pool, recording progress under
// jobID. Addresses that fail are kept in the results with StatusFailed.
func (as *AddressService) ProcessBatchJob(ctx context.Context, jobID string, req requests.BatchRequest) {
	start := time.Now()
	as.updateJob(jobID, func(job *JobStatus) {
		job.Status = responses.JobStatusRunning
		job.Message = "processing"
	})

	results := make([]*models.AddressResult, len(req.Addresses))
	var done, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(as.opts.Workers)
	for i, addr := range req.Addresses {
		i, addr := i, addr
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := as.runOperation(gctx, req, addr)
			if err != nil {
				failed.Add(1)
				result = newResult(addr, req.Operation)
				result.Status = models.StatusFailed
				result.Error = err.Error()
			}
			results[i] = result

			n := int(done.Add(1))
			as.updateJob(jobID, func(job *JobStatus) {
				job.Processed = n
				job.Failed = int(failed.Load())
				job.Progress = float64(n) / float64(job.Total)
				if elapsed := time.Since(start); n > 0 {
					remaining := elapsed / time.Duration(n) * time.Duration(job.Total-n)
					job.EstimatedRemaining = int(remaining.Seconds())
				}
			})
			return nil
		})
	}
	err := g.Wait()

	as.mu.Lock()
	as.jobResults[jobID] = results
	if job, ok := as.jobs[jobID]; ok {
		job.UpdatedAt = time.Now()
		job.EstimatedRemaining = 0
		if err != nil {
			job.Status = responses.JobStatusFailed
			job.Message = err.Error()
		} else {
			job.Status = responses.JobStatusDone
			job.Message = "completed"
		}
	}
	as.mu.Unlock()

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.String("operation", req.Operation),
		zap.Int("total_addresses", len(req.Addresses)),
		zap.Int64("failed", failed.Load()),
		zap.Duration("elapsed", time.Since(start)))
}

func (as *AddressService) runOperation(ctx context.Context, req requests.BatchRequest, addr string) (*models.AddressResult, error) {
	switch req.Operation {
	case models.OperationParse:
		result, _, err := as.ParseAddress(ctx, requests.ParseAddressRequest{Address: addr, Language: req.Language, Country: req.Country})
		return result, err
	case models.OperationExpand:
		result, _, err := as.ExpandAddress(ctx, requests.ExpandAddressRequest{Address: addr, Options: req.Options})
		return result, err
	case models.OperationClassify:
		var langs []string
		if req.Language != "" {
			langs = []string{req.Language}
		}
		return as.ClassifyLanguage(ctx, requests.ClassifyRequest{Address: addr, Languages: langs, Country: req.Country})
	}
	return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidOptions, req.Operation)
}

func (as *AddressService) updateJob(jobID string, update func(*JobStatus)) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if job, ok := as.jobs[jobID]; ok {
		update(job)
		job.UpdatedAt = time.Now()
	}
}

// GetJobStatus returns a snapshot of the job.
func (as *AddressService) GetJobStatus(jobID string) (*JobStatus, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	job, ok := as.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	snapshot := *job
	return &snapshot, nil
}

// GetJobResults returns the results of a finished job in input order.
func (as *AddressService) GetJobResults(jobID string) ([]*models.AddressResult, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	results, ok := as.jobResults[jobID]
	if !ok {
		if _, running := as.jobs[jobID]; running {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFinished, jobID)
		}
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return results, nil
}

// GetJobResultsStream yields the results of a finished job one by one.
func (as *AddressService) GetJobResultsStream(jobID string) (<-chan *models.AddressResult, error) {
	results, err := as.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}
	ch := make(chan *models.AddressResult, 100)
	go func() {
		defer close(ch)
		for _, r := range results {
			ch <- r
		}
	}()
	return ch, nil
}

// DeleteJob drops a job and its results.
func (as *AddressService) DeleteJob(jobID string) {
	as.mu.Lock()
	delete(as.jobs, jobID)
	delete(as.jobResults, jobID)
	as.mu.Unlock()
}

// ServiceStats are the request counters of the service.
type ServiceStats struct {
	TotalProcessed  int64
	TotalFailed     int64
	AvgProcessingMs float64
	Jobs            int
	Uptime          time.Duration
}

// GetStats returns a snapshot of the counters.
func (as *AddressService) GetStats() ServiceStats {
	as.mu.RLock()
	jobs := len(as.jobs)
	as.mu.RUnlock()

	stats := ServiceStats{
		TotalProcessed: as.processed.Load(),
		TotalFailed:    as.failed.Load(),
		Jobs:           jobs,
		Uptime:         time.Since(as.startTime),
	}
	if stats.TotalProcessed > 0 {
		avg := time.Duration(as.totalNanos.Load() / stats.TotalProcessed)
		stats.AvgProcessingMs = float64(avg) / float64(time.Millisecond)
	}
	return stats
}

// GetStartTime returns when the service was created.
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}
