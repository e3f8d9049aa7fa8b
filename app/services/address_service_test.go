package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postal-engine/app/models"
	"github.com/postal-engine/app/requests"
	"github.com/postal-engine/app/responses"
	"github.com/postal-engine/internal/search"
	"github.com/postal-engine/postal"
)

const bedford = "St Johns Centre, Rope Walk, Bedford, Bedfordshire, MK42 0XE, United Kingdom"

func newTestEngine(t *testing.T) *postal.Engine {
	t.Helper()
	eng := postal.New(postal.Config{}, zap.NewNop())
	require.NoError(t, eng.Setup(context.Background(), postal.ModuleAll))
	t.Cleanup(func() { eng.Teardown(postal.ModuleAll) })
	return eng
}

func newTestAddressService(t *testing.T) (*AddressService, *CacheService) {
	t.Helper()
	cache := NewCacheService(100, time.Hour, "v1", zap.NewNop())
	svc := NewAddressService(newTestEngine(t), cache, AddressServiceOptions{ModelVersion: "v1", Workers: 4}, zap.NewNop())
	return svc, cache
}

func TestAddressService_ParseAddressCaches(t *testing.T) {
	svc, cache := newTestAddressService(t)
	ctx := context.Background()
	req := requests.ParseAddressRequest{Address: bedford, Language: "en"}

	result, hit, err := svc.ParseAddress(ctx, req)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.StatusOK, result.Status)
	assert.Equal(t, models.OperationParse, result.Operation)
	assert.Contains(t, result.Components, models.ParsedComponent{Label: "postcode", Value: "mk42 0xe"})
	assert.Equal(t, "mk42 0xe", result.ComponentMap["postcode"])
	assert.Equal(t, "bedford", result.ComponentMap["city"])

	var text string
	for _, tok := range result.Tokens {
		text += tok.Text
	}
	assert.Equal(t, bedford, text, "tokens cover the input")

	again, hit, err := svc.ParseAddress(ctx, req)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, result, again)
	assert.Equal(t, 1, cache.Size())

	off := false
	req.UseCache = &off
	_, hit, err = svc.ParseAddress(ctx, req)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestAddressService_ExpandAddress(t *testing.T) {
	svc, _ := newTestAddressService(t)
	ctx := context.Background()

	result, _, err := svc.ExpandAddress(ctx, requests.ExpandAddressRequest{
		Address: "S St. NW",
		Options: requests.ExpandOptions{Languages: []string{"en"}, MaxExpansions: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s st nw", "s st northwest", "s street nw"}, result.Expansions)

	canonical, _, err := svc.ExpandAddress(ctx, requests.ExpandAddressRequest{
		Address: "S St. NW",
		Options: requests.ExpandOptions{Languages: []string{"en"}, CanonicalOnly: true},
	})
	require.NoError(t, err)
	assert.NotEqual(t, result.Expansions, canonical.Expansions, "options are part of the cache key")
}

func TestAddressService_Errors(t *testing.T) {
	svc, _ := newTestAddressService(t)
	ctx := context.Background()

	_, _, err := svc.ParseAddress(ctx, requests.ParseAddressRequest{Address: "   "})
	assert.ErrorIs(t, err, ErrEmptyAddress)

	_, _, err = svc.ExpandAddress(ctx, requests.ExpandAddressRequest{
		Address: "Main St",
		Options: requests.ExpandOptions{Components: []string{"moon"}},
	})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = svc.ClassifyLanguage(ctx, requests.ClassifyRequest{Address: "Main St", Languages: []string{"xx"}})
	assert.Equal(t, postal.KindUnknownLanguage, postal.KindOf(err))

	_, _, err = svc.ParseAddress(ctx, requests.ParseAddressRequest{Address: "улица Ленина 5", Language: "ru"})
	assert.Equal(t, postal.KindParseUnavailable, postal.KindOf(err))

	stats := svc.GetStats()
	assert.Equal(t, int64(2), stats.TotalFailed)
}

func TestAddressService_ClassifyAndDedupe(t *testing.T) {
	svc, _ := newTestAddressService(t)
	ctx := context.Background()

	result, err := svc.ClassifyLanguage(ctx, requests.ClassifyRequest{Address: "Main St", Languages: []string{"en"}})
	require.NoError(t, err)
	assert.Equal(t, []models.LanguageScore{{Language: "en", Score: 1}}, result.Languages)

	res, err := svc.Dedupe(ctx, requests.DedupeRequest{
		A:       "123 Main St",
		B:       "123 Main Street",
		Options: requests.ExpandOptions{Languages: []string{"en"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "exact_duplicate", res.Status.String())

	_, err = svc.Dedupe(ctx, requests.DedupeRequest{A: "x"})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestAddressService_BatchJob(t *testing.T) {
	svc, _ := newTestAddressService(t)
	addresses := []string{"120 E 96th St", "", "Rope Walk, Bedford"}
	jobID := svc.SubmitBatch(requests.BatchRequest{
		Addresses: addresses,
		Operation: models.OperationExpand,
		Options:   requests.ExpandOptions{Languages: []string{"en"}},
	})

	require.Eventually(t, func() bool {
		status, err := svc.GetJobStatus(jobID)
		return err == nil && status.Status == responses.JobStatusDone
	}, 5*time.Second, 10*time.Millisecond)

	status, err := svc.GetJobStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Processed)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 1.0, status.Progress)

	results, err := svc.GetJobResults(jobID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, addresses[i], r.Raw, "results keep input order")
	}
	assert.Equal(t, models.StatusFailed, results[1].Status)
	assert.Equal(t, ErrEmptyAddress.Error(), results[1].Error)
	assert.Contains(t, results[0].Expansions, "120 east 96 street")

	stream, err := svc.GetJobResultsStream(jobID)
	require.NoError(t, err)
	var streamed int
	for range stream {
		streamed++
	}
	assert.Equal(t, 3, streamed)

	_, err = svc.GetJobStatus("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.GetJobResults("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	svc.DeleteJob(jobID)
	_, err = svc.GetJobResults(jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestAddressService_ResultsOfRunningJob(t *testing.T) {
	svc, _ := newTestAddressService(t)
	svc.mu.Lock()
	svc.jobs["running"] = &JobStatus{JobID: "running", Status: responses.JobStatusRunning, Total: 3}
	svc.mu.Unlock()

	_, err := svc.GetJobResults("running")
	assert.ErrorIs(t, err, ErrJobNotFinished)
	_, err = svc.GetJobResultsStream("running")
	assert.ErrorIs(t, err, ErrJobNotFinished)

	_, err = svc.GetJobResults("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestAddressService_EstimateBatchProcessingTime(t *testing.T) {
	svc, _ := newTestAddressService(t)
	assert.GreaterOrEqual(t, svc.EstimateBatchProcessingTime(10), 1)
}

type fakeIndex struct {
	docs []models.IndexedAddress
	err  error
}

func (f *fakeIndex) Index(ctx context.Context, docs []models.IndexedAddress) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.docs = append(f.docs, docs...)
	return len(docs), nil
}

func (f *fakeIndex) Search(ctx context.Context, query string, filter search.Filter, limit int) ([]models.SearchHit, error) {
	var hits []models.SearchHit
	for _, d := range f.docs {
		if d.Address == query {
			hits = append(hits, models.SearchHit{ID: d.ID, Address: d.Address, Score: 1, Query: query})
		}
	}
	return hits, nil
}

func TestAdminService_Modules(t *testing.T) {
	eng := postal.New(postal.Config{}, zap.NewNop())
	admin := NewAdminService(eng, nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	loaded, err := admin.SetupModules(ctx, []string{"parser"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"parser": 1, "languages": 1}, loaded)

	loaded, err = admin.TeardownModules([]string{"parser"})
	require.NoError(t, err)
	assert.Empty(t, loaded)

	_, err = admin.SetupModules(ctx, []string{"nope"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestAddressService_TeardownHidesCachedResults(t *testing.T) {
	eng := postal.New(postal.Config{}, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, eng.Setup(ctx, postal.ModuleAll))
	cache := NewCacheService(100, time.Hour, "v1", zap.NewNop())
	svc := NewAddressService(eng, cache, AddressServiceOptions{ModelVersion: "v1"}, zap.NewNop())
	admin := NewAdminService(eng, cache, nil, svc, zap.NewNop())

	parseReq := requests.ParseAddressRequest{Address: bedford, Language: "en"}
	expandReq := requests.ExpandAddressRequest{Address: bedford, Options: requests.ExpandOptions{Languages: []string{"en"}}}
	_, _, err := svc.ParseAddress(ctx, parseReq)
	require.NoError(t, err)
	_, _, err = svc.ExpandAddress(ctx, expandReq)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Size())

	loaded, err := admin.TeardownModules([]string{"all"})
	require.NoError(t, err)
	require.Empty(t, loaded)

	_, hit, err := svc.ParseAddress(ctx, parseReq)
	assert.False(t, hit)
	assert.Equal(t, postal.KindNotInitialized, postal.KindOf(err))
	_, hit, err = svc.ExpandAddress(ctx, expandReq)
	assert.False(t, hit)
	assert.Equal(t, postal.KindNotInitialized, postal.KindOf(err))
}

func TestAdminService_CacheAndIndex(t *testing.T) {
	svc, cache := newTestAddressService(t)
	index := &fakeIndex{}
	admin := NewAdminService(newTestEngine(t), cache, index, svc, zap.NewNop())
	ctx := context.Background()

	_, _, err := svc.ParseAddress(ctx, requests.ParseAddressRequest{Address: "Rope Walk, Bedford", Language: "en"})
	require.NoError(t, err)
	require.Equal(t, 1, cache.Size())

	require.NoError(t, admin.InvalidateCache(ctx, "v2"))
	assert.Zero(t, cache.Size())
	assert.Equal(t, "v2", svc.ModelVersion())

	n, err := admin.IndexAddresses(ctx, []requests.IndexAddress{{ID: "a", Address: "Rope Walk"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	hits, err := admin.SearchAddresses(ctx, "Rope Walk", search.Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)

	stats, err := admin.GetSystemStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", stats.ModelVersion)
	assert.Equal(t, int64(1), stats.TotalProcessed)
	require.NotNil(t, stats.Cache)

	index.err = errors.New("down")
	_, err = admin.IndexAddresses(ctx, []requests.IndexAddress{{Address: "x"}})
	assert.Error(t, err)
}

func TestAdminService_SearchDisabled(t *testing.T) {
	admin := NewAdminService(postal.New(postal.Config{}, zap.NewNop()), nil, nil, nil, zap.NewNop())
	_, err := admin.IndexAddresses(context.Background(), []requests.IndexAddress{{Address: "x"}})
	assert.ErrorIs(t, err, ErrSearchDisabled)
	_, err = admin.SearchAddresses(context.Background(), "x", search.Filter{}, 1)
	assert.ErrorIs(t, err, ErrSearchDisabled)
	assert.NoError(t, admin.InvalidateCache(context.Background(), "v2"))
}
