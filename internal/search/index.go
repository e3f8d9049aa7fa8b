package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ms "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/postal-engine/app/models"
	"github.com/postal-engine/helpers/utils"
)

const (
	batchSize = 1000
	// maxQueryExpansions bounds the searches run for one query.
	maxQueryExpansions = 5
)

// Expander returns the expansions of text, canonical form first.
type Expander func(text string) ([]string, error)

// Config locates the Meilisearch index.
type Config struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
	Limit     int
}

// ExpansionIndex stores addresses with their expansions and searches with
// the expansions of the query.
type ExpansionIndex struct {
	client    *ClientWrapper
	indexName string
	limit     int
	expand    Expander
	logger    *zap.Logger
}

// NewExpansionIndex connects to Meilisearch and checks its health.
func NewExpansionIndex(cfg Config, expand Expander, logger *zap.Logger) (*ExpansionIndex, error) {
	client := NewClientWrapper(cfg.Host, cfg.APIKey)
	if err := client.Healthy(); err != nil {
		return nil, fmt.Errorf("connect meilisearch: %w", err)
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	return &ExpansionIndex{
		client:    client,
		indexName: cfg.IndexName,
		limit:     limit,
		expand:    expand,
		logger:    logger,
	}, nil
}

// Configure sets the searchable and filterable attributes. Expansions
// are already normalized, so typo tolerance only applies to the raw
// address.
func (x *ExpansionIndex) Configure() error {
	task, err := x.client.UpdateSettings(x.indexName, &ms.Settings{
		SearchableAttributes: []string{"expansions", "canonical", "address"},
		FilterableAttributes: []string{"language", "country"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "exactness"},
	})
	if err != nil {
		return fmt.Errorf("configure index %s: %w", x.indexName, err)
	}
	x.logger.Info("Configured search index",
		zap.String("index", x.indexName),
		zap.Int64("task_uid", task))
	return nil
}

// Index expands and stores docs, returning how many were submitted.
func (x *ExpansionIndex) Index(ctx context.Context, docs []models.IndexedAddress) (int, error) {
	prepared, err := prepareDocuments(docs, x.expand, time.Now())
	if err != nil {
		return 0, err
	}
	for i := 0; i < len(prepared); i += batchSize {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		end := min(i+batchSize, len(prepared))
		task, err := x.client.AddDocuments(x.indexName, toDocuments(prepared[i:end]))
		if err != nil {
			return i, fmt.Errorf("add documents %d-%d: %w", i, end, err)
		}
		x.logger.Debug("Submitted documents",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task))
	}
	x.logger.Info("Indexed addresses", zap.Int("total_documents", len(prepared)))
	return len(prepared), nil
}

// Search looks up every expansion of query and merges the hits, keeping
// the best score per document.
func (x *ExpansionIndex) Search(ctx context.Context, query string, filter Filter, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = x.limit
	}
	expansions, err := x.expand(query)
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}
	if len(expansions) == 0 {
		expansions = []string{query}
	}
	if len(expansions) > maxQueryExpansions {
		expansions = expansions[:maxQueryExpansions]
	}

	var lists [][]models.SearchHit
	for _, q := range expansions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := x.client.SearchIndex(x.indexName, q, filter.String(), int64(limit))
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", q, err)
		}
		lists = append(lists, parseHits(res.Hits, q))
	}
	return mergeHits(lists, limit), nil
}

func prepareDocuments(docs []models.IndexedAddress, expand Expander, now time.Time) ([]models.IndexedAddress, error) {
	if len(docs) == 0 {
		return nil, errors.New("no documents to index")
	}
	out := make([]models.IndexedAddress, len(docs))
	for i, doc := range docs {
		expansions, err := expand(doc.Address)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", doc.Address, err)
		}
		if doc.ID == "" {
			doc.ID = utils.ShortFingerprint(doc.Address, doc.Country)
		}
		doc.Expansions = expansions
		if len(expansions) > 0 {
			doc.Canonical = expansions[0]
		}
		doc.IndexedAt = now
		out[i] = doc
	}
	return out, nil
}

func toDocuments(docs []models.IndexedAddress) []map[string]interface{} {
	out := make([]map[string]interface{}, len(docs))
	for i, d := range docs {
		out[i] = map[string]interface{}{
			"id":         d.ID,
			"address":    d.Address,
			"canonical":  d.Canonical,
			"expansions": d.Expansions,
			"language":   d.Language,
			"country":    d.Country,
			"indexed_at": d.IndexedAt.Unix(),
		}
	}
	return out
}

func parseHits(hits []interface{}, query string) []models.SearchHit {
	var out []models.SearchHit
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		h := models.SearchHit{Query: query}
		if id, ok := hitMap["id"].(string); ok {
			h.ID = id
		}
		if addr, ok := hitMap["address"].(string); ok {
			h.Address = addr
		}
		if score, ok := hitMap["_rankingScore"].(float64); ok {
			h.Score = score
		}
		if h.ID != "" {
			out = append(out, h)
		}
	}
	return out
}

// mergeHits keeps the best scoring hit per ID, ordered by score then ID.
func mergeHits(lists [][]models.SearchHit, limit int) []models.SearchHit {
	best := make(map[string]models.SearchHit)
	for _, list := range lists {
		for _, h := range list {
			if cur, ok := best[h.ID]; !ok || h.Score > cur.Score {
				best[h.ID] = h
			}
		}
	}
	out := make([]models.SearchHit, 0, len(best))
	for _, h := range best {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
