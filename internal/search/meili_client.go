// Package search indexes addresses in Meilisearch by their expansions so
// that any spelling of an address finds it.
package search

import (
	"fmt"
	"strings"

	ms "github.com/meilisearch/meilisearch-go"
)

// ClientWrapper is the subset of the Meilisearch API the index uses.
type ClientWrapper struct {
	cli ms.ServiceManager
}

// NewClientWrapper creates a client for url authenticated with key.
func NewClientWrapper(url, key string) *ClientWrapper {
	return &ClientWrapper{cli: ms.New(url, ms.WithAPIKey(key))}
}

// Healthy reports whether the server answers its health endpoint.
func (c *ClientWrapper) Healthy() error {
	health, err := c.cli.Health()
	if err != nil {
		return err
	}
	if health.Status != "available" {
		return fmt.Errorf("meilisearch status %q", health.Status)
	}
	return nil
}

// SearchIndex runs q against index with ranking scores enabled.
func (c *ClientWrapper) SearchIndex(index, q, filter string, limit int64) (*ms.SearchResponse, error) {
	req := &ms.SearchRequest{
		Limit:            limit,
		ShowRankingScore: true,
	}
	if filter != "" {
		req.Filter = filter
	}
	return c.cli.Index(index).Search(q, req)
}

// AddDocuments upserts docs keyed by their "id" field.
func (c *ClientWrapper) AddDocuments(index string, docs []map[string]interface{}) (int64, error) {
	task, err := c.cli.Index(index).AddDocuments(docs, "id")
	if err != nil {
		return 0, err
	}
	return task.TaskUID, nil
}

// UpdateSettings applies settings to index.
func (c *ClientWrapper) UpdateSettings(index string, settings *ms.Settings) (int64, error) {
	task, err := c.cli.Index(index).UpdateSettings(settings)
	if err != nil {
		return 0, err
	}
	return task.TaskUID, nil
}

// Filter restricts a search to one language or country.
type Filter struct {
	Language string
	Country  string
}

// String renders the filter in Meilisearch syntax; empty when unset.
func (f Filter) String() string {
	var parts []string
	if f.Language != "" {
		parts = append(parts, fmt.Sprintf("language = %q", strings.ToLower(f.Language)))
	}
	if f.Country != "" {
		parts = append(parts, fmt.Sprintf("country = %q", strings.ToLower(f.Country)))
	}
	return strings.Join(parts, " AND ")
}
