package models

import "time"

// IndexedAddress is an address document in the search index. Expansions
// are searchable so that any spelling of the address finds it.
type IndexedAddress struct {
	ID         string    `json:"id"`
	Address    string    `json:"address"`
	Canonical  string    `json:"canonical"`
	Expansions []string  `json:"expansions"`
	Language   string    `json:"language,omitempty"`
	Country    string    `json:"country,omitempty"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// SearchHit is one search result.
type SearchHit struct {
	ID      string  `json:"id"`
	Address string  `json:"address"`
	Score   float64 `json:"score"`
	// Query is the expansion of the search text that found the hit.
	Query string `json:"query"`
}
