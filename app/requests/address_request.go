package requests

// ParseAddressRequest asks for the labeled parse of one address.
type ParseAddressRequest struct {
	Address  string `json:"address" binding:"required"`
	Language string `json:"language,omitempty"`
	Country  string `json:"country,omitempty"`
	UseCache *bool  `json:"use_cache,omitempty"`
}

// ExpandOptions are the caller tunable expansion settings. Zero values
// keep the engine defaults.
type ExpandOptions struct {
	Languages     []string `json:"languages,omitempty"`
	Components    []string `json:"components,omitempty"`
	CanonicalOnly bool     `json:"canonical_only,omitempty"`
	MaxExpansions int      `json:"max_expansions,omitempty" binding:"omitempty,min=1,max=1000"`
	Uppercase     bool     `json:"uppercase,omitempty"`
	KeepAccents   bool     `json:"keep_accents,omitempty"`
}

// ExpandAddressRequest asks for the normalized variants of one address.
type ExpandAddressRequest struct {
	Address  string        `json:"address" binding:"required"`
	Options  ExpandOptions `json:"options,omitempty"`
	UseCache *bool         `json:"use_cache,omitempty"`
}

// ClassifyRequest asks for the language scores of one address.
type ClassifyRequest struct {
	Address   string   `json:"address" binding:"required"`
	Languages []string `json:"languages,omitempty"`
	Country   string   `json:"country,omitempty"`
}

// DedupeRequest compares two addresses.
type DedupeRequest struct {
	A       string        `json:"a" binding:"required"`
	B       string        `json:"b" binding:"required"`
	Options ExpandOptions `json:"options,omitempty"`
}

// BatchRequest runs one operation over many addresses in the background.
type BatchRequest struct {
	Addresses []string      `json:"addresses" binding:"required,min=1,max=20000"`
	Operation string        `json:"operation" binding:"required,oneof=parse expand classify"`
	Language  string        `json:"language,omitempty"`
	Country   string        `json:"country,omitempty"`
	Options   ExpandOptions `json:"options,omitempty"`
}

// ModulesRequest names model modules ("parser", "expansion",
// "transliteration", "all").
type ModulesRequest struct {
	Modules []string `json:"modules" binding:"required,min=1"`
}

// InvalidateCacheRequest drops cached results of older model versions.
// An empty version clears the whole cache.
type InvalidateCacheRequest struct {
	ModelVersion string `json:"model_version,omitempty"`
}

// IndexAddress is one address to add to the search index.
type IndexAddress struct {
	ID       string `json:"id,omitempty"`
	Address  string `json:"address" binding:"required"`
	Language string `json:"language,omitempty"`
	Country  string `json:"country,omitempty"`
}

// IndexRequest adds addresses to the search index.
type IndexRequest struct {
	Addresses []IndexAddress `json:"addresses" binding:"required,min=1,max=20000,dive"`
}
