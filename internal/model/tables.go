package model

import (
	"regexp"
	"sort"

	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/normalizer"
	"github.com/postal-engine/internal/numex"
)

// Table is the compiled, read-only form of one module. Tables are shared
// between goroutines and must not be mutated after loading.
type Table interface {
	Module() Module
}

// LanguageTable holds the classifier statistics.
type LanguageTable struct {
	// Priority is the fixed language order used to break score ties.
	Priority []string
	// Scripts maps a script name to the languages written in it; the first
	// entry is the script's default language.
	Scripts map[string][]string
	// Countries maps a lowercase ISO 3166 alpha-2 code to its languages.
	Countries map[string][]string
	// WordLanguages maps a normalized word to the languages that use it,
	// in priority order. Its length is the word's document frequency.
	WordLanguages map[string][]string
	// Suffixes maps a language to its affixes, longest first.
	Suffixes map[string][]string

	rank map[string]int
}

func (*LanguageTable) Module() Module { return ModuleLanguages }

// Known reports whether code is a language of the model.
func (t *LanguageTable) Known(code string) bool {
	_, ok := t.rank[code]
	return ok
}

// Rank returns the priority index of code; unknown codes sort last.
func (t *LanguageTable) Rank(code string) int {
	if r, ok := t.rank[code]; ok {
		return r
	}
	return len(t.Priority)
}

// ScriptOwners returns the languages written in script.
func (t *LanguageTable) ScriptOwners(script string) []string {
	return t.Scripts[script]
}

// Expansion is one dictionary rewrite of a phrase.
type Expansion struct {
	Canonical  string
	Components address.Component
	// Dictionary names the source dictionary, e.g. "street_types".
	Dictionary string
}

// SeparableSuffix is a compound tail that may be split off a word, such
// as German "strasse" in "marktstrasse".
type SeparableSuffix struct {
	Suffix    string
	Canonical string
}

// LanguageRules is the expansion vocabulary of one language.
type LanguageRules struct {
	Language string
	// Phrases maps a phrase key (space-joined token keys) to its expansions.
	Phrases map[string][]Expansion
	// MaxPhraseTokens is the token length of the longest phrase.
	MaxPhraseTokens int
	// Symbols are punctuation tokens that appear in phrases ("#").
	Symbols           map[string]struct{}
	Numex             *numex.Rules
	OrdinalSuffixes   []string
	SeparableSuffixes []SeparableSuffix
}

// ExpansionTable holds expansion vocabularies by language.
type ExpansionTable struct {
	Languages map[string]*LanguageRules
}

func (*ExpansionTable) Module() Module { return ModuleExpansion }

// Rules returns the vocabulary of lang.
func (t *ExpansionTable) Rules(lang string) (*LanguageRules, bool) {
	r, ok := t.Languages[lang]
	return r, ok
}

// Gazetteer maps phrase keys to the labels they are known under.
type Gazetteer struct {
	Phrases   map[string][]address.Label
	MaxTokens int
}

// Lookup returns the labels of a phrase key.
func (g *Gazetteer) Lookup(key string) []address.Label {
	if g == nil {
		return nil
	}
	return g.Phrases[key]
}

// Affixes are street and venue type words of one language.
type Affixes struct {
	StreetSuffixes map[string]struct{}
	StreetPrefixes map[string]struct{}
	VenueSuffixes  map[string]struct{}
	VenuePrefixes  map[string]struct{}
}

// LabelWeights is a weight per label.
type LabelWeights [address.NumLabels]float64

// ParserTable holds the sequence model.
type ParserTable struct {
	// Languages the weights were trained for.
	Languages map[string]struct{}
	// Gazetteers by language; "*" applies to every language.
	Gazetteers map[string]*Gazetteer
	Affixes    map[string]*Affixes
	// Postcodes maps a country code to its postcode pattern.
	Postcodes map[string]*regexp.Regexp
	// Weights maps a feature name to its per-label weight.
	Weights     map[string]*LabelWeights
	Start       LabelWeights
	Transitions [address.NumLabels]LabelWeights
	Disallowed  [address.NumLabels][address.NumLabels]bool
}

func (*ParserTable) Module() Module { return ModuleParser }

// Supports reports whether weights exist for lang.
func (t *ParserTable) Supports(lang string) bool {
	_, ok := t.Languages[lang]
	return ok
}

// PostcodeCountries returns the countries with a postcode pattern, sorted.
func (t *ParserTable) PostcodeCountries() []string {
	out := make([]string, 0, len(t.Postcodes))
	for cc := range t.Postcodes {
		out = append(out, cc)
	}
	sort.Strings(out)
	return out
}

// TransliterationTable holds the scripts converted to Latin.
type TransliterationTable struct {
	Scripts        []string
	Transliterator *normalizer.Transliterator
}

func (*TransliterationTable) Module() Module { return ModuleTransliteration }
