// Package langid scores the languages an address is likely written in.
package langid

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/normalizer"
	"github.com/postal-engine/internal/tokenizer"
)

// ErrUnknownLanguageCode is returned when a hint names a language the
// model does not know.
var ErrUnknownLanguageCode = errors.New("unknown language code")

// DefaultTopK is the number of languages returned when unset.
const DefaultTopK = 3

// Hint is caller knowledge about the address.
type Hint struct {
	Languages []string `json:"languages,omitempty"`
	Country   string   `json:"country,omitempty"`
}

// Score is the relative likelihood of one language.
type Score struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

// Classifier ranks languages using the classifier tables.
type Classifier struct {
	table *model.LanguageTable
	topK  int
}

// New returns a classifier over table keeping the topK best languages.
func New(table *model.LanguageTable, topK int) *Classifier {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Classifier{table: table, topK: topK}
}

// Classify scores the languages of tokens. With hint languages the result
// is exactly those languages in hint order with equal scores.
func (c *Classifier) Classify(tokens []tokenizer.Token, hint *Hint) ([]Score, error) {
	if hint != nil && len(hint.Languages) > 0 {
		return c.fromHint(hint.Languages)
	}

	scores := make(map[string]float64)
	for _, tok := range tokens {
		if !tok.IsContent() {
			continue
		}
		c.scoreToken(tok, scores)
	}
	if hint != nil && hint.Country != "" {
		for _, lang := range c.table.Countries[strings.ToLower(hint.Country)] {
			scores[lang] += 1.0
		}
	}
	if len(scores) == 0 {
		return []Score{{Language: c.fallback(tokens), Score: 1}}, nil
	}
	return c.rank(scores), nil
}

func (c *Classifier) fromHint(codes []string) ([]Score, error) {
	seen := make(map[string]bool, len(codes))
	out := make([]Score, 0, len(codes))
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if !c.table.Known(code) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLanguageCode, code)
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, Score{Language: code})
	}
	for i := range out {
		out[i].Score = 1 / float64(len(out))
	}
	return out, nil
}

func (c *Classifier) scoreToken(tok tokenizer.Token, scores map[string]float64) {
	key := normalizer.Key(tok)
	if langs := c.table.WordLanguages[key]; len(langs) > 0 {
		idf := 1 / float64(len(langs))
		for _, lang := range langs {
			scores[lang] += idf
		}
	}

	// Longest suffix per language, weighted by how many languages share it.
	if tok.Kind == tokenizer.Word {
		hits := make(map[string][]string)
		for _, lang := range c.table.Priority {
			for _, suf := range c.table.Suffixes[lang] {
				if len(suf) < len(key) && strings.HasSuffix(key, suf) {
					hits[suf] = append(hits[suf], lang)
					break
				}
			}
		}
		for _, langs := range hits {
			idf := 1 / float64(len(langs))
			for _, lang := range langs {
				scores[lang] += 0.5 * idf
			}
		}
	}

	if script := tokenizer.DominantScript(tok.Text); script != tokenizer.ScriptCommon {
		for _, lang := range c.table.ScriptOwners(script) {
			scores[lang] += 1.0
		}
	}
}

func (c *Classifier) rank(scores map[string]float64) []Score {
	out := make([]Score, 0, len(scores))
	for lang, s := range scores {
		out = append(out, Score{Language: lang, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return c.table.Rank(out[i].Language) < c.table.Rank(out[j].Language)
	})
	if len(out) > c.topK {
		out = out[:c.topK]
	}
	var total float64
	for _, s := range out {
		total += s.Score
	}
	for i := range out {
		out[i].Score /= total
	}
	return out
}

// fallback picks the default language of the dominant script, else the
// first language in priority order.
func (c *Classifier) fallback(tokens []tokenizer.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.IsContent() {
			sb.WriteString(tok.Text)
		}
	}
	if owners := c.table.ScriptOwners(tokenizer.DominantScript(sb.String())); len(owners) > 0 {
		return owners[0]
	}
	return c.table.Priority[0]
}

// Languages returns just the codes of scores, in order.
func Languages(scores []Score) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Language
	}
	return out
}
