// Package parser labels the tokens of an address with a linear-chain
// sequence model decoded by Viterbi.
package parser

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/normalizer"
	"github.com/postal-engine/internal/tokenizer"
)

// ErrParseUnavailable is returned when none of the candidate languages has
// parser weights.
var ErrParseUnavailable = errors.New("no parser model for language")

// LabeledToken is one input token with its label. Whitespace and
// punctuation carry address.LabelNone.
type LabeledToken struct {
	Text  string        `json:"text"`
	Label address.Label `json:"label"`
}

// Component is a run of consecutive tokens sharing a label.
type Component struct {
	Label address.Label `json:"label"`
	Value string        `json:"value"`
}

// Parser assigns labels with the parser tables.
type Parser struct {
	table *model.ParserTable
}

// New returns a parser over table.
func New(table *model.ParserTable) *Parser {
	return &Parser{table: table}
}

// Parse returns one labeled token per input token, in input order.
// languages are the candidates in preference order; country, when known,
// selects the postcode pattern.
func (p *Parser) Parse(tokens []tokenizer.Token, languages []string, country string) ([]LabeledToken, error) {
	var candidates []string
	for _, lang := range languages {
		if p.table.Supports(lang) {
			candidates = append(candidates, lang)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrParseUnavailable, strings.Join(languages, ","))
	}

	out := make([]LabeledToken, len(tokens))
	for i, tok := range tokens {
		out[i] = LabeledToken{Text: tok.Text, Label: address.LabelNone}
	}
	items, segs := split(tokens)
	if len(items) == 0 {
		return out, nil
	}

	feats := extract(tokens, items, segs, p.vocabulary(candidates, country))
	labels := p.decode(p.emissions(feats))
	for i, it := range items {
		out[it.pos].Label = labels[i]
	}
	return out, nil
}

func (p *Parser) vocabulary(languages []string, country string) *vocabulary {
	v := &vocabulary{}
	for _, lang := range languages {
		if g, ok := p.table.Gazetteers[lang]; ok {
			v.gazetteers = append(v.gazetteers, g)
		}
		if a, ok := p.table.Affixes[lang]; ok {
			v.affixes = append(v.affixes, a)
		}
	}
	if g, ok := p.table.Gazetteers["*"]; ok {
		v.gazetteers = append(v.gazetteers, g)
	}
	// An unknown country falls back to every pattern.
	if re, ok := p.table.Postcodes[strings.ToLower(country)]; ok {
		v.postcodes = append(v.postcodes, re)
	} else {
		for _, cc := range p.table.PostcodeCountries() {
			v.postcodes = append(v.postcodes, p.table.Postcodes[cc])
		}
	}
	return v
}

// split collects the content tokens and the comma-delimited segments they
// fall in.
func split(tokens []tokenizer.Token) ([]item, []segment) {
	var (
		items []item
		segs  []segment
		start int
		seg   int
	)
	closeSeg := func() {
		if len(items) > start {
			segs = append(segs, segment{start: start, end: len(items)})
			seg++
		}
		start = len(items)
	}
	for pos, tok := range tokens {
		if isSeparator(tok) {
			closeSeg()
			continue
		}
		if !tok.IsContent() {
			continue
		}
		items = append(items, item{tok: tok, pos: pos, key: normalizer.Key(tok), seg: seg})
	}
	closeSeg()
	return items, segs
}

func isSeparator(tok tokenizer.Token) bool {
	switch tok.Kind {
	case tokenizer.Punctuation:
		return tok.Text == "," || tok.Text == ";"
	case tokenizer.Whitespace:
		return strings.ContainsAny(tok.Text, "\n\r")
	}
	return false
}

func (p *Parser) emissions(f *featureSet) [][address.NumLabels]float64 {
	em := make([][address.NumLabels]float64, len(f.names))
	for i, names := range f.names {
		for _, name := range names {
			w, ok := p.table.Weights[name]
			if !ok {
				continue
			}
			for l := range em[i] {
				em[i][l] += w[l]
			}
		}
	}
	return em
}

// decode runs Viterbi. Equal scores resolve to the lower label.
func (p *Parser) decode(em [][address.NumLabels]float64) []address.Label {
	n := len(em)
	negInf := math.Inf(-1)
	score := make([][address.NumLabels]float64, n)
	back := make([][address.NumLabels]int, n)

	for l := 0; l < address.NumLabels; l++ {
		score[0][l] = p.table.Start[l] + em[0][l]
	}
	for i := 1; i < n; i++ {
		for l := 0; l < address.NumLabels; l++ {
			best, arg := negInf, -1
			for k := 0; k < address.NumLabels; k++ {
				if p.table.Disallowed[k][l] || math.IsInf(score[i-1][k], -1) {
					continue
				}
				if s := score[i-1][k] + p.table.Transitions[k][l]; s > best {
					best, arg = s, k
				}
			}
			score[i][l] = best + em[i][l]
			back[i][l] = arg
		}
	}

	last, best := -1, negInf
	for l := 0; l < address.NumLabels; l++ {
		if score[n-1][l] > best {
			best, last = score[n-1][l], l
		}
	}
	if last < 0 {
		return argmax(em)
	}
	labels := make([]address.Label, n)
	for i := n - 1; i >= 0; i-- {
		labels[i] = address.Label(last)
		last = back[i][last]
	}
	return labels
}

// argmax labels each position independently.
func argmax(em [][address.NumLabels]float64) []address.Label {
	labels := make([]address.Label, len(em))
	for i, row := range em {
		best := 0
		for l := 1; l < address.NumLabels; l++ {
			if row[l] > row[best] {
				best = l
			}
		}
		labels[i] = address.Label(best)
	}
	return labels
}

// Components groups labeled tokens into runs of one label. The value is
// the lowercased source text of the run with whitespace collapsed and
// unlabeled punctuation dropped. A comma or semicolon always ends a run.
func Components(labeled []LabeledToken) []Component {
	var (
		out         []Component
		first, last = -1, -1
	)
	flush := func() {
		if first < 0 {
			return
		}
		var sb strings.Builder
		for i, t := range labeled[first : last+1] {
			// Unlabeled punctuation inside a run only separates words, except
			// the period closing an abbreviation such as "C." or "St.".
			if t.Label == address.LabelNone && !(t.Text == "." && labeled[first+i-1].Label != address.LabelNone) {
				sb.WriteByte(' ')
				continue
			}
			sb.WriteString(t.Text)
		}
		out = append(out, Component{
			Label: labeled[first].Label,
			Value: normalizer.Lower(normalizer.CollapseSpace(sb.String())),
		})
		first, last = -1, -1
	}
	for i, t := range labeled {
		if t.Label == address.LabelNone {
			if t.Text == "," || t.Text == ";" {
				flush()
			}
			continue
		}
		if first >= 0 && labeled[first].Label != t.Label {
			flush()
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	flush()
	return out
}

// ComponentMap returns the values of components by label name, joining
// repeated labels with a space.
func ComponentMap(components []Component) map[string]string {
	out := make(map[string]string, len(components))
	for _, c := range components {
		name := c.Label.String()
		if prev, ok := out[name]; ok {
			out[name] = prev + " " + c.Value
			continue
		}
		out[name] = c.Value
	}
	return out
}
