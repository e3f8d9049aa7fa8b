// Package expand produces the normalized variants of an address: every
// combination of dictionary canonicals, spelled-out numbers and spelling
// variants of its phrases.
package expand

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/normalizer"
	"github.com/postal-engine/internal/numex"
	"github.com/postal-engine/internal/tokenizer"
)

// Expander expands token sequences with a set of expansion tables.
type Expander struct {
	table    *model.ExpansionTable
	translit *normalizer.Transliterator
}

// New returns an expander. translit may be nil, in which case no
// transliterated variants are produced.
func New(table *model.ExpansionTable, translit *normalizer.Transliterator) *Expander {
	return &Expander{table: table, translit: translit}
}

type item struct {
	tok tokenizer.Token
	// text is the token normalized with the caller's string options.
	text string
	// key is the dictionary lookup form.
	key string
	// boundary is set when separators that end phrases precede the item.
	boundary bool
}

type span struct {
	alts []string
	// preferred indexes the first dictionary or numeric rewrite, 0 if none.
	preferred int
}

// Expand returns the deduplicated expansions of tokens in deterministic
// order. Index 0 is always the canonicalized original. The result is never
// empty.
func (e *Expander) Expand(tokens []tokenizer.Token, languages []string, opts Options) []string {
	rules := e.rules(languages)
	items := e.items(tokens, rules, opts)
	if len(items) == 0 {
		return []string{finish(joinTokens(tokens, opts), opts)}
	}

	var spans []span
	for i := 0; i < len(items); {
		n, sp := e.nextSpan(items, i, rules, opts)
		spans = append(spans, sp)
		i += n
	}

	if opts.CanonicalOnly {
		parts := make([]string, len(spans))
		for i, sp := range spans {
			parts[i] = sp.alts[sp.preferred]
		}
		return []string{finish(strings.Join(parts, " "), opts)}
	}
	return product(spans, opts)
}

func (e *Expander) rules(languages []string) []*model.LanguageRules {
	var out []*model.LanguageRules
	seen := make(map[string]bool, len(languages))
	for _, lang := range languages {
		if seen[lang] {
			continue
		}
		seen[lang] = true
		if r, ok := e.table.Rules(lang); ok {
			out = append(out, r)
		}
	}
	return out
}

func (e *Expander) items(tokens []tokenizer.Token, rules []*model.LanguageRules, opts Options) []item {
	strOpts := opts.stringOptions()
	var (
		out      []item
		depth    int
		boundary bool
	)
	for _, tok := range tokens {
		if opts.DropParentheticals && tok.Kind == tokenizer.Punctuation {
			switch tok.Text {
			case "(", "[":
				depth++
				boundary = true
				continue
			case ")", "]":
				if depth > 0 {
					depth--
					boundary = true
					continue
				}
			}
		}
		if depth > 0 {
			continue
		}
		switch {
		case tok.IsContent():
		case tok.Kind == tokenizer.Punctuation && isSymbol(tok.Text, rules):
		case tok.Kind == tokenizer.Whitespace:
			continue
		default:
			boundary = true
			continue
		}
		text := normalizer.String(tok.Text, strOpts)
		if text == "" {
			continue
		}
		out = append(out, item{tok: tok, text: text, key: normalizer.Key(tok), boundary: boundary})
		boundary = false
	}
	return out
}

func isSymbol(s string, rules []*model.LanguageRules) bool {
	for _, r := range rules {
		if _, ok := r.Symbols[s]; ok {
			return true
		}
	}
	return false
}

// nextSpan finds the longest phrase starting at items[i] and returns its
// length in items with the alternatives for it.
func (e *Expander) nextSpan(items []item, i int, rules []*model.LanguageRules, opts Options) (int, span) {
	tokOpts := opts.tokenOptions()

	// Phrases may not cross separators.
	limit := 1
	for limit < len(items)-i && !items[i+limit].boundary {
		limit++
	}

	best := 0
	var canonicals []string
	for _, r := range rules {
		maxLen := min(r.MaxPhraseTokens, limit)
		for n := maxLen; n >= 1 && n >= best; n-- {
			exps := r.Phrases[phraseKey(items[i:i+n])]
			var matched []string
			for _, exp := range exps {
				if exp.Components.Matches(opts.AddressComponents) {
					matched = append(matched, exp.Canonical)
				}
			}
			if len(matched) == 0 {
				continue
			}
			if n > best {
				best, canonicals = n, nil
			}
			canonicals = append(canonicals, matched...)
			break
		}
	}

	var numeric []string
	if opts.ExpandNumex {
		for _, r := range rules {
			n, res, ok := parseNumex(items[i:i+limit], r.Numex)
			if !ok || n < best {
				continue
			}
			if n > best {
				best, canonicals, numeric = n, nil, nil
			}
			numeric = append(numeric, res.Text)
		}
	}
	if best == 0 {
		best = 1
	}

	sp := span{}
	add := func(s string, preferred bool) {
		s = normalizer.CollapseSpace(s)
		if s == "" {
			return
		}
		for _, a := range sp.alts {
			if a == s {
				return
			}
		}
		if preferred && sp.preferred == 0 && len(sp.alts) > 0 {
			sp.preferred = len(sp.alts)
		}
		sp.alts = append(sp.alts, s)
	}

	parts := make([]string, best)
	for k := range parts {
		it := items[i+k]
		parts[k] = normalizer.CanonicalToken(it.text, it.tok.Kind, tokOpts)
	}
	original := strings.Join(parts, " ")
	add(original, false)
	for _, c := range canonicals {
		add(c, true)
	}
	for _, v := range numeric {
		add(v, true)
	}

	var variants []string
	if best == 1 {
		it := items[i]
		if opts.ExpandNumex && it.tok.Kind == tokenizer.NumericExpression {
			for _, r := range rules {
				if digits, ok := numex.StripOrdinal(it.key, r.OrdinalSuffixes); ok {
					add(digits, true)
					break
				}
			}
		}
		if opts.RomanNumerals && it.tok.Kind == tokenizer.Word {
			if v, ok := numex.RomanValue(it.tok.Text); ok {
				add(strconv.Itoa(v), true)
			}
		}
		if it.tok.Kind == tokenizer.Word {
			for _, r := range rules {
				for _, c := range compoundSplits(it.key, r.SeparableSuffixes) {
					add(c, true)
				}
			}
		}
		variants = normalizer.TokenVariants(it.text, it.tok.Kind, tokOpts)[1:]
	}
	for _, v := range variants {
		add(v, false)
	}
	if opts.Transliterate && e.translit != nil {
		if tr, ok := e.translit.Transliterate(original); ok {
			add(tr, false)
		}
	}
	if len(sp.alts) == 0 {
		sp.alts = []string{original}
	}
	return best, sp
}

func phraseKey(items []item) string {
	if len(items) == 1 {
		return items[0].key
	}
	keys := make([]string, len(items))
	for k, it := range items {
		keys[k] = it.key
	}
	return strings.Join(keys, " ")
}

// parseNumex returns the longest prefix of items that reads as one number.
func parseNumex(items []item, rules *numex.Rules) (int, numex.Result, bool) {
	if rules.Len() == 0 {
		return 0, numex.Result{}, false
	}
	var (
		words []string
		ends  []int // ends[k] is len(words) after item k
	)
	for _, it := range items {
		if it.tok.Kind != tokenizer.Word {
			break
		}
		parts, ok := rules.Split(it.key)
		if !ok {
			break
		}
		words = append(words, parts...)
		ends = append(ends, len(words))
	}
	for n := len(ends); n >= 1; n-- {
		if res, ok := rules.Parse(words[:ends[n-1]]); ok {
			return n, res, true
		}
	}
	return 0, numex.Result{}, false
}

// compoundSplits breaks key at the first separable suffix that leaves a
// prefix of at least three letters.
func compoundSplits(key string, suffixes []model.SeparableSuffix) []string {
	for _, s := range suffixes {
		if !strings.HasSuffix(key, s.Suffix) {
			continue
		}
		prefix := key[:len(key)-len(s.Suffix)]
		if utf8.RuneCountInString(prefix) < 3 || strings.ContainsAny(prefix, "- ") {
			continue
		}
		return []string{
			prefix + " " + s.Suffix,
			prefix + " " + s.Canonical,
			prefix + s.Canonical,
		}
	}
	return nil
}

func product(spans []span, opts Options) []string {
	limit := opts.maxExpansions()
	maxSteps := limit * 8
	idx := make([]int, len(spans))
	parts := make([]string, len(spans))
	seen := make(map[string]bool, limit)
	out := make([]string, 0, limit)

	for step := 0; step < maxSteps && len(out) < limit; step++ {
		for k, sp := range spans {
			parts[k] = sp.alts[idx[k]]
		}
		s := finish(strings.Join(parts, " "), opts)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
		// Odometer increment, last span fastest.
		k := len(spans) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(spans[k].alts) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			break
		}
	}
	return out
}

func finish(s string, opts Options) string {
	s = normalizer.CollapseSpace(s)
	switch {
	case opts.Uppercase:
		s = normalizer.Upper(s)
	case opts.Lowercase:
		s = normalizer.Lower(s)
	}
	return s
}

// joinTokens renders inputs without phrase tokens, such as bare
// punctuation, as normalized text.
func joinTokens(tokens []tokenizer.Token, opts Options) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Text)
	}
	return normalizer.String(sb.String(), opts.stringOptions())
}
