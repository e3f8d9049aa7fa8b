package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/tokenizer"
)

// item is one content token of the input.
type item struct {
	tok tokenizer.Token
	// pos indexes tok in the input token slice.
	pos int
	key string
	seg int
}

// segment is a half-open range of items between separators.
type segment struct {
	start, end int
}

type featureSet struct {
	names [][]string
}

func (f *featureSet) add(i int, name string) {
	f.names[i] = append(f.names[i], name)
}

func (f *featureSet) addRange(from, to int, name string) {
	for i := from; i < to; i++ {
		f.add(i, name)
	}
}

// vocabulary is the union of the per-language tables of the candidates.
type vocabulary struct {
	gazetteers []*model.Gazetteer
	affixes    []*model.Affixes
	postcodes  []*regexp.Regexp
}

func (v *vocabulary) has(key string, set func(*model.Affixes) map[string]struct{}) bool {
	for _, a := range v.affixes {
		if _, ok := set(a)[key]; ok {
			return true
		}
	}
	return false
}

func streetSuffixes(a *model.Affixes) map[string]struct{} { return a.StreetSuffixes }
func streetPrefixes(a *model.Affixes) map[string]struct{} { return a.StreetPrefixes }
func venueSuffixes(a *model.Affixes) map[string]struct{}  { return a.VenueSuffixes }
func venuePrefixes(a *model.Affixes) map[string]struct{}  { return a.VenuePrefixes }

func extract(tokens []tokenizer.Token, items []item, segs []segment, vocab *vocabulary) *featureSet {
	f := &featureSet{names: make([][]string, len(items))}
	for i, it := range items {
		f.add(i, "bias")
		f.add(i, "word="+it.key)
		f.add(i, "shape="+shape(it.tok.Text))
		f.add(i, "kind="+it.tok.Kind.String())
		if i == 0 {
			f.add(i, "first")
			f.add(i, "prev_kind=start")
		} else {
			f.add(i, "prev_kind="+items[i-1].tok.Kind.String())
		}
		if i == len(items)-1 {
			f.add(i, "last")
			f.add(i, "next_kind=end")
		} else {
			f.add(i, "next_kind="+items[i+1].tok.Kind.String())
		}
	}
	for _, s := range segs {
		f.add(s.start, "seg_first")
		if s.start > 0 {
			f.add(s.start, "after_comma")
		}
		gazetteerFeatures(f, items, s, vocab)
		postcodeFeatures(f, tokens, items, s, vocab)
		streetFeatures(f, items, s, vocab)
		venueFeatures(f, items, s, vocab)
	}
	return f
}

// gazetteerFeatures marks the longest known phrase at each position,
// scanning left to right.
func gazetteerFeatures(f *featureSet, items []item, s segment, vocab *vocabulary) {
	for i := s.start; i < s.end; {
		best := 0
		var labels []address.Label
		for _, g := range vocab.gazetteers {
			for n := min(g.MaxTokens, s.end-i); n >= 1 && n >= best; n-- {
				found := g.Lookup(phraseKey(items[i : i+n]))
				if len(found) == 0 {
					continue
				}
				if n > best {
					best, labels = n, nil
				}
				labels = append(labels, found...)
				break
			}
		}
		if best == 0 {
			i++
			continue
		}
		sort.Slice(labels, func(a, b int) bool { return labels[a] < labels[b] })
		var prev address.Label = address.LabelNone
		for _, l := range labels {
			if l != prev {
				f.addRange(i, i+best, "dict="+l.String())
			}
			prev = l
		}
		i += best
	}
}

// postcodeFeatures tests one- and two-token windows separated only by
// whitespace against the postcode patterns. A pair is matched with its
// space; joining it would let "e 96th" pass as the gb outward code "e96th".
func postcodeFeatures(f *featureSet, tokens []tokenizer.Token, items []item, s segment, vocab *vocabulary) {
	if len(vocab.postcodes) == 0 {
		return
	}
	marked := make([]bool, s.end-s.start)
	for i := s.start; i < s.end; i++ {
		if vocab.postcode(items[i].key) {
			marked[i-s.start] = true
		}
		if i+1 < s.end && onlyWhitespace(tokens[items[i].pos+1:items[i+1].pos]) {
			a, b := items[i].key, items[i+1].key
			if vocab.postcode(a + " " + b) {
				marked[i-s.start] = true
				marked[i+1-s.start] = true
			}
		}
	}
	for k, m := range marked {
		if m {
			f.add(s.start+k, "postcode")
		}
	}
}

func (v *vocabulary) postcode(key string) bool {
	for _, re := range v.postcodes {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

func onlyWhitespace(tokens []tokenizer.Token) bool {
	for _, t := range tokens {
		if t.Kind != tokenizer.Whitespace {
			return false
		}
	}
	return true
}

// streetFeatures finds the street of a segment from its type word. Suffix
// languages end the street at the last suffix ("Nostrand Ave"); prefix
// languages start it at the first prefix ("Calle Mayor").
func streetFeatures(f *featureSet, items []item, s segment, vocab *vocabulary) {
	from, to := -1, -1
	for p := s.end - 1; p > s.start; p-- {
		if vocab.has(items[p].key, streetSuffixes) {
			from, to = s.start, p+1
			for q := s.start; q < p; q++ {
				if items[q].tok.IsNumeric() {
					from = q + 1
					break
				}
			}
			break
		}
	}
	if from < 0 {
		for p := s.start; p < s.end-1; p++ {
			if vocab.has(items[p].key, streetPrefixes) {
				from, to = p, s.end
				for q := p + 1; q < s.end; q++ {
					if items[q].tok.IsNumeric() {
						to = q
						break
					}
				}
				break
			}
		}
	}
	if from < 0 {
		return
	}
	f.addRange(from, to, "seg=street")
	if q := from - 1; q >= s.start && items[q].tok.IsNumeric() {
		f.add(q, "num_before_street")
		f.addRange(s.start, q, "before_house_number")
	}
}

// venueFeatures marks venue names: everything up to a venue suffix, or
// from a venue prefix up to the next street prefix.
func venueFeatures(f *featureSet, items []item, s segment, vocab *vocabulary) {
	for p := s.end - 1; p > s.start; p-- {
		if vocab.has(items[p].key, venueSuffixes) {
			f.addRange(s.start, p+1, "seg=venue")
			return
		}
	}
	for p := s.start; p < s.end; p++ {
		if !vocab.has(items[p].key, venuePrefixes) {
			continue
		}
		end := s.end
		for q := p + 1; q < s.end; q++ {
			if vocab.has(items[q].key, streetPrefixes) {
				end = q
				break
			}
		}
		f.addRange(p, end, "seg=venue")
		return
	}
}

// shape maps a token to its character classes with repeats collapsed:
// "MK42" is "Xd", "Main" is "Xx".
func shape(s string) string {
	var sb strings.Builder
	var last rune
	for _, r := range s {
		c := r
		switch {
		case unicode.IsUpper(r):
			c = 'X'
		case unicode.IsLetter(r):
			c = 'x'
		case unicode.IsDigit(r):
			c = 'd'
		}
		if c != last {
			sb.WriteRune(c)
			last = c
		}
	}
	return sb.String()
}

func phraseKey(items []item) string {
	if len(items) == 1 {
		return items[0].key
	}
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.key
	}
	return strings.Join(keys, " ")
}
