// Package numex parses spelled-out numbers ("ninety-sixth",
// "nineteen oh one", "quatre vingt douze") into digits, strips ordinal
// suffixes from digit tokens and reads roman numerals.
package numex

import (
	"strconv"
	"strings"
)

// WordKind is the grammatical role of a number word.
type WordKind int

const (
	Zero WordKind = iota
	Unit
	Teen
	Tens
	Hundred
	Power
	Conjunction
)

// KindForValue derives the role of a number word from its value.
func KindForValue(v int64) WordKind {
	switch {
	case v == 0:
		return Zero
	case v < 10:
		return Unit
	case v < 20:
		return Teen
	case v < 100:
		return Tens
	case v == 100:
		return Hundred
	default:
		return Power
	}
}

// Word is one entry of a language's number vocabulary.
type Word struct {
	Kind  WordKind
	Value int64
	// Ordinal marks "sixth", "ninetieth"; only the last word may be one.
	Ordinal bool
	// Multiplicand tens multiply a preceding unit: "quatre vingt" = 80.
	Multiplicand bool
	// TakesTeens tens may be followed by a teen: "soixante douze" = 72.
	TakesTeens bool
	// NoLead words cannot start a number: "oh" only reads as zero inside
	// "nineteen oh one".
	NoLead bool
}

// Rules is the number vocabulary of one language.
type Rules struct {
	words map[string]Word
}

// NewRules builds rules from normalized word forms.
func NewRules(words map[string]Word) *Rules {
	m := make(map[string]Word, len(words))
	for k, v := range words {
		m[k] = v
	}
	return &Rules{words: m}
}

// Len returns the vocabulary size.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.words)
}

// Lookup returns the entry for a normalized word.
func (r *Rules) Lookup(w string) (Word, bool) {
	if r == nil {
		return Word{}, false
	}
	word, ok := r.words[w]
	return word, ok
}

// Split breaks a token into number words. Hyphenated forms are looked up
// whole first ("dix-sept"), then piecewise ("ninety-sixth"). ok is false
// unless every piece is a number word.
func (r *Rules) Split(token string) ([]string, bool) {
	if _, ok := r.Lookup(token); ok {
		return []string{token}, true
	}
	if !strings.ContainsRune(token, '-') {
		return nil, false
	}
	parts := strings.Split(token, "-")
	for _, p := range parts {
		if _, ok := r.Lookup(p); !ok {
			return nil, false
		}
	}
	return parts, true
}

// Result is a parsed number.
type Result struct {
	Value   int64
	Text    string
	Ordinal bool
}

type group struct {
	total    int64
	current  int64
	zeroLead bool
	n        int
	last     Word
	lastUnit int64
}

func (g *group) value() int64 { return g.total + g.current }

// Parse reads words as a single number. Every word must be consumed.
// Several groups concatenate the way years and house numbers are spoken
// ("nineteen oh one" -> "1901", "three twenty" -> "320") as long as each
// group after the first renders as exactly two digits.
func (r *Rules) Parse(words []string) (Result, bool) {
	if len(words) == 0 || r == nil {
		return Result{}, false
	}
	var (
		groups  []*group
		g       = &group{}
		ordinal bool
	)
	startGroup := func() {
		groups = append(groups, g)
		g = &group{}
	}

	for i, w := range words {
		word, ok := r.Lookup(w)
		if !ok {
			return Result{}, false
		}
		if word.Ordinal && i != len(words)-1 {
			return Result{}, false
		}
		ordinal = word.Ordinal

		switch word.Kind {
		case Conjunction:
			if g.n == 0 || i == len(words)-1 {
				return Result{}, false
			}
			continue
		case Zero:
			if i == 0 && word.NoLead {
				return Result{}, false
			}
			if g.n > 0 {
				startGroup()
			}
			g.zeroLead = true
		case Unit:
			if !g.acceptsUnit() {
				startGroup()
			}
			g.current += word.Value
			g.lastUnit = word.Value
		case Teen:
			switch {
			case g.n == 0 || g.last.Kind == Hundred || g.last.Kind == Power:
				g.current += word.Value
			case g.last.Kind == Tens && g.last.TakesTeens && g.current%10 == 0:
				g.current += word.Value
			default:
				startGroup()
				g.current = word.Value
			}
		case Tens:
			switch {
			case word.Multiplicand && g.last.Kind == Unit && g.current%100 == g.lastUnit:
				g.current += g.lastUnit*word.Value - g.lastUnit
			case g.n == 0 || g.last.Kind == Hundred || g.last.Kind == Power:
				g.current += word.Value
			default:
				startGroup()
				g.current = word.Value
			}
		case Hundred:
			switch {
			case g.zeroLead:
				return Result{}, false
			case g.current == 0 && (g.n == 0 || g.last.Kind == Power):
				g.current = word.Value
			case g.current > 0 && g.current < 100:
				g.current *= word.Value
			default:
				return Result{}, false
			}
		case Power:
			if g.zeroLead {
				return Result{}, false
			}
			if g.total != 0 && g.total < word.Value*1000 {
				return Result{}, false
			}
			g.total += max(g.current, 1) * word.Value
			g.current = 0
		}
		g.last = word
		g.n++
	}
	groups = append(groups, g)

	var sb strings.Builder
	for i, gr := range groups {
		v := gr.value()
		switch {
		case gr.zeroLead:
			if v >= 10 || (gr.n < 2 && len(groups) > 1) {
				return Result{}, false
			}
			if len(groups) == 1 && v == 0 {
				sb.WriteString("0")
				continue
			}
			sb.WriteString("0")
			sb.WriteString(strconv.FormatInt(v, 10))
		case i > 0 && (v < 10 || v > 99):
			return Result{}, false
		default:
			sb.WriteString(strconv.FormatInt(v, 10))
		}
	}
	text := sb.String()
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Result{}, false
	}
	return Result{Value: value, Text: strconv.FormatInt(value, 10), Ordinal: ordinal}, true
}

func (g *group) acceptsUnit() bool {
	if g.n == 0 {
		return true
	}
	switch g.last.Kind {
	case Tens, Hundred, Power:
		return g.current%10 == 0
	case Zero:
		return g.current == 0
	case Teen:
		// "dix sept" = 17
		return g.last.Value == 10 && g.current%10 == 0
	}
	return false
}
