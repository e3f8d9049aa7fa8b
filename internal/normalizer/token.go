package normalizer

import (
	"strings"
	"unicode"

	"github.com/postal-engine/internal/tokenizer"
)

// TokenOptions selects the per-token rewrites.
type TokenOptions struct {
	DeleteFinalPeriods     bool
	DeleteAcronymPeriods   bool
	DropEnglishPossessives bool
	DeleteApostrophes      bool
	ReplaceWordHyphens     bool
	DeleteWordHyphens      bool
	ReplaceNumericHyphens  bool
	DeleteNumericHyphens   bool
	SplitAlphaFromNumeric  bool
}

// DefaultTokenOptions matches the stock expansion defaults: numeric
// hyphens are kept, everything else is enabled.
func DefaultTokenOptions() TokenOptions {
	return TokenOptions{
		DeleteFinalPeriods:     true,
		DeleteAcronymPeriods:   true,
		DropEnglishPossessives: true,
		DeleteApostrophes:      true,
		ReplaceWordHyphens:     true,
		DeleteWordHyphens:      true,
		SplitAlphaFromNumeric:  true,
	}
}

// CanonicalToken returns the primary form of an already string-normalized
// token: acronym and final periods removed, apostrophes unified and then
// dropped as configured. Hyphens are kept.
func CanonicalToken(text string, kind tokenizer.Kind, opts TokenOptions) string {
	if kind == tokenizer.Acronym {
		switch {
		case opts.DeleteAcronymPeriods:
			text = strings.ReplaceAll(text, ".", "")
		case opts.DeleteFinalPeriods:
			text = strings.TrimSuffix(text, ".")
		}
	}
	if strings.ContainsRune(text, '’') {
		text = strings.ReplaceAll(text, "’", "'")
	}
	if strings.ContainsRune(text, '\'') {
		if opts.DropEnglishPossessives && strings.HasSuffix(text, "'s") {
			text = strings.TrimSuffix(text, "'s") + "s"
		}
		if opts.DeleteApostrophes {
			text = strings.ReplaceAll(text, "'", "")
		}
	}
	return text
}

// TokenVariants returns the canonical form of a token followed by its
// hyphen and alpha/numeric split variants, without duplicates.
func TokenVariants(text string, kind tokenizer.Kind, opts TokenOptions) []string {
	base := CanonicalToken(text, kind, opts)
	out := []string{base}
	add := func(v string) {
		v = CollapseSpace(v)
		if v == "" {
			return
		}
		for _, seen := range out {
			if seen == v {
				return
			}
		}
		out = append(out, v)
	}

	if strings.ContainsRune(base, '-') {
		replace, del := opts.ReplaceWordHyphens, opts.DeleteWordHyphens
		if kind == tokenizer.NumericExpression || kind == tokenizer.Numeric {
			replace, del = opts.ReplaceNumericHyphens, opts.DeleteNumericHyphens
		}
		if replace {
			add(strings.ReplaceAll(base, "-", " "))
		}
		if del {
			add(strings.ReplaceAll(base, "-", ""))
		}
	}
	if opts.SplitAlphaFromNumeric && kind == tokenizer.NumericExpression {
		add(SplitAlphaNumeric(base))
	}
	return out
}

// SplitAlphaNumeric inserts a space at every letter/digit boundary:
// "221b" -> "221 b".
func SplitAlphaNumeric(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	var prev rune
	for i, r := range s {
		if i > 0 && boundary(prev, r) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
		prev = r
	}
	return sb.String()
}

func boundary(a, b rune) bool {
	return (unicode.IsDigit(a) && unicode.IsLetter(b)) || (unicode.IsLetter(a) && unicode.IsDigit(b))
}
