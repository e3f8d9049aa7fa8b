// Package normalizer canonicalizes address strings and tokens: width
// folding, case folding, accent stripping, Latin-ASCII conversion,
// transliteration and the token-level rewrites used by expansion.
//
// Every transform here is idempotent: normalizing already normalized text
// returns it unchanged.
package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/postal-engine/internal/tokenizer"
)

// Options selects the string-level transforms.
type Options struct {
	LatinASCII   bool
	StripAccents bool
	Decompose    bool
	Lowercase    bool
	TrimString   bool
}

// DefaultOptions enables every string transform.
func DefaultOptions() Options {
	return Options{
		LatinASCII:   true,
		StripAccents: true,
		Decompose:    true,
		Lowercase:    true,
		TrimString:   true,
	}
}

// String applies opts to s. Fullwidth forms and non-ASCII decimal digits
// are always folded; the result is NFC.
func String(s string, opts Options) string {
	if s == "" {
		return s
	}
	if !isASCII(s) {
		s = width.Fold.String(s)
		s = foldDigits(s)
	}
	if opts.Lowercase {
		s = Lower(s)
	}
	if !isASCII(s) {
		if opts.StripAccents {
			if opts.Decompose {
				s = StripAccents(s)
			} else {
				s = stripCombining(s)
			}
		}
		if opts.LatinASCII {
			s = LatinASCII(s)
			if opts.Lowercase {
				s = Lower(s)
			}
		}
		s = norm.NFC.String(s)
	}
	if opts.TrimString {
		s = CollapseSpace(s)
	}
	return s
}

// Lower lowercases s with Unicode case folding rules. A Caser keeps state,
// so one is built per call.
func Lower(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	return cases.Lower(language.Und).String(s)
}

// Upper uppercases s.
func Upper(s string) string {
	if isASCII(s) {
		return strings.ToUpper(s)
	}
	return cases.Upper(language.Und).String(s)
}

// LatinASCII replaces Latin-script letters outside ASCII with their ASCII
// approximations ("ß" -> "ss", "ø" -> "o"). Other scripts are untouched.
func LatinASCII(s string) string {
	if isASCII(s) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= 0x80 && tokenizer.ScriptOf(r) == tokenizer.ScriptLatin {
			sb.WriteString(unidecode.Unidecode(string(r)))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// CollapseSpace trims s and reduces internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Zero code points of the decimal digit blocks folded to ASCII.
var digitZeros = []rune{
	0x0660, // Arabic-Indic
	0x06F0, // Extended Arabic-Indic
	0x07C0, // NKo
	0x0966, // Devanagari
	0x09E6, // Bengali
	0x0A66, // Gurmukhi
	0x0AE6, // Gujarati
	0x0B66, // Oriya
	0x0BE6, // Tamil
	0x0C66, // Telugu
	0x0CE6, // Kannada
	0x0D66, // Malayalam
	0x0E50, // Thai
	0x0ED0, // Lao
	0x0F20, // Tibetan
	0x1040, // Myanmar
	0x17E0, // Khmer
	0x1810, // Mongolian
}

func asciiDigit(r rune) (rune, bool) {
	if r < 0x80 || !unicode.IsDigit(r) {
		return r, false
	}
	for _, z := range digitZeros {
		if r >= z && r <= z+9 {
			return '0' + (r - z), true
		}
	}
	return r, false
}

func foldDigits(s string) string {
	changed := false
	for _, r := range s {
		if _, ok := asciiDigit(r); ok {
			changed = true
			break
		}
	}
	if !changed {
		return s
	}
	return strings.Map(func(r rune) rune {
		d, _ := asciiDigit(r)
		return d
	}, s)
}
