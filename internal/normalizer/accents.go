package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/postal-engine/internal/tokenizer"
)

// StripAccents removes combining marks from Latin and Greek letters after
// canonical decomposition, so "Élysées" becomes "Elysees". Marks in other
// scripts carry vowels or distinguish letters ("й", Thai vowel signs) and
// are kept.
func StripAccents(s string) string {
	return norm.NFC.String(removeMarks(norm.NFD.String(s)))
}

// stripCombining removes the same marks without decomposing first, so
// precomposed letters keep their accents.
func stripCombining(s string) string {
	return norm.NFC.String(removeMarks(s))
}

func removeMarks(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	strip := false
	for _, r := range s {
		if isMn(r) {
			if !strip {
				sb.WriteRune(r)
			}
			continue
		}
		switch tokenizer.ScriptOf(r) {
		case tokenizer.ScriptLatin, tokenizer.ScriptGreek:
			strip = true
		case tokenizer.ScriptCommon:
			// keep the previous decision for marks on digits and symbols
		default:
			strip = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
