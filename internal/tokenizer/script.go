package tokenizer

import "unicode"

// Script names returned by ScriptOf. Common is used for digits, marks and
// anything that does not belong to a specific writing system.
const (
	ScriptCommon     = "Common"
	ScriptLatin      = "Latin"
	ScriptCyrillic   = "Cyrillic"
	ScriptGreek      = "Greek"
	ScriptArabic     = "Arabic"
	ScriptHebrew     = "Hebrew"
	ScriptThai       = "Thai"
	ScriptHan        = "Han"
	ScriptHiragana   = "Hiragana"
	ScriptKatakana   = "Katakana"
	ScriptHangul     = "Hangul"
	ScriptDevanagari = "Devanagari"
	ScriptArmenian   = "Armenian"
	ScriptGeorgian   = "Georgian"
	ScriptOther      = "Other"
)

var scriptTables = []struct {
	name  string
	table *unicode.RangeTable
}{
	{ScriptLatin, unicode.Latin},
	{ScriptCyrillic, unicode.Cyrillic},
	{ScriptGreek, unicode.Greek},
	{ScriptArabic, unicode.Arabic},
	{ScriptHebrew, unicode.Hebrew},
	{ScriptThai, unicode.Thai},
	{ScriptHan, unicode.Han},
	{ScriptHiragana, unicode.Hiragana},
	{ScriptKatakana, unicode.Katakana},
	{ScriptHangul, unicode.Hangul},
	{ScriptDevanagari, unicode.Devanagari},
	{ScriptArmenian, unicode.Armenian},
	{ScriptGeorgian, unicode.Georgian},
}

// ScriptOf returns the writing system of r.
func ScriptOf(r rune) string {
	if r < 0x80 {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return ScriptLatin
		}
		return ScriptCommon
	}
	if unicode.Is(unicode.M, r) || !unicode.IsLetter(r) {
		return ScriptCommon
	}
	for _, st := range scriptTables {
		if unicode.Is(st.table, r) {
			return st.name
		}
	}
	return ScriptOther
}

// DominantScript returns the script covering the most letters of s, or
// ScriptCommon when s has no letters. Ties go to the script seen first.
func DominantScript(s string) string {
	counts := make(map[string]int)
	var order []string
	for _, r := range s {
		sc := ScriptOf(r)
		if sc == ScriptCommon {
			continue
		}
		if counts[sc] == 0 {
			order = append(order, sc)
		}
		counts[sc]++
	}
	best, bestN := ScriptCommon, 0
	for _, sc := range order {
		if counts[sc] > bestN {
			best, bestN = sc, counts[sc]
		}
	}
	return best
}

// compatibleScripts reports whether letters of a and b may share a token.
// Japanese text mixes Han with both kana scripts inside one word.
func compatibleScripts(a, b string) bool {
	if a == b {
		return true
	}
	return isCJK(a) && isCJK(b)
}

func isCJK(s string) bool {
	return s == ScriptHan || s == ScriptHiragana || s == ScriptKatakana
}
