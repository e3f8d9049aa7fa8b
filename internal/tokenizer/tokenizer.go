// Package tokenizer splits raw address text into classified tokens.
//
// Tokenization is total over any input: every byte belongs to exactly one
// token, input[t.Start:t.End] == t.Text holds for every token, and
// concatenating all token texts reproduces the input.
package tokenizer

import (
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	Word Kind = iota
	Acronym
	Numeric
	NumericExpression
	Punctuation
	Whitespace
	Other
)

var kindNames = [...]string{
	Word:              "word",
	Acronym:           "acronym",
	Numeric:           "numeric",
	NumericExpression: "numeric_expression",
	Punctuation:       "punctuation",
	Whitespace:        "whitespace",
	Other:             "other",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Token is a slice view of the input text.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  Kind   `json:"kind"`
}

// IsContent reports whether the token carries address content, as opposed
// to separators and unclassifiable bytes.
func (t Token) IsContent() bool {
	switch t.Kind {
	case Word, Acronym, Numeric, NumericExpression:
		return true
	}
	return false
}

// IsNumeric reports whether the token contains digits.
func (t Token) IsNumeric() bool {
	return t.Kind == Numeric || t.Kind == NumericExpression
}

// Tokenize splits text into tokens. The same input always yields the same
// tokens and offsets.
func Tokenize(text string) []Token {
	tokens := make([]Token, 0, len(text)/3+1)
	i := 0
	for i < len(text) {
		r, w := utf8.DecodeRuneInString(text[i:])
		start := i
		var kind Kind
		switch {
		case r == utf8.RuneError && w <= 1:
			kind = Other
			i++
		case unicode.IsSpace(r):
			kind = Whitespace
			i += w
			for i < len(text) {
				nr, nw := utf8.DecodeRuneInString(text[i:])
				if !unicode.IsSpace(nr) {
					break
				}
				i += nw
			}
		case isLetter(r) || unicode.IsDigit(r):
			i, kind = scanWord(text, i)
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			kind = Punctuation
			i += w
		default:
			kind = Other
			i += w
		}
		tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i, Kind: kind})
	}
	return tokens
}

// ContentTokens filters tokens down to the ones carrying address content.
func ContentTokens(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.IsContent() {
			out = append(out, t)
		}
	}
	return out
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.M, r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

func isHyphen(r rune) bool {
	return r == '-' || r == '‐' || r == '‑'
}

// scanWord consumes a word, acronym or number starting at start.
func scanWord(text string, start int) (int, Kind) {
	if end, ok := scanAcronym(text, start); ok {
		return end, Acronym
	}

	i := start
	hasLetter, hasDigit, joined := false, false, false
	script := ""
	var prev rune
	for i < len(text) {
		r, w := utf8.DecodeRuneInString(text[i:])
		switch {
		case isLetter(r):
			if sc := ScriptOf(r); sc != ScriptCommon {
				if script == "" {
					script = sc
				} else if !compatibleScripts(script, sc) {
					return i, wordKind(hasLetter, hasDigit, joined)
				}
			}
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			if i+w >= len(text) {
				return i, wordKind(hasLetter, hasDigit, joined)
			}
			next, _ := utf8.DecodeRuneInString(text[i+w:])
			if !joins(prev, r, next, script) {
				return i, wordKind(hasLetter, hasDigit, joined)
			}
			if unicode.IsDigit(prev) || unicode.IsDigit(next) {
				joined = true
			}
		}
		prev = r
		i += w
	}
	return i, wordKind(hasLetter, hasDigit, joined)
}

// joins decides whether the connector sep keeps prev and next in one token.
func joins(prev, sep, next rune, script string) bool {
	prevDigit, nextDigit := unicode.IsDigit(prev), unicode.IsDigit(next)
	prevLetter, nextLetter := isLetter(prev), isLetter(next)
	switch {
	case isHyphen(sep) || sep == '/':
		if prevDigit && nextDigit {
			return true
		}
		if (prevDigit && nextLetter) || (prevLetter && nextDigit) {
			return true
		}
		if isHyphen(sep) && prevLetter && nextLetter {
			sc := ScriptOf(next)
			return sc == ScriptCommon || script == "" || compatibleScripts(script, sc)
		}
	case sep == '.':
		return prevDigit && nextDigit
	case isApostrophe(sep):
		return prevLetter && nextLetter
	}
	return false
}

func wordKind(hasLetter, hasDigit, joined bool) Kind {
	switch {
	case hasDigit && hasLetter:
		return NumericExpression
	case hasDigit && joined:
		return NumericExpression
	case hasDigit:
		return Numeric
	}
	return Word
}

// scanAcronym matches single letters separated by periods, such as "N.Y."
// or "U.S.A", including a trailing period.
func scanAcronym(text string, start int) (int, bool) {
	i := start
	letters := 0
	for i < len(text) {
		r, w := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsLetter(r) {
			break
		}
		j := i + w
		// Combining marks stay with their letter.
		for j < len(text) {
			mr, mw := utf8.DecodeRuneInString(text[j:])
			if !unicode.Is(unicode.M, mr) {
				break
			}
			j += mw
		}
		if j < len(text) {
			nr, _ := utf8.DecodeRuneInString(text[j:])
			if isLetter(nr) || unicode.IsDigit(nr) {
				break
			}
		}
		letters++
		i = j
		if i >= len(text) || text[i] != '.' {
			break
		}
		i++ // consume the period
	}
	if letters < 2 {
		return start, false
	}
	return i, true
}
