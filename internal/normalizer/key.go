package normalizer

import (
	"strings"

	"github.com/postal-engine/internal/tokenizer"
)

// Key returns the lookup form of a token used by every dictionary,
// gazetteer and vocabulary in the model tables.
func Key(tok tokenizer.Token) string {
	return CanonicalToken(String(tok.Text, DefaultOptions()), tok.Kind, DefaultTokenOptions())
}

// IsKeyToken reports whether tok takes part in phrase keys. Whitespace,
// periods and unclassifiable bytes never do.
func IsKeyToken(tok tokenizer.Token) bool {
	switch tok.Kind {
	case tokenizer.Whitespace, tokenizer.Other:
		return false
	case tokenizer.Punctuation:
		return tok.Text != "."
	}
	return true
}

// PhraseKeys tokenizes text and returns the keys of its phrase tokens.
func PhraseKeys(text string) []string {
	var keys []string
	for _, tok := range tokenizer.Tokenize(text) {
		if !IsKeyToken(tok) {
			continue
		}
		if k := Key(tok); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// PhraseKey joins the keys of text with single spaces.
func PhraseKey(text string) string {
	return strings.Join(PhraseKeys(text), " ")
}
