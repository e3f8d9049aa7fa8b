package normalizer

import (
	"strings"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"

	"github.com/postal-engine/internal/tokenizer"
)

// Transliterator converts text in its enabled scripts to Latin. Overrides
// take precedence over the generic unidecode tables and are matched
// longest first.
type Transliterator struct {
	scripts   map[string]struct{}
	overrides map[string]string
	maxKey    int
}

// NewTransliterator builds a transliterator for the given script names
// (as returned by tokenizer.ScriptOf).
func NewTransliterator(scripts []string, overrides map[string]string) *Transliterator {
	t := &Transliterator{
		scripts:   make(map[string]struct{}, len(scripts)),
		overrides: make(map[string]string, len(overrides)),
	}
	for _, sc := range scripts {
		t.scripts[sc] = struct{}{}
	}
	for k, v := range overrides {
		if k == "" {
			continue
		}
		t.overrides[k] = v
		if n := utf8.RuneCountInString(k); n > t.maxKey {
			t.maxKey = n
		}
	}
	return t
}

// Enabled reports whether script is transliterated.
func (t *Transliterator) Enabled(script string) bool {
	_, ok := t.scripts[script]
	return ok
}

// Scripts returns the number of enabled scripts.
func (t *Transliterator) Scripts() int {
	return len(t.scripts)
}

// Transliterate returns the Latin form of s, lowercased with whitespace
// collapsed. ok is false when s has no letters in an enabled script.
func (t *Transliterator) Transliterate(s string) (string, bool) {
	if t == nil || isASCII(s) {
		return s, false
	}
	runes := []rune(s)
	var sb strings.Builder
	changed := false
	for i := 0; i < len(runes); {
		if n, repl, ok := t.override(runes[i:]); ok {
			sb.WriteString(repl)
			i += n
			changed = true
			continue
		}
		r := runes[i]
		if t.Enabled(tokenizer.ScriptOf(r)) {
			sb.WriteString(unidecode.Unidecode(string(r)))
			changed = true
		} else {
			sb.WriteRune(r)
		}
		i++
	}
	if !changed {
		return s, false
	}
	return CollapseSpace(Lower(sb.String())), true
}

func (t *Transliterator) override(runes []rune) (int, string, bool) {
	n := min(t.maxKey, len(runes))
	for ; n > 0; n-- {
		if repl, ok := t.overrides[string(runes[:n])]; ok {
			return n, repl, true
		}
	}
	return 0, "", false
}
