package expand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/normalizer"
	"github.com/postal-engine/internal/tokenizer"
)

func newExpander(t *testing.T, withTranslit bool) *Expander {
	t.Helper()
	loader := model.NewEmbeddedLoader()
	table, err := loader.Load(model.ModuleExpansion)
	require.NoError(t, err)

	var tr *normalizer.Transliterator
	if withTranslit {
		tt, err := loader.Load(model.ModuleTransliteration)
		require.NoError(t, err)
		tr = tt.(*model.TransliterationTable).Transliterator
	}
	return New(table.(*model.ExpansionTable), tr)
}

func expand(e *Expander, text string, langs []string, opts Options) []string {
	return e.Expand(tokenizer.Tokenize(text), langs, opts)
}

func TestExpand_KnownAddresses(t *testing.T) {
	e := newExpander(t, false)
	tests := []struct {
		input string
		want  string
		lang  string
	}{
		{"123 Main St. #2f", "123 main street number 2f", "en"},
		{"120 E 96th St", "120 east 96 street", "en"},
		{"120 E Ninety-sixth St", "120 east 96 street", "en"},
		{"4998 Vanderbilt Dr, Columbus, OH 43213", "4998 vanderbilt drive columbus ohio 43213", "en"},
		{"Nineteen oh one W El Segundo Blvd", "1901 west el segundo boulevard", "en"},
		{"S St. NW", "s street northwest", "en"},
		{"Quatre vingt douze Ave des Champs-Élysées", "92 avenue des champs-elysees", "fr"},
		{"Quatre vingt douze Ave des Champs-Élysées", "92 avenue des champs elysees", "fr"},
		{"Quatre vingt douze Ave des Champs-Élysées", "92 avenue des champselysees", "fr"},
		{"Marktstrasse", "markt strasse", "de"},
		{"Hoofdstraat", "hoofdstraat", "nl"},
		{"มงแตร", "มงแตร", "th"},
	}
	for _, tt := range tests {
		t.Run(tt.input+"/"+tt.want, func(t *testing.T) {
			got := expand(e, tt.input, []string{tt.lang}, DefaultOptions())
			assert.Contains(t, got, tt.want)
			t.Logf("%s → %d expansions", tt.input, len(got))
		})
	}
}

func TestExpand_SaintVariant(t *testing.T) {
	e := newExpander(t, false)
	got := expand(e, "St Johns Centre, Rope Walk, Bedford, Bedfordshire, MK42 0XE, United Kingdom",
		[]string{"en"}, DefaultOptions())

	assert.Equal(t, "st johns centre rope walk bedford bedfordshire mk42 0xe united kingdom", got[0])
	assert.Contains(t, got, "saint johns centre rope walk bedford bedfordshire mk42 0xe united kingdom")
}

func TestExpand_OriginalFirstAndIdempotent(t *testing.T) {
	e := newExpander(t, false)
	inputs := []string{
		"123 Main St. #2f",
		"Quatre vingt douze Ave des Champs-Élysées",
		"4998 Vanderbilt Dr, Columbus, OH 43213",
		"John's Pl (rear)",
	}
	for _, in := range inputs {
		out := expand(e, in, []string{"en", "fr"}, DefaultOptions())
		require.NotEmpty(t, out)
		for _, s := range out {
			again := expand(e, s, []string{"en", "fr"}, DefaultOptions())
			assert.Equal(t, s, again[0], "expanding %q must keep it first", s)
			assert.Equal(t, s, normalizer.String(s, normalizer.DefaultOptions()))
		}
	}
}

func TestExpand_NoDuplicatesAndCap(t *testing.T) {
	e := newExpander(t, false)
	out := expand(e, "St St St St St St", []string{"en", "fr"}, DefaultOptions())
	assert.LessOrEqual(t, len(out), DefaultMaxExpansions)

	seen := make(map[string]bool)
	for _, s := range out {
		assert.False(t, seen[s], "duplicate %q", s)
		seen[s] = true
	}

	opts := DefaultOptions()
	opts.MaxExpansions = 3
	out = expand(e, "S St. NW", []string{"en"}, opts)
	assert.Equal(t, []string{"s st nw", "s st northwest", "s street nw"}, out)
}

func TestExpand_CanonicalOnly(t *testing.T) {
	e := newExpander(t, false)
	opts := DefaultOptions()
	opts.CanonicalOnly = true

	assert.Equal(t, []string{"123 main street number 2f"},
		expand(e, "123 Main St. #2f", []string{"en"}, opts))
	assert.Equal(t, []string{"92 avenue des champs-elysees"},
		expand(e, "Quatre vingt douze Ave des Champs-Élysées", []string{"fr"}, opts))
}

func TestExpand_ComponentMask(t *testing.T) {
	e := newExpander(t, false)
	opts := DefaultOptions()
	opts.AddressComponents = address.ComponentStreet

	out := expand(e, "Columbus OH", []string{"en"}, opts)
	assert.Equal(t, []string{"columbus oh"}, out, "toponyms are outside the mask")

	opts.AddressComponents = address.ComponentToponym
	out = expand(e, "Main St", []string{"en"}, opts)
	assert.Equal(t, []string{"main st"}, out)

	opts.AddressComponents = address.ComponentAny
	out = expand(e, "Columbus OH", []string{"en"}, opts)
	assert.Contains(t, out, "columbus ohio")
}

func TestExpand_CaseFlags(t *testing.T) {
	e := newExpander(t, false)
	opts := DefaultOptions()
	opts.Uppercase = true
	out := expand(e, "Main St", []string{"en"}, opts)
	assert.Contains(t, out, "MAIN STREET")
	for _, s := range out {
		assert.Equal(t, strings.ToUpper(s), s)
	}
}

func TestExpand_DropParentheticals(t *testing.T) {
	e := newExpander(t, false)
	out := expand(e, "Main St (rear entrance)", []string{"en"}, DefaultOptions())
	assert.Equal(t, "main st", out[0])
	for _, s := range out {
		assert.NotContains(t, s, "rear")
	}

	opts := DefaultOptions()
	opts.DropParentheticals = false
	out = expand(e, "Main St (rear entrance)", []string{"en"}, opts)
	assert.Equal(t, "main st rear entrance", out[0])
}

func TestExpand_RomanNumerals(t *testing.T) {
	e := newExpander(t, false)
	out := expand(e, "Louis XIV", []string{"fr"}, DefaultOptions())
	assert.Contains(t, out, "louis 14")

	opts := DefaultOptions()
	opts.RomanNumerals = false
	out = expand(e, "Louis XIV", []string{"fr"}, opts)
	assert.Equal(t, []string{"louis xiv"}, out)
}

func TestExpand_Transliteration(t *testing.T) {
	with := newExpander(t, true)
	out := expand(with, "улица Ленина", []string{"ru"}, DefaultOptions())
	assert.Equal(t, "улица ленина", out[0])
	assert.Contains(t, out, "ulitsa lenina")

	without := newExpander(t, false)
	assert.Equal(t, []string{"улица ленина"}, expand(without, "улица Ленина", []string{"ru"}, DefaultOptions()))

	opts := DefaultOptions()
	opts.Transliterate = false
	assert.Equal(t, []string{"улица ленина"}, expand(with, "улица Ленина", []string{"ru"}, opts))
}

func TestExpand_Coverage(t *testing.T) {
	e := newExpander(t, false)
	for _, in := range []string{"!!!", "#", "a", "(only this)", "12"} {
		out := expand(e, in, []string{"en"}, DefaultOptions())
		assert.NotEmpty(t, out, in)
	}
	assert.Equal(t, []string{"!!!"}, expand(e, "!!!", []string{"en"}, DefaultOptions()))
}

func TestExpand_Deterministic(t *testing.T) {
	e := newExpander(t, false)
	in := "Quatre vingt douze Ave des Champs-Élysées"
	assert.Equal(t,
		expand(e, in, []string{"fr", "en", "de"}, DefaultOptions()),
		expand(e, in, []string{"fr", "en", "de"}, DefaultOptions()))
}
