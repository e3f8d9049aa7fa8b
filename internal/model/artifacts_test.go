package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postal-engine/internal/address"
)

func loadEmbedded(t *testing.T, m Module) Table {
	t.Helper()
	table, err := NewEmbeddedLoader().Load(m)
	require.NoError(t, err)
	require.Equal(t, m, table.Module())
	return table
}

func TestEmbedded_Languages(t *testing.T) {
	lt := loadEmbedded(t, ModuleLanguages).(*LanguageTable)

	assert.Equal(t, "en", lt.Priority[0])
	assert.True(t, lt.Known("fr"))
	assert.False(t, lt.Known("xx"))
	assert.Less(t, lt.Rank("en"), lt.Rank("fr"))
	assert.Equal(t, []string{"ru"}, lt.ScriptOwners("Cyrillic"))
	assert.Equal(t, []string{"en", "fr"}, lt.Countries["ca"])
	assert.Contains(t, lt.WordLanguages["avenue"], "en")
	assert.Contains(t, lt.WordLanguages["avenue"], "fr")

	suffixes := lt.Suffixes["de"]
	require.NotEmpty(t, suffixes)
	for i := 1; i < len(suffixes); i++ {
		assert.GreaterOrEqual(t, len(suffixes[i-1]), len(suffixes[i]), "suffixes sorted longest first")
	}
}

func TestEmbedded_Expansion(t *testing.T) {
	et := loadEmbedded(t, ModuleExpansion).(*ExpansionTable)

	en, ok := et.Rules("en")
	require.True(t, ok)

	st := en.Phrases["st"]
	require.Len(t, st, 2)
	assert.Equal(t, "street", st[0].Canonical)
	assert.Equal(t, "saint", st[1].Canonical)
	assert.True(t, st[0].Components.Has(address.ComponentStreet))

	assert.Equal(t, "number", en.Phrases["#"][0].Canonical)
	assert.Contains(t, en.Symbols, "#")
	assert.Equal(t, "ohio", en.Phrases["oh"][0].Canonical)
	assert.Equal(t, "united states", en.Phrases["u s a"][0].Canonical)
	assert.GreaterOrEqual(t, en.MaxPhraseTokens, 3)

	word, ok := en.Numex.Lookup("oh")
	require.True(t, ok)
	assert.True(t, word.NoLead)

	fr, ok := et.Rules("fr")
	require.True(t, ok)
	vingt, ok := fr.Numex.Lookup("vingt")
	require.True(t, ok)
	assert.True(t, vingt.Multiplicand)
	assert.True(t, vingt.TakesTeens)

	de, ok := et.Rules("de")
	require.True(t, ok)
	require.NotEmpty(t, de.SeparableSuffixes)
	assert.Equal(t, "strasse", de.SeparableSuffixes[0].Suffix)
	_, ok = de.Numex.Lookup("null")
	assert.True(t, ok)
}

func TestEmbedded_Parser(t *testing.T) {
	pt := loadEmbedded(t, ModuleParser).(*ParserTable)

	assert.True(t, pt.Supports("en"))
	assert.False(t, pt.Supports("th"))
	assert.Equal(t, []address.Label{address.LabelState}, pt.Gazetteers["en"].Lookup("ny"))
	assert.Equal(t,
		[]address.Label{address.LabelCity, address.LabelState},
		pt.Gazetteers["en"].Lookup("new york"))
	assert.Equal(t, []address.Label{address.LabelCountry}, pt.Gazetteers["*"].Lookup("espana"))
	assert.True(t, pt.Postcodes["gb"].MatchString("mk42 0xe"))
	assert.False(t, pt.Postcodes["us"].MatchString("660"))
	assert.True(t, pt.Disallowed[address.LabelCountry][address.LabelHouseNumber])
	assert.Equal(t, 6.0, pt.Weights["postcode"][address.LabelPostcode])
	assert.Contains(t, pt.PostcodeCountries(), "nl")
}

func TestEmbedded_Transliteration(t *testing.T) {
	tt := loadEmbedded(t, ModuleTransliteration).(*TransliterationTable)
	assert.NotContains(t, tt.Scripts, "Thai")
	out, ok := tt.Transliterator.Transliterate("Москва")
	assert.True(t, ok)
	assert.Equal(t, "moskva", out)
}

func TestCompile_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		module Module
		data   string
	}{
		{"empty", ModuleLanguages, ""},
		{"unknown field", ModuleLanguages, "priority: [en]\nbogus: 1\n"},
		{"empty priority", ModuleLanguages, "priority: []\n"},
		{"unlisted script language", ModuleLanguages, "priority: [en]\nscripts:\n  Latin: [fr]\n"},
		{"malformed entry", ModuleExpansion, "languages:\n  en:\n    dictionaries:\n      - name: x\n        entries: [street]\n"},
		{"bad component", ModuleExpansion, "languages:\n  en:\n    dictionaries:\n      - name: x\n        components: [moon]\n        entries: [a|b]\n"},
		{"bad postcode", ModuleParser, "languages: [en]\nweights:\n  bias: {house: 1}\npostcodes:\n  gb: '('\n"},
		{"bad label", ModuleParser, "languages: [en]\nweights:\n  bias: {castle: 1}\n"},
		{"bad transition", ModuleParser, "languages: [en]\nweights:\n  bias: {house: 1}\ndisallowed: [house]\n"},
		{"unknown script", ModuleTransliteration, "scripts: [Klingon]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.module, []byte(tt.data))
			assert.Error(t, err)
		})
	}
}
