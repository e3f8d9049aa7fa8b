package numex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func englishRules() *Rules {
	words := map[string]Word{
		"and":      {Kind: Conjunction},
		"zero":     {Kind: Zero},
		"oh":       {Kind: Zero, NoLead: true},
		"hundred":  {Kind: Hundred, Value: 100},
		"thousand": {Kind: Power, Value: 1000},
		"million":  {Kind: Power, Value: 1000000},
	}
	for w, v := range map[string]int64{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
		"ten": 10, "eleven": 11, "twelve": 12, "nineteen": 19,
		"twenty": 20, "thirty": 30, "ninety": 90,
	} {
		words[w] = Word{Kind: KindForValue(v), Value: v}
	}
	for w, v := range map[string]int64{"first": 1, "sixth": 6, "twentieth": 20, "hundredth": 100} {
		words[w] = Word{Kind: KindForValue(v), Value: v, Ordinal: true}
	}
	return NewRules(words)
}

func frenchRules() *Rules {
	return NewRules(map[string]Word{
		"et":       {Kind: Conjunction},
		"quatre":   {Kind: Unit, Value: 4},
		"sept":     {Kind: Unit, Value: 7},
		"dix":      {Kind: Teen, Value: 10},
		"douze":    {Kind: Teen, Value: 12},
		"dix-sept": {Kind: Teen, Value: 17},
		"vingt":    {Kind: Tens, Value: 20, Multiplicand: true, TakesTeens: true},
		"vingts":   {Kind: Tens, Value: 20, Multiplicand: true, TakesTeens: true},
		"soixante": {Kind: Tens, Value: 60, TakesTeens: true},
		"cent":     {Kind: Hundred, Value: 100},
	})
}

func TestParse_English(t *testing.T) {
	r := englishRules()
	tests := []struct {
		name    string
		words   []string
		want    string
		ordinal bool
		ok      bool
	}{
		{"single unit", []string{"one"}, "1", false, true},
		{"compound tens", []string{"twenty", "one"}, "21", false, true},
		{"ordinal", []string{"ninety", "sixth"}, "96", true, true},
		{"year with oh", []string{"nineteen", "oh", "one"}, "1901", false, true},
		{"spoken house number", []string{"three", "twenty"}, "320", false, true},
		{"two digit groups", []string{"twenty", "twenty"}, "2020", false, true},
		{"hundred and", []string{"one", "hundred", "and", "five"}, "105", false, true},
		{"thousands", []string{"two", "thousand", "three"}, "2003", false, true},
		{"millions", []string{"two", "million", "three", "thousand"}, "2003000", false, true},
		{"nineteen hundred", []string{"nineteen", "hundred"}, "1900", false, true},
		{"zero", []string{"zero"}, "0", false, true},
		{"oh cannot lead", []string{"oh"}, "", false, false},
		{"dangling oh", []string{"nineteen", "oh"}, "", false, false},
		{"single digit group", []string{"one", "two"}, "", false, false},
		{"ordinal not last", []string{"sixth", "one"}, "", false, false},
		{"leading conjunction", []string{"and", "one"}, "", false, false},
		{"trailing conjunction", []string{"one", "and"}, "", false, false},
		{"unknown word", []string{"one", "main"}, "", false, false},
		{"double hundred", []string{"one", "hundred", "hundred"}, "", false, false},
		{"empty", nil, "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Parse(tt.words)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, got.Text)
			assert.Equal(t, tt.ordinal, got.Ordinal)
		})
	}
}

func TestParse_French(t *testing.T) {
	r := frenchRules()
	tests := []struct {
		words []string
		want  string
	}{
		{[]string{"quatre", "vingt", "douze"}, "92"},
		{[]string{"quatre", "vingts"}, "80"},
		{[]string{"quatre", "vingt", "dix", "sept"}, "97"},
		{[]string{"soixante", "douze"}, "72"},
		{[]string{"dix-sept"}, "17"},
		{[]string{"sept", "cent"}, "700"},
	}
	for _, tt := range tests {
		got, ok := r.Parse(tt.words)
		require.True(t, ok, "%v", tt.words)
		assert.Equal(t, tt.want, got.Text, "%v", tt.words)
	}
}

func TestSplit(t *testing.T) {
	en, fr := englishRules(), frenchRules()

	words, ok := en.Split("ninety-sixth")
	require.True(t, ok)
	assert.Equal(t, []string{"ninety", "sixth"}, words)

	words, ok = fr.Split("dix-sept")
	require.True(t, ok)
	assert.Equal(t, []string{"dix-sept"}, words)

	_, ok = en.Split("champs-elysees")
	assert.False(t, ok)
	_, ok = en.Split("main")
	assert.False(t, ok)
}

func TestStripOrdinal(t *testing.T) {
	en := []string{"st", "nd", "rd", "th"}
	fr := []string{"e", "er", "eme", "ere"}

	got, ok := StripOrdinal("96th", en)
	assert.True(t, ok)
	assert.Equal(t, "96", got)

	got, ok = StripOrdinal("2eme", fr)
	assert.True(t, ok)
	assert.Equal(t, "2", got)

	_, ok = StripOrdinal("east", en)
	assert.False(t, ok)
	_, ok = StripOrdinal("th", en)
	assert.False(t, ok)
	_, ok = StripOrdinal("4b", en)
	assert.False(t, ok)
}

func TestRomanValue(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"XIV", 14, true},
		{"MCMXC", 1990, true},
		{"IV", 4, true},
		{"MMMCMXCIX", 3999, true},
		{"I", 0, false},
		{"XIIII", 0, false},
		{"xiv", 0, false},
		{"OH", 0, false},
		{"IIV", 0, false},
	}
	for _, tt := range tests {
		got, ok := RomanValue(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "XLII", ToRoman(42))
	assert.Empty(t, ToRoman(4000))
}
