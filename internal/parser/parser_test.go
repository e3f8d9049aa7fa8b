package parser

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/tokenizer"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	table, err := model.NewEmbeddedLoader().Load(model.ModuleParser)
	require.NoError(t, err)
	return New(table.(*model.ParserTable))
}

func TestParse_KnownAddresses(t *testing.T) {
	p := newParser(t)
	tests := []struct {
		name    string
		input   string
		langs   []string
		country string
		want    []Component
	}{
		{
			name:  "united kingdom",
			input: "St Johns Centre, Rope Walk, Bedford, Bedfordshire, MK42 0XE, United Kingdom",
			langs: []string{"en"},
			want: []Component{
				{address.LabelHouse, "st johns centre"},
				{address.LabelRoad, "rope walk"},
				{address.LabelCity, "bedford"},
				{address.LabelStateDistrict, "bedfordshire"},
				{address.LabelPostcode, "mk42 0xe"},
				{address.LabelCountry, "united kingdom"},
			},
		},
		{
			name:    "united states",
			input:   "Black Alliance for Just Immigration 660 Nostrand Ave, Brooklyn, N.Y., 11216",
			langs:   []string{"en"},
			country: "us",
			want: []Component{
				{address.LabelHouse, "black alliance for just immigration"},
				{address.LabelHouseNumber, "660"},
				{address.LabelRoad, "nostrand ave"},
				{address.LabelCityDistrict, "brooklyn"},
				{address.LabelState, "n.y."},
				{address.LabelPostcode, "11216"},
			},
		},
		{
			name:  "spain",
			input: "Museo del Prado C. de Ruiz de Alarcón, 23 28014 Madrid, España",
			langs: []string{"es"},
			want: []Component{
				{address.LabelHouse, "museo del prado"},
				{address.LabelRoad, "c. de ruiz de alarcón"},
				{address.LabelHouseNumber, "23"},
				{address.LabelPostcode, "28014"},
				{address.LabelCity, "madrid"},
				{address.LabelCountry, "españa"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labeled, err := p.Parse(tokenizer.Tokenize(tt.input), tt.langs, tt.country)
			require.NoError(t, err)
			got := Components(labeled)
			assert.Equal(t, tt.want, got)
			t.Logf("%s: %v", tt.name, ComponentMap(got))
		})
	}
}

func TestParse_OneLabelPerToken(t *testing.T) {
	p := newParser(t)
	input := "4998 Vanderbilt Dr, Columbus, OH 43213"
	tokens := tokenizer.Tokenize(input)

	labeled, err := p.Parse(tokens, []string{"en"}, "")
	require.NoError(t, err)
	require.Len(t, labeled, len(tokens))

	var sb strings.Builder
	for i, lt := range labeled {
		sb.WriteString(lt.Text)
		assert.Equal(t, tokens[i].Text, lt.Text)
		if tokens[i].IsContent() {
			assert.NotEqual(t, address.LabelNone, lt.Label, "content token %q", lt.Text)
		} else {
			assert.Equal(t, address.LabelNone, lt.Label, "token %q", lt.Text)
		}
	}
	assert.Equal(t, input, sb.String())

	m := ComponentMap(Components(labeled))
	assert.Equal(t, "4998", m["house_number"])
	assert.Equal(t, "vanderbilt dr", m["road"])
	assert.Equal(t, "columbus", m["city"])
	assert.Equal(t, "43213", m["postcode"])
}

func TestParse_Unavailable(t *testing.T) {
	p := newParser(t)
	_, err := p.Parse(tokenizer.Tokenize("улица Ленина 5"), []string{"ru"}, "")
	assert.ErrorIs(t, err, ErrParseUnavailable)

	_, err = p.Parse(tokenizer.Tokenize("Main St"), nil, "")
	assert.ErrorIs(t, err, ErrParseUnavailable)

	labeled, err := p.Parse(tokenizer.Tokenize("Main St"), []string{"ru", "en"}, "")
	require.NoError(t, err)
	assert.Len(t, labeled, 3)
}

func TestParse_NoContent(t *testing.T) {
	p := newParser(t)
	labeled, err := p.Parse(tokenizer.Tokenize(" , ;"), []string{"en"}, "")
	require.NoError(t, err)
	for _, lt := range labeled {
		assert.Equal(t, address.LabelNone, lt.Label)
	}
	assert.Empty(t, Components(labeled))

	labeled, err = p.Parse(nil, []string{"en"}, "")
	require.NoError(t, err)
	assert.Empty(t, labeled)
}

func TestParse_Deterministic(t *testing.T) {
	p := newParser(t)
	tokens := tokenizer.Tokenize("St Johns Centre, Rope Walk, Bedford, Bedfordshire, MK42 0XE, United Kingdom")
	first, err := p.Parse(tokens, []string{"en", "fr"}, "gb")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := p.Parse(tokens, []string{"en", "fr"}, "gb")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPostcodeFeatures_PairKeepsSpace(t *testing.T) {
	p := newParser(t)
	tests := []struct {
		input   string
		country string
		want    []bool
	}{
		{"120 E 96th St", "", []bool{false, false, false, false}},
		{"MK42 0XE", "", []bool{true, true}},
		{"MK42 0XE", "gb", []bool{true, true}},
		{"H3Z 2Y7", "ca", []bool{true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.input+"/"+tt.country, func(t *testing.T) {
			tokens := tokenizer.Tokenize(tt.input)
			items, segs := split(tokens)
			require.Len(t, items, len(tt.want))
			f := &featureSet{names: make([][]string, len(items))}
			for _, s := range segs {
				postcodeFeatures(f, tokens, items, s, p.vocabulary(nil, tt.country))
			}
			for i, want := range tt.want {
				assert.Equal(t, want, slices.Contains(f.names[i], "postcode"), "item %q", items[i].tok.Text)
			}
		})
	}
}

func TestComponents_CommaEndsRun(t *testing.T) {
	labeled := []LabeledToken{
		{"Bedford", address.LabelCity},
		{",", address.LabelNone},
		{" ", address.LabelNone},
		{"Kempston", address.LabelCity},
		{" ", address.LabelNone},
		{"Town", address.LabelCity},
	}
	assert.Equal(t, []Component{
		{address.LabelCity, "bedford"},
		{address.LabelCity, "kempston town"},
	}, Components(labeled))
	assert.Equal(t, map[string]string{"city": "bedford kempston town"}, ComponentMap(Components(labeled)))
}

func TestComponents_DropsInnerPunctuation(t *testing.T) {
	labeled := []LabeledToken{
		{"O'Brien's", address.LabelRoad},
		{" ", address.LabelNone},
		{"Rd", address.LabelRoad},
		{".", address.LabelNone},
		{" ", address.LabelNone},
		{"(", address.LabelNone},
		{"rear", address.LabelRoad},
		{")", address.LabelNone},
		{" ", address.LabelNone},
		{"12-14", address.LabelHouseNumber},
	}
	assert.Equal(t, []Component{
		{address.LabelRoad, "o'brien's rd. rear"},
		{address.LabelHouseNumber, "12-14"},
	}, Components(labeled))
}

func TestDecode_DisallowedTransition(t *testing.T) {
	table := &model.ParserTable{}
	table.Disallowed[address.LabelCountry][address.LabelRoad] = true
	p := New(table)

	var em [2][address.NumLabels]float64
	em[0][address.LabelCountry] = 5
	em[1][address.LabelRoad] = 3
	em[1][address.LabelCity] = 1

	got := p.decode(em[:])
	assert.NotEqual(t, []address.Label{address.LabelCountry, address.LabelRoad}, got)
	assert.Equal(t, []address.Label{address.LabelCountry, address.LabelCity}, got)
}

func TestDecode_TiesPreferLowerLabel(t *testing.T) {
	p := New(&model.ParserTable{})
	var em [1][address.NumLabels]float64
	em[0][address.LabelCity] = 1
	em[0][address.LabelState] = 1
	assert.Equal(t, []address.Label{address.LabelCity}, p.decode(em[:]))
}

func TestShape(t *testing.T) {
	tests := map[string]string{
		"MK42":  "Xd",
		"Main":  "Xx",
		"11216": "d",
		"N.Y.":  "X.X.",
		"2f":    "dx",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, shape(in))
		})
	}
}
