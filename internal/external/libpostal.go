//go:build libpostal

// Package external compares the engine against the C libpostal bindings.
// It needs libpostal installed and builds only with -tags libpostal.
package external

import (
	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"

	"github.com/postal-engine/postal"
)

// Comparison is the agreement of the engine with libpostal on one address.
type Comparison struct {
	Address string `json:"address"`
	// CanonicalShared is true when the two canonical expansions are equal
	// or one appears among the other's expansions.
	CanonicalShared bool `json:"canonical_shared"`
	// LabelAgreement is the share of libpostal components the engine
	// labeled with the same value.
	LabelAgreement float64           `json:"label_agreement"`
	Engine         map[string]string `json:"engine"`
	Libpostal      map[string]string `json:"libpostal"`
}

// Reference runs the original library.
type Reference struct {
	Languages []string
	Country   string
}

// Expand returns the libpostal expansions of text.
func (r Reference) Expand(text string) []string {
	opts := expand.GetDefaultExpansionOptions()
	if len(r.Languages) > 0 {
		opts.Languages = r.Languages
	}
	return expand.ExpandAddressOptions(text, opts)
}

// Parse returns the libpostal components of text by label.
func (r Reference) Parse(text string) map[string]string {
	opts := parser.ParserOptions{Country: r.Country}
	if len(r.Languages) > 0 {
		opts.Language = r.Languages[0]
	}
	out := make(map[string]string)
	for _, c := range parser.ParseAddressOptions(text, opts) {
		if prev, ok := out[c.Label]; ok {
			out[c.Label] = prev + " " + c.Value
			continue
		}
		out[c.Label] = c.Value
	}
	return out
}

// Compare runs text through both engines. eng needs the parser and
// expansion modules.
func (r Reference) Compare(eng *postal.Engine, text string) (Comparison, error) {
	opts := postal.DefaultExpandOptions()
	opts.Languages = r.Languages
	ours, err := eng.ExpandAddress(text, opts)
	if err != nil {
		return Comparison{}, err
	}
	parseOpts := postal.ParseOptions{Country: r.Country}
	if len(r.Languages) > 0 {
		parseOpts.Language = r.Languages[0]
	}
	components, err := eng.ParseAddressComponents(text, parseOpts)
	if err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{
		Address:   text,
		Engine:    postal.ComponentMap(components),
		Libpostal: r.Parse(text),
	}
	cmp.CanonicalShared = sharesCanonical(ours, r.Expand(text))
	cmp.LabelAgreement = agreement(cmp.Engine, cmp.Libpostal)
	return cmp, nil
}

func sharesCanonical(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return contains(b, a[0]) || contains(a, b[0])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func agreement(ours, theirs map[string]string) float64 {
	if len(theirs) == 0 {
		return 1
	}
	same := 0
	for label, value := range theirs {
		if ours[label] == value {
			same++
		}
	}
	return float64(same) / float64(len(theirs))
}
