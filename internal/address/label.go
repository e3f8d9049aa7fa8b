// Package address holds the closed vocabularies shared by the engine:
// parser component labels and the address component bit set used to
// gate expansions.
package address

import "fmt"

// Label is one component class assigned by the parser.
type Label int

// Enumeration order is also the parser tie-break order.
const (
	LabelHouse Label = iota
	LabelCategory
	LabelNear
	LabelHouseNumber
	LabelRoad
	LabelUnit
	LabelLevel
	LabelStaircase
	LabelEntrance
	LabelPoBox
	LabelPostcode
	LabelSuburb
	LabelCityDistrict
	LabelCity
	LabelIsland
	LabelStateDistrict
	LabelState
	LabelCountryRegion
	LabelCountry
	LabelWorldRegion

	// LabelNone marks whitespace and punctuation tokens the model skips.
	LabelNone Label = -1
)

// NumLabels is the size of the closed label vocabulary.
const NumLabels = int(LabelWorldRegion) + 1

var labelNames = [NumLabels]string{
	"house",
	"category",
	"near",
	"house_number",
	"road",
	"unit",
	"level",
	"staircase",
	"entrance",
	"po_box",
	"postcode",
	"suburb",
	"city_district",
	"city",
	"island",
	"state_district",
	"state",
	"country_region",
	"country",
	"world_region",
}

var labelsByName = func() map[string]Label {
	m := make(map[string]Label, NumLabels)
	for i, name := range labelNames {
		m[name] = Label(i)
	}
	return m
}()

// Labels returns every label in enumeration order.
func Labels() []Label {
	out := make([]Label, NumLabels)
	for i := range out {
		out[i] = Label(i)
	}
	return out
}

func (l Label) String() string {
	if l == LabelNone {
		return "null"
	}
	if l < 0 || int(l) >= NumLabels {
		return fmt.Sprintf("label(%d)", int(l))
	}
	return labelNames[l]
}

// ParseLabel resolves a label by its model name.
func ParseLabel(name string) (Label, error) {
	if name == "null" {
		return LabelNone, nil
	}
	l, ok := labelsByName[name]
	if !ok {
		return LabelNone, fmt.Errorf("unknown label %q", name)
	}
	return l, nil
}

// MarshalText encodes the label by name so JSON output stays readable.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a label name.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
