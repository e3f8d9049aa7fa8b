package address

import (
	"fmt"
	"strings"
)

// Component is a bit set of address component classes. Dictionary
// expansions carry a mask and only apply when it intersects the mask
// requested by the caller.
type Component uint32

// ComponentNone is the empty mask.
const ComponentNone Component = 0

const (
	ComponentAny Component = 1 << iota
	ComponentName
	ComponentHouseNumber
	ComponentStreet
	ComponentUnit
	ComponentLevel
	ComponentStaircase
	ComponentEntrance
	ComponentCategory
	ComponentNear
	ComponentToponym
	ComponentPostalCode
	ComponentPoBox

	ComponentAll = ComponentAny | ComponentName | ComponentHouseNumber | ComponentStreet |
		ComponentUnit | ComponentLevel | ComponentStaircase | ComponentEntrance |
		ComponentCategory | ComponentNear | ComponentToponym | ComponentPostalCode | ComponentPoBox

	// ComponentDefault is the mask used when the caller does not restrict
	// expansion. Toponyms are included so state and country abbreviations
	// expand out of the box.
	ComponentDefault = ComponentName | ComponentHouseNumber | ComponentStreet | ComponentPoBox |
		ComponentUnit | ComponentLevel | ComponentEntrance | ComponentStaircase |
		ComponentPostalCode | ComponentToponym
)

var componentNames = []struct {
	bit  Component
	name string
}{
	{ComponentAny, "any"},
	{ComponentName, "name"},
	{ComponentHouseNumber, "house_number"},
	{ComponentStreet, "street"},
	{ComponentUnit, "unit"},
	{ComponentLevel, "level"},
	{ComponentStaircase, "staircase"},
	{ComponentEntrance, "entrance"},
	{ComponentCategory, "category"},
	{ComponentNear, "near"},
	{ComponentToponym, "toponym"},
	{ComponentPostalCode, "postal_code"},
	{ComponentPoBox, "po_box"},
}

// Has reports whether every bit of other is set.
func (c Component) Has(other Component) bool {
	return c&other == other
}

// Matches reports whether an expansion tagged with c applies under mask.
func (c Component) Matches(mask Component) bool {
	if c&ComponentAny != 0 || mask&ComponentAny != 0 {
		return true
	}
	return c&mask != 0
}

// Toggle flips the given bits.
func (c Component) Toggle(bits Component) Component {
	return c ^ bits
}

func (c Component) String() string {
	if c == ComponentNone {
		return "none"
	}
	var parts []string
	for _, cn := range componentNames {
		if c&cn.bit != 0 {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseComponent resolves a single component name; "all" and "default"
// name the predefined masks.
func ParseComponent(name string) (Component, error) {
	switch name {
	case "all":
		return ComponentAll, nil
	case "default":
		return ComponentDefault, nil
	case "none":
		return ComponentNone, nil
	}
	for _, cn := range componentNames {
		if cn.name == name {
			return cn.bit, nil
		}
	}
	return ComponentNone, fmt.Errorf("unknown address component %q", name)
}

// ParseComponents ORs together a list of component names.
func ParseComponents(names []string) (Component, error) {
	var c Component
	for _, name := range names {
		bit, err := ParseComponent(strings.TrimSpace(strings.ToLower(name)))
		if err != nil {
			return ComponentNone, err
		}
		c |= bit
	}
	return c, nil
}
