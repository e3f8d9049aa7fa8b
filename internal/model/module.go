package model

import (
	"fmt"
	"strings"
)

// Module identifies an independently loadable group of model tables.
type Module int

const (
	ModuleParser Module = iota
	ModuleExpansion
	ModuleTransliteration
	// ModuleLanguages holds the classifier tables shared by the parser and
	// the expansion engine. It is loaded implicitly as a dependency.
	ModuleLanguages

	// ModuleAll expands to every caller-facing module.
	ModuleAll Module = -1
)

var moduleNames = map[Module]string{
	ModuleParser:          "parser",
	ModuleExpansion:       "expansion",
	ModuleTransliteration: "transliteration",
	ModuleLanguages:       "languages",
	ModuleAll:             "all",
}

func (m Module) String() string {
	if name, ok := moduleNames[m]; ok {
		return name
	}
	return fmt.Sprintf("module(%d)", int(m))
}

// ParseModule resolves a caller-facing module by name. "address" and
// "expand" are accepted as aliases to match the usual setup vocabulary.
// ModuleLanguages has no name; it follows the modules that need it.
func ParseModule(name string) (Module, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "parser", "address", "parse":
		return ModuleParser, nil
	case "expansion", "expand":
		return ModuleExpansion, nil
	case "transliteration", "translit":
		return ModuleTransliteration, nil
	case "all":
		return ModuleAll, nil
	}
	return 0, fmt.Errorf("unknown module %q", name)
}

// ParseModules resolves a list of module names.
func ParseModules(names []string) ([]Module, error) {
	out := make([]Module, 0, len(names))
	for _, n := range names {
		m, err := ParseModule(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// dependencies lists modules that must be resident before m.
func (m Module) dependencies() []Module {
	switch m {
	case ModuleParser, ModuleExpansion:
		return []Module{ModuleLanguages}
	}
	return nil
}

// expandModules resolves ModuleAll and removes duplicates, keeping order.
func expandModules(modules []Module) []Module {
	seen := make(map[Module]bool, len(modules))
	out := make([]Module, 0, len(modules)+2)
	add := func(m Module) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, m := range modules {
		if m == ModuleAll {
			add(ModuleParser)
			add(ModuleExpansion)
			add(ModuleTransliteration)
			continue
		}
		add(m)
	}
	return out
}
