package expand

import (
	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/normalizer"
)

// DefaultMaxExpansions caps the number of strings returned for one input.
const DefaultMaxExpansions = 100

// Options controls normalization and which expansions are produced.
type Options struct {
	// Languages restricts dictionaries to these codes; empty means the
	// languages are detected.
	Languages         []string          `json:"languages,omitempty" mapstructure:"languages"`
	AddressComponents address.Component `json:"address_components" mapstructure:"-"`

	LatinASCII             bool `json:"latin_ascii" mapstructure:"latin_ascii"`
	Transliterate          bool `json:"transliterate" mapstructure:"transliterate"`
	StripAccents           bool `json:"strip_accents" mapstructure:"strip_accents"`
	Decompose              bool `json:"decompose" mapstructure:"decompose"`
	Lowercase              bool `json:"lowercase" mapstructure:"lowercase"`
	TrimString             bool `json:"trim_string" mapstructure:"trim_string"`
	DropParentheticals     bool `json:"drop_parentheticals" mapstructure:"drop_parentheticals"`
	ReplaceNumericHyphens  bool `json:"replace_numeric_hyphens" mapstructure:"replace_numeric_hyphens"`
	DeleteNumericHyphens   bool `json:"delete_numeric_hyphens" mapstructure:"delete_numeric_hyphens"`
	SplitAlphaFromNumeric  bool `json:"split_alpha_from_numeric" mapstructure:"split_alpha_from_numeric"`
	ReplaceWordHyphens     bool `json:"replace_word_hyphens" mapstructure:"replace_word_hyphens"`
	DeleteWordHyphens      bool `json:"delete_word_hyphens" mapstructure:"delete_word_hyphens"`
	DeleteFinalPeriods     bool `json:"delete_final_periods" mapstructure:"delete_final_periods"`
	DeleteAcronymPeriods   bool `json:"delete_acronym_periods" mapstructure:"delete_acronym_periods"`
	DropEnglishPossessives bool `json:"drop_english_possessives" mapstructure:"drop_english_possessives"`
	DeleteApostrophes      bool `json:"delete_apostrophes" mapstructure:"delete_apostrophes"`
	ExpandNumex            bool `json:"expand_numex" mapstructure:"expand_numex"`
	RomanNumerals          bool `json:"roman_numerals" mapstructure:"roman_numerals"`

	Uppercase     bool `json:"uppercase" mapstructure:"uppercase"`
	CanonicalOnly bool `json:"canonical_only" mapstructure:"canonical_only"`
	MaxExpansions int  `json:"max_expansions" mapstructure:"max_expansions"`
}

// DefaultOptions returns the stock expansion settings: every rewrite
// enabled except numeric hyphen handling.
func DefaultOptions() Options {
	return Options{
		AddressComponents:      address.ComponentDefault,
		LatinASCII:             true,
		Transliterate:          true,
		StripAccents:           true,
		Decompose:              true,
		Lowercase:              true,
		TrimString:             true,
		DropParentheticals:     true,
		SplitAlphaFromNumeric:  true,
		ReplaceWordHyphens:     true,
		DeleteWordHyphens:      true,
		DeleteFinalPeriods:     true,
		DeleteAcronymPeriods:   true,
		DropEnglishPossessives: true,
		DeleteApostrophes:      true,
		ExpandNumex:            true,
		RomanNumerals:          true,
		MaxExpansions:          DefaultMaxExpansions,
	}
}

func (o Options) stringOptions() normalizer.Options {
	return normalizer.Options{
		LatinASCII:   o.LatinASCII,
		StripAccents: o.StripAccents,
		Decompose:    o.Decompose,
		Lowercase:    o.Lowercase,
		TrimString:   o.TrimString,
	}
}

func (o Options) tokenOptions() normalizer.TokenOptions {
	return normalizer.TokenOptions{
		DeleteFinalPeriods:     o.DeleteFinalPeriods,
		DeleteAcronymPeriods:   o.DeleteAcronymPeriods,
		DropEnglishPossessives: o.DropEnglishPossessives,
		DeleteApostrophes:      o.DeleteApostrophes,
		ReplaceWordHyphens:     o.ReplaceWordHyphens,
		DeleteWordHyphens:      o.DeleteWordHyphens,
		ReplaceNumericHyphens:  o.ReplaceNumericHyphens,
		DeleteNumericHyphens:   o.DeleteNumericHyphens,
		SplitAlphaFromNumeric:  o.SplitAlphaFromNumeric,
	}
}

func (o Options) maxExpansions() int {
	if o.MaxExpansions <= 0 {
		return DefaultMaxExpansions
	}
	return o.MaxExpansions
}
