package model

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/normalizer"
	"github.com/postal-engine/internal/numex"
	"github.com/postal-engine/internal/tokenizer"
)

// Artifact file names, one per module.
var artifactFiles = map[Module]string{
	ModuleLanguages:       "languages.yaml",
	ModuleExpansion:       "expansion.yaml",
	ModuleParser:          "parser.yaml",
	ModuleTransliteration: "transliteration.yaml",
}

// ArtifactFile returns the file name holding the tables of m.
func ArtifactFile(m Module) (string, bool) {
	name, ok := artifactFiles[m]
	return name, ok
}

// Compile decodes and validates the artifact of module m.
func Compile(m Module, data []byte) (Table, error) {
	switch m {
	case ModuleLanguages:
		return compileLanguages(data)
	case ModuleExpansion:
		return compileExpansion(data)
	case ModuleParser:
		return compileParser(data)
	case ModuleTransliteration:
		return compileTransliteration(data)
	}
	return nil, fmt.Errorf("no artifact for module %s", m)
}

func decodeStrict(data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty artifact")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

func normalizeTerm(s string) string {
	return normalizer.String(s, normalizer.DefaultOptions())
}

type languagesFile struct {
	Priority  []string            `yaml:"priority"`
	Scripts   map[string][]string `yaml:"scripts"`
	Countries map[string][]string `yaml:"countries"`
	Languages map[string]struct {
		Words    []string `yaml:"words"`
		Suffixes []string `yaml:"suffixes"`
	} `yaml:"languages"`
}

func compileLanguages(data []byte) (*LanguageTable, error) {
	var raw languagesFile
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Priority) == 0 {
		return nil, errors.New("priority list is empty")
	}
	t := &LanguageTable{
		Priority:      make([]string, 0, len(raw.Priority)),
		Scripts:       make(map[string][]string, len(raw.Scripts)),
		Countries:     make(map[string][]string, len(raw.Countries)),
		WordLanguages: make(map[string][]string),
		Suffixes:      make(map[string][]string, len(raw.Languages)),
		rank:          make(map[string]int, len(raw.Priority)),
	}
	for _, code := range raw.Priority {
		code = strings.ToLower(code)
		if _, dup := t.rank[code]; dup {
			return nil, fmt.Errorf("language %q listed twice in priority", code)
		}
		t.rank[code] = len(t.Priority)
		t.Priority = append(t.Priority, code)
	}
	checkCodes := func(where string, codes []string) ([]string, error) {
		out := make([]string, 0, len(codes))
		for _, c := range codes {
			c = strings.ToLower(c)
			if !t.Known(c) {
				return nil, fmt.Errorf("%s: language %q missing from priority", where, c)
			}
			out = append(out, c)
		}
		return out, nil
	}
	for script, codes := range raw.Scripts {
		langs, err := checkCodes("script "+script, codes)
		if err != nil {
			return nil, err
		}
		t.Scripts[script] = langs
	}
	for cc, codes := range raw.Countries {
		langs, err := checkCodes("country "+cc, codes)
		if err != nil {
			return nil, err
		}
		t.Countries[strings.ToLower(cc)] = langs
	}

	for code, lang := range raw.Languages {
		code = strings.ToLower(code)
		if !t.Known(code) {
			return nil, fmt.Errorf("language %q missing from priority", code)
		}
		for _, w := range lang.Words {
			key := normalizer.PhraseKey(w)
			if key == "" {
				continue
			}
			if !contains(t.WordLanguages[key], code) {
				t.WordLanguages[key] = append(t.WordLanguages[key], code)
			}
		}
		suffixes := make([]string, 0, len(lang.Suffixes))
		for _, s := range lang.Suffixes {
			if s = normalizeTerm(s); s != "" {
				suffixes = append(suffixes, s)
			}
		}
		sort.SliceStable(suffixes, func(i, j int) bool { return len(suffixes[i]) > len(suffixes[j]) })
		t.Suffixes[code] = suffixes
	}
	for _, langs := range t.WordLanguages {
		sort.SliceStable(langs, func(i, j int) bool { return t.rank[langs[i]] < t.rank[langs[j]] })
	}
	return t, nil
}

type expansionFile struct {
	Languages map[string]languageExpansionFile `yaml:"languages"`
}

type languageExpansionFile struct {
	Dictionaries      []dictionaryFile  `yaml:"dictionaries"`
	Numex             *numexFile        `yaml:"numex"`
	OrdinalSuffixes   []string          `yaml:"ordinal_suffixes"`
	SeparableSuffixes map[string]string `yaml:"separable_suffixes"`
}

type dictionaryFile struct {
	Name       string   `yaml:"name"`
	Components []string `yaml:"components"`
	// Entries are "canonical|alternative|alternative".
	Entries []string `yaml:"entries"`
}

type numexFile struct {
	Values        map[string]int64 `yaml:"values"`
	Ordinals      map[string]int64 `yaml:"ordinals"`
	Conjunctions  []string         `yaml:"conjunctions"`
	Multiplicands []string         `yaml:"multiplicands"`
	TakesTeens    []string         `yaml:"takes_teens"`
	NoLead        []string         `yaml:"no_lead"`
}

func compileExpansion(data []byte) (*ExpansionTable, error) {
	var raw expansionFile
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Languages) == 0 {
		return nil, errors.New("no languages defined")
	}
	t := &ExpansionTable{Languages: make(map[string]*LanguageRules, len(raw.Languages))}
	for code, lf := range raw.Languages {
		code = strings.ToLower(code)
		rules, err := compileLanguageRules(code, lf)
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", code, err)
		}
		t.Languages[code] = rules
	}
	return t, nil
}

func compileLanguageRules(code string, lf languageExpansionFile) (*LanguageRules, error) {
	r := &LanguageRules{
		Language: code,
		Phrases:  make(map[string][]Expansion),
		Symbols:  make(map[string]struct{}),
	}
	for _, d := range lf.Dictionaries {
		if d.Name == "" {
			return nil, errors.New("dictionary without name")
		}
		components, err := address.ParseComponents(d.Components)
		if err != nil {
			return nil, fmt.Errorf("dictionary %s: %w", d.Name, err)
		}
		if components == address.ComponentNone {
			components = address.ComponentAny
		}
		for _, entry := range d.Entries {
			forms := strings.Split(entry, "|")
			canonical := normalizeTerm(forms[0])
			if canonical == "" || len(forms) < 2 {
				return nil, fmt.Errorf("dictionary %s: malformed entry %q", d.Name, entry)
			}
			for _, alt := range forms[1:] {
				keys := normalizer.PhraseKeys(alt)
				if len(keys) == 0 {
					continue
				}
				key := strings.Join(keys, " ")
				r.Phrases[key] = append(r.Phrases[key], Expansion{
					Canonical:  canonical,
					Components: components,
					Dictionary: d.Name,
				})
				r.MaxPhraseTokens = max(r.MaxPhraseTokens, len(keys))
				for _, k := range keys {
					if isSymbol(k) {
						r.Symbols[k] = struct{}{}
					}
				}
			}
		}
	}

	if lf.Numex != nil {
		words, err := compileNumex(lf.Numex)
		if err != nil {
			return nil, fmt.Errorf("numex: %w", err)
		}
		r.Numex = numex.NewRules(words)
	}
	for _, s := range lf.OrdinalSuffixes {
		if s = normalizeTerm(s); s != "" {
			r.OrdinalSuffixes = append(r.OrdinalSuffixes, s)
		}
	}
	for suffix, canonical := range lf.SeparableSuffixes {
		r.SeparableSuffixes = append(r.SeparableSuffixes, SeparableSuffix{
			Suffix:    normalizeTerm(suffix),
			Canonical: normalizeTerm(canonical),
		})
	}
	sort.Slice(r.SeparableSuffixes, func(i, j int) bool {
		a, b := r.SeparableSuffixes[i], r.SeparableSuffixes[j]
		if len(a.Suffix) != len(b.Suffix) {
			return len(a.Suffix) > len(b.Suffix)
		}
		return a.Suffix < b.Suffix
	})
	return r, nil
}

func compileNumex(nf *numexFile) (map[string]numex.Word, error) {
	words := make(map[string]numex.Word)
	for w, v := range nf.Values {
		if v < 0 {
			return nil, fmt.Errorf("negative value for %q", w)
		}
		words[normalizeTerm(w)] = numex.Word{Kind: numex.KindForValue(v), Value: v}
	}
	for w, v := range nf.Ordinals {
		if v < 0 {
			return nil, fmt.Errorf("negative value for %q", w)
		}
		words[normalizeTerm(w)] = numex.Word{Kind: numex.KindForValue(v), Value: v, Ordinal: true}
	}
	for _, w := range nf.Conjunctions {
		words[normalizeTerm(w)] = numex.Word{Kind: numex.Conjunction}
	}
	flag := func(list []string, set func(*numex.Word)) error {
		for _, w := range list {
			key := normalizeTerm(w)
			word, ok := words[key]
			if !ok {
				return fmt.Errorf("flag on unknown number word %q", w)
			}
			set(&word)
			words[key] = word
		}
		return nil
	}
	if err := flag(nf.Multiplicands, func(w *numex.Word) { w.Multiplicand = true }); err != nil {
		return nil, err
	}
	if err := flag(nf.TakesTeens, func(w *numex.Word) { w.TakesTeens = true }); err != nil {
		return nil, err
	}
	if err := flag(nf.NoLead, func(w *numex.Word) { w.NoLead = true }); err != nil {
		return nil, err
	}
	return words, nil
}

func isSymbol(key string) bool {
	toks := tokenizer.Tokenize(key)
	return len(toks) == 1 && toks[0].Kind == tokenizer.Punctuation
}

type parserFile struct {
	Languages   []string                       `yaml:"languages"`
	Gazetteers  map[string]map[string][]string `yaml:"gazetteers"`
	Affixes     map[string]affixFile           `yaml:"affixes"`
	Postcodes   map[string]string              `yaml:"postcodes"`
	Weights     map[string]map[string]float64  `yaml:"weights"`
	Start       map[string]float64             `yaml:"start"`
	Transitions map[string]map[string]float64  `yaml:"transitions"`
	Disallowed  []string                       `yaml:"disallowed"`
}

type affixFile struct {
	StreetSuffixes []string `yaml:"street_suffixes"`
	StreetPrefixes []string `yaml:"street_prefixes"`
	VenueSuffixes  []string `yaml:"venue_suffixes"`
	VenuePrefixes  []string `yaml:"venue_prefixes"`
}

func compileParser(data []byte) (*ParserTable, error) {
	var raw parserFile
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Languages) == 0 {
		return nil, errors.New("parser supports no languages")
	}
	if len(raw.Weights) == 0 {
		return nil, errors.New("parser has no weights")
	}
	t := &ParserTable{
		Languages:  make(map[string]struct{}, len(raw.Languages)),
		Gazetteers: make(map[string]*Gazetteer, len(raw.Gazetteers)),
		Affixes:    make(map[string]*Affixes, len(raw.Affixes)),
		Postcodes:  make(map[string]*regexp.Regexp, len(raw.Postcodes)),
		Weights:    make(map[string]*LabelWeights, len(raw.Weights)),
	}
	for _, l := range raw.Languages {
		t.Languages[strings.ToLower(l)] = struct{}{}
	}

	for lang, byLabel := range raw.Gazetteers {
		g := &Gazetteer{Phrases: make(map[string][]address.Label)}
		for name, phrases := range byLabel {
			label, err := address.ParseLabel(name)
			if err != nil || label == address.LabelNone {
				return nil, fmt.Errorf("gazetteer %s: bad label %q", lang, name)
			}
			for _, p := range phrases {
				keys := normalizer.PhraseKeys(p)
				if len(keys) == 0 {
					continue
				}
				key := strings.Join(keys, " ")
				if !containsLabel(g.Phrases[key], label) {
					g.Phrases[key] = append(g.Phrases[key], label)
				}
				g.MaxTokens = max(g.MaxTokens, len(keys))
			}
		}
		for _, labels := range g.Phrases {
			sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
		}
		t.Gazetteers[strings.ToLower(lang)] = g
	}

	for lang, af := range raw.Affixes {
		t.Affixes[strings.ToLower(lang)] = &Affixes{
			StreetSuffixes: keySet(af.StreetSuffixes),
			StreetPrefixes: keySet(af.StreetPrefixes),
			VenueSuffixes:  keySet(af.VenueSuffixes),
			VenuePrefixes:  keySet(af.VenuePrefixes),
		}
	}

	for cc, pattern := range raw.Postcodes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("postcode pattern %s: %w", cc, err)
		}
		t.Postcodes[strings.ToLower(cc)] = re
	}

	for feature, byLabel := range raw.Weights {
		w, err := labelWeights(byLabel)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", feature, err)
		}
		t.Weights[feature] = w
	}
	start, err := labelWeights(raw.Start)
	if err != nil {
		return nil, fmt.Errorf("start weights: %w", err)
	}
	t.Start = *start
	for from, byLabel := range raw.Transitions {
		fl, err := address.ParseLabel(from)
		if err != nil || fl == address.LabelNone {
			return nil, fmt.Errorf("transition from %q: bad label", from)
		}
		w, err := labelWeights(byLabel)
		if err != nil {
			return nil, fmt.Errorf("transition from %s: %w", from, err)
		}
		t.Transitions[fl] = *w
	}
	for _, pair := range raw.Disallowed {
		from, to, ok := strings.Cut(pair, ">")
		if !ok {
			return nil, fmt.Errorf("disallowed transition %q: want from>to", pair)
		}
		fl, err1 := address.ParseLabel(strings.TrimSpace(from))
		tl, err2 := address.ParseLabel(strings.TrimSpace(to))
		if err := errors.Join(err1, err2); err != nil || fl == address.LabelNone || tl == address.LabelNone {
			return nil, fmt.Errorf("disallowed transition %q: bad label", pair)
		}
		t.Disallowed[fl][tl] = true
	}
	return t, nil
}

func labelWeights(byLabel map[string]float64) (*LabelWeights, error) {
	var w LabelWeights
	for name, v := range byLabel {
		l, err := address.ParseLabel(name)
		if err != nil || l == address.LabelNone {
			return nil, fmt.Errorf("bad label %q", name)
		}
		w[l] = v
	}
	return &w, nil
}

func keySet(terms []string) map[string]struct{} {
	out := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if k := normalizer.PhraseKey(term); k != "" {
			out[k] = struct{}{}
		}
	}
	return out
}

type transliterationFile struct {
	Scripts   []string          `yaml:"scripts"`
	Overrides map[string]string `yaml:"overrides"`
}

var knownScripts = map[string]bool{
	tokenizer.ScriptLatin: true, tokenizer.ScriptCyrillic: true, tokenizer.ScriptGreek: true,
	tokenizer.ScriptArabic: true, tokenizer.ScriptHebrew: true, tokenizer.ScriptThai: true,
	tokenizer.ScriptHan: true, tokenizer.ScriptHiragana: true, tokenizer.ScriptKatakana: true,
	tokenizer.ScriptHangul: true, tokenizer.ScriptDevanagari: true, tokenizer.ScriptArmenian: true,
	tokenizer.ScriptGeorgian: true,
}

func compileTransliteration(data []byte) (*TransliterationTable, error) {
	var raw transliterationFile
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}
	for _, sc := range raw.Scripts {
		if !knownScripts[sc] {
			return nil, fmt.Errorf("unknown script %q", sc)
		}
	}
	return &TransliterationTable{
		Scripts:        raw.Scripts,
		Transliterator: normalizer.NewTransliterator(raw.Scripts, raw.Overrides),
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsLabel(list []address.Label, l address.Label) bool {
	for _, v := range list {
		if v == l {
			return true
		}
	}
	return false
}
