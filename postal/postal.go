// Package postal is the caller-facing API of the engine: tokenization,
// language classification, address expansion and parsing over a set of
// reference counted model tables.
//
//	eng := postal.New(postal.Config{}, logger)
//	if err := eng.Setup(ctx, postal.ModuleAll); err != nil { ... }
//	defer eng.Teardown(postal.ModuleAll)
//	expansions, err := eng.ExpandAddress("120 E 96th St", postal.DefaultExpandOptions())
package postal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/postal-engine/internal/address"
	"github.com/postal-engine/internal/dedupe"
	"github.com/postal-engine/internal/expand"
	"github.com/postal-engine/internal/langid"
	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/normalizer"
	"github.com/postal-engine/internal/parser"
	"github.com/postal-engine/internal/tokenizer"
)

type (
	Token         = tokenizer.Token
	TokenKind     = tokenizer.Kind
	Module        = model.Module
	Label         = address.Label
	LabeledToken  = parser.LabeledToken
	Component     = parser.Component
	LanguageHint  = langid.Hint
	LanguageScore = langid.Score
	ExpandOptions = expand.Options
	DedupeResult  = dedupe.Result
)

const (
	ModuleParser          = model.ModuleParser
	ModuleExpansion       = model.ModuleExpansion
	ModuleTransliteration = model.ModuleTransliteration
	ModuleAll             = model.ModuleAll
)

// Address component masks for ExpandOptions.AddressComponents.
const (
	ComponentAny         = address.ComponentAny
	ComponentName        = address.ComponentName
	ComponentHouseNumber = address.ComponentHouseNumber
	ComponentStreet      = address.ComponentStreet
	ComponentUnit        = address.ComponentUnit
	ComponentLevel       = address.ComponentLevel
	ComponentStaircase   = address.ComponentStaircase
	ComponentEntrance    = address.ComponentEntrance
	ComponentCategory    = address.ComponentCategory
	ComponentNear        = address.ComponentNear
	ComponentToponym     = address.ComponentToponym
	ComponentPostalCode  = address.ComponentPostalCode
	ComponentPoBox       = address.ComponentPoBox
	ComponentAll         = address.ComponentAll
	ComponentDefault     = address.ComponentDefault
)

// DefaultExpandOptions returns the stock expansion settings.
func DefaultExpandOptions() ExpandOptions {
	return expand.DefaultOptions()
}

// ParseModules converts module names ("parser", "expand", "all", ...).
func ParseModules(names []string) ([]Module, error) {
	return model.ParseModules(names)
}

// ParseComponents converts component names ("street", "toponym",
// "default", ...) into a mask.
func ParseComponents(names []string) (address.Component, error) {
	return address.ParseComponents(names)
}

// Config selects the model tables and classifier settings.
type Config struct {
	// ModelDir holds the artifact files; empty uses the embedded set.
	ModelDir string `yaml:"model_dir" mapstructure:"model_dir"`
	// TopK is the number of languages kept by the classifier.
	TopK int `yaml:"top_k" mapstructure:"top_k"`
}

// ParseOptions are caller hints for ParseAddress.
type ParseOptions struct {
	Language string `json:"language,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Engine is a handle on one model store. It is safe for concurrent use;
// Setup and Teardown serialize among themselves only.
type Engine struct {
	store  *model.Store
	topK   int
	logger *zap.Logger
}

// New returns an engine reading tables from cfg.ModelDir, or the embedded
// tables when it is empty. No module is loaded until Setup.
func New(cfg Config, logger *zap.Logger) *Engine {
	var loader model.Loader = model.NewEmbeddedLoader()
	if cfg.ModelDir != "" {
		loader = model.NewDirLoader(cfg.ModelDir)
	}
	return NewWithLoader(loader, cfg, logger)
}

// NewWithLoader returns an engine reading tables through loader.
func NewWithLoader(loader model.Loader, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = langid.DefaultTopK
	}
	return &Engine{
		store:  model.NewStore(loader, logger),
		topK:   topK,
		logger: logger,
	}
}

// Setup makes modules resident, incrementing their reference counts.
func (e *Engine) Setup(ctx context.Context, modules ...Module) error {
	return e.store.Setup(ctx, modules...)
}

// Teardown releases one reference to each module.
func (e *Engine) Teardown(modules ...Module) {
	e.store.Teardown(modules...)
}

// Ready reports whether m is resident.
func (e *Engine) Ready(m Module) bool {
	return e.store.Ready(m)
}

// Loaded returns the reference count of each resident module by name.
func (e *Engine) Loaded() map[string]int {
	out := make(map[string]int)
	for m, n := range e.store.Loaded() {
		out[m.String()] = n
	}
	return out
}

// Tokenize splits text into tokens. It needs no model tables.
func (e *Engine) Tokenize(text string) []Token {
	return tokenizer.Tokenize(text)
}

func (e *Engine) classifier() (*langid.Classifier, error) {
	table, err := e.store.Languages()
	if err != nil {
		return nil, err
	}
	return langid.New(table, e.topK), nil
}

// ClassifyLanguage scores the languages of text. It needs the parser or
// expansion module.
func (e *Engine) ClassifyLanguage(text string, hint *LanguageHint) ([]LanguageScore, error) {
	c, err := e.classifier()
	if err != nil {
		return nil, fmt.Errorf("classify language: %w", err)
	}
	scores, err := c.Classify(tokenizer.Tokenize(text), hint)
	if err != nil {
		return nil, fmt.Errorf("classify language: %w", err)
	}
	return scores, nil
}

// ParseAddress labels every token of text.
func (e *Engine) ParseAddress(text string, opts ParseOptions) ([]LabeledToken, error) {
	table, err := e.store.Parser()
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}
	c, err := e.classifier()
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	tokens := tokenizer.Tokenize(text)
	hint := &langid.Hint{Country: opts.Country}
	if opts.Language != "" {
		hint.Languages = []string{opts.Language}
	}
	scores, err := c.Classify(tokens, hint)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	labeled, err := parser.New(table).Parse(tokens, langid.Languages(scores), opts.Country)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}
	e.logger.Debug("Parsed address",
		zap.Int("tokens", len(tokens)),
		zap.Strings("languages", langid.Languages(scores)))
	return labeled, nil
}

// ParseAddressComponents parses text and groups the tokens into labeled
// components.
func (e *Engine) ParseAddressComponents(text string, opts ParseOptions) ([]Component, error) {
	labeled, err := e.ParseAddress(text, opts)
	if err != nil {
		return nil, err
	}
	return parser.Components(labeled), nil
}

// GroupComponents groups labeled tokens into components, as
// ParseAddressComponents does.
func GroupComponents(labeled []LabeledToken) []Component {
	return parser.Components(labeled)
}

// ComponentMap indexes components by label name; repeated labels are
// joined with a space.
func ComponentMap(components []Component) map[string]string {
	return parser.ComponentMap(components)
}

// ExpandAddress returns the normalized variants of text. Without
// opts.Languages the languages are classified from the text.
// Transliterated variants are added only while the transliteration module
// is resident.
func (e *Engine) ExpandAddress(text string, opts ExpandOptions) ([]string, error) {
	table, err := e.store.Expansion()
	if err != nil {
		return nil, fmt.Errorf("expand address: %w", err)
	}
	c, err := e.classifier()
	if err != nil {
		return nil, fmt.Errorf("expand address: %w", err)
	}

	tokens := tokenizer.Tokenize(text)
	var hint *langid.Hint
	if len(opts.Languages) > 0 {
		hint = &langid.Hint{Languages: opts.Languages}
	}
	scores, err := c.Classify(tokens, hint)
	if err != nil {
		return nil, fmt.Errorf("expand address: %w", err)
	}

	var translit *normalizer.Transliterator
	if tt, err := e.store.Transliteration(); err == nil {
		translit = tt.Transliterator
	}
	return expand.New(table, translit).Expand(tokens, langid.Languages(scores), opts), nil
}

// Transliterate returns the Latin form of text in the default
// normalization. ok is false when nothing was converted.
func (e *Engine) Transliterate(text string) (string, bool, error) {
	tt, err := e.store.Transliteration()
	if err != nil {
		return "", false, fmt.Errorf("transliterate: %w", err)
	}
	norm := normalizer.String(text, normalizer.DefaultOptions())
	out, ok := tt.Transliterator.Transliterate(norm)
	return out, ok, nil
}

// IsDuplicate compares two addresses by their expansions.
func (e *Engine) IsDuplicate(a, b string, opts ExpandOptions) (DedupeResult, error) {
	ea, err := e.ExpandAddress(a, opts)
	if err != nil {
		return DedupeResult{}, err
	}
	eb, err := e.ExpandAddress(b, opts)
	if err != nil {
		return DedupeResult{}, err
	}
	return dedupe.Compare(ea, eb), nil
}
