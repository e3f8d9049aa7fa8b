// Package model owns the pretrained tables of the engine: their artifact
// format, the loaders that read them and the reference counted store that
// keeps them resident.
package model

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Store keeps module tables resident while their reference count is
// positive. Setup and Teardown are serialized; readers take the read side
// of an RWMutex only.
type Store struct {
	loader Loader
	logger *zap.Logger

	loadMu sync.Mutex

	mu     sync.RWMutex
	refs   map[Module]int
	tables map[Module]Table
}

// NewStore creates an empty store reading tables through loader.
func NewStore(loader Loader, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		loader: loader,
		logger: logger,
		refs:   make(map[Module]int),
		tables: make(map[Module]Table),
	}
}

// Setup increments the reference count of each module and its
// dependencies, loading the tables of modules that are not resident.
// Either every requested module becomes resident or none of the counts
// change.
func (s *Store) Setup(ctx context.Context, modules ...Module) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	var increments []Module
	for _, m := range expandModules(modules) {
		if _, ok := ArtifactFile(m); !ok {
			return &ModelLoadError{Module: m, Err: fmt.Errorf("unknown module")}
		}
		increments = append(increments, m.dependencies()...)
		increments = append(increments, m)
	}

	s.mu.RLock()
	var missing []Module
	pending := make(map[Module]bool)
	for _, m := range increments {
		if s.refs[m] == 0 && !pending[m] {
			pending[m] = true
			missing = append(missing, m)
		}
	}
	s.mu.RUnlock()

	loaded := make(map[Module]Table, len(missing))
	for _, m := range missing {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("setup %s: %w", m, err)
		}
		t, err := s.loader.Load(m)
		if err != nil {
			s.logger.Error("Failed to load model", zap.String("module", m.String()), zap.Error(err))
			return &ModelLoadError{Module: m, Err: err}
		}
		if t.Module() != m {
			return &ModelLoadError{Module: m, Err: fmt.Errorf("loader returned %s tables", t.Module())}
		}
		loaded[m] = t
	}

	s.mu.Lock()
	for m, t := range loaded {
		s.tables[m] = t
	}
	for _, m := range increments {
		s.refs[m]++
	}
	s.mu.Unlock()

	for m := range loaded {
		s.logger.Info("Model loaded", zap.String("module", m.String()))
	}
	return nil
}

// Teardown decrements the reference count of each module and its
// dependencies, releasing tables that reach zero. Tearing down a module
// that is not loaded is a no-op.
func (s *Store) Teardown(modules ...Module) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range expandModules(modules) {
		if s.refs[m] == 0 {
			s.logger.Warn("Teardown of module that is not loaded", zap.String("module", m.String()))
			continue
		}
		if s.refs[m] <= s.dependents(m) {
			s.logger.Warn("Teardown of module still needed by resident modules", zap.String("module", m.String()))
			continue
		}
		s.release(m)
		for _, dep := range m.dependencies() {
			if s.refs[dep] > 0 {
				s.release(dep)
			}
		}
	}
}

// dependents counts the references on m held by resident modules that
// depend on it. Must be called with mu held.
func (s *Store) dependents(m Module) int {
	n := 0
	for d, refs := range s.refs {
		for _, dep := range d.dependencies() {
			if dep == m {
				n += refs
			}
		}
	}
	return n
}

// release must be called with mu held.
func (s *Store) release(m Module) {
	s.refs[m]--
	if s.refs[m] == 0 {
		delete(s.refs, m)
		delete(s.tables, m)
		s.logger.Info("Model released", zap.String("module", m.String()))
	}
}

// Loaded returns a snapshot of the reference counts of resident modules.
func (s *Store) Loaded() map[Module]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Module]int, len(s.refs))
	for m, n := range s.refs {
		out[m] = n
	}
	return out
}

// Ready reports whether m is resident.
func (s *Store) Ready(m Module) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refs[m] > 0
}

func (s *Store) table(m Module) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refs[m] == 0 {
		return nil, fmt.Errorf("%s: %w", m, ErrModuleNotInitialized)
	}
	return s.tables[m], nil
}

// Languages returns the classifier tables.
func (s *Store) Languages() (*LanguageTable, error) {
	t, err := s.table(ModuleLanguages)
	if err != nil {
		return nil, err
	}
	return t.(*LanguageTable), nil
}

// Expansion returns the expansion tables.
func (s *Store) Expansion() (*ExpansionTable, error) {
	t, err := s.table(ModuleExpansion)
	if err != nil {
		return nil, err
	}
	return t.(*ExpansionTable), nil
}

// Parser returns the parser tables.
func (s *Store) Parser() (*ParserTable, error) {
	t, err := s.table(ModuleParser)
	if err != nil {
		return nil, err
	}
	return t.(*ParserTable), nil
}

// Transliteration returns the transliteration tables.
func (s *Store) Transliteration() (*TransliterationTable, error) {
	t, err := s.table(ModuleTransliteration)
	if err != nil {
		return nil, err
	}
	return t.(*TransliterationTable), nil
}
