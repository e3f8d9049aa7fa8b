package postal

import (
	"errors"

	"github.com/postal-engine/internal/langid"
	"github.com/postal-engine/internal/model"
	"github.com/postal-engine/internal/parser"
)

// Errors returned by the engine. Use errors.Is and errors.As, or KindOf.
var (
	ErrModuleNotInitialized = model.ErrModuleNotInitialized
	ErrUnknownLanguageCode  = langid.ErrUnknownLanguageCode
	ErrParseUnavailable     = parser.ErrParseUnavailable
)

// ModelLoadError reports a module whose tables could not be loaded.
type ModelLoadError = model.ModelLoadError

// ErrorKind is a coarse classification of engine errors.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindModelLoad
	KindUnknownLanguage
	KindNotInitialized
	KindParseUnavailable
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindModelLoad:
		return "model_load"
	case KindUnknownLanguage:
		return "unknown_language"
	case KindNotInitialized:
		return "not_initialized"
	case KindParseUnavailable:
		return "parse_unavailable"
	}
	return "other"
}

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var loadErr *ModelLoadError
	switch {
	case errors.As(err, &loadErr):
		return KindModelLoad
	case errors.Is(err, ErrUnknownLanguageCode):
		return KindUnknownLanguage
	case errors.Is(err, ErrModuleNotInitialized):
		return KindNotInitialized
	case errors.Is(err, ErrParseUnavailable):
		return KindParseUnavailable
	}
	return KindOther
}
