package model

import (
	"errors"
	"fmt"
)

// ErrModuleNotInitialized is returned by accessors of a module whose
// reference count is zero.
var ErrModuleNotInitialized = errors.New("module not initialized")

// ModelLoadError reports a module whose tables could not be read or are
// malformed.
type ModelLoadError struct {
	Module Module
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load %s model: %v", e.Module, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}
