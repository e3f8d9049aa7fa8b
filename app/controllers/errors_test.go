package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/postal-engine/app/services"
	"github.com/postal-engine/postal"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty address", services.ErrEmptyAddress, http.StatusBadRequest, "INVALID_REQUEST"},
		{"wrapped options", fmt.Errorf("%w: moon", services.ErrInvalidOptions), http.StatusBadRequest, "INVALID_REQUEST"},
		{"job", services.ErrJobNotFound, http.StatusNotFound, "JOB_NOT_FOUND"},
		{"job running", fmt.Errorf("%w: 42", services.ErrJobNotFinished), http.StatusConflict, "JOB_NOT_FINISHED"},
		{"search", services.ErrSearchDisabled, http.StatusServiceUnavailable, "SEARCH_DISABLED"},
		{"language", fmt.Errorf("parse address: %w", postal.ErrUnknownLanguageCode), http.StatusBadRequest, "UNKNOWN_LANGUAGE"},
		{"not initialized", postal.ErrModuleNotInitialized, http.StatusServiceUnavailable, "MODULE_NOT_INITIALIZED"},
		{"parse unavailable", postal.ErrParseUnavailable, http.StatusServiceUnavailable, "PARSE_UNAVAILABLE"},
		{"model load", &postal.ModelLoadError{Module: postal.ModuleParser, Err: errors.New("eof")}, http.StatusInternalServerError, "MODEL_LOAD_ERROR"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
