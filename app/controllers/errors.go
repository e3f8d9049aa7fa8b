package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postal-engine/app/responses"
	"github.com/postal-engine/app/services"
	"github.com/postal-engine/postal"
)

// RequestIDHeader carries the request id set by the router middleware.
const RequestIDHeader = "X-Request-ID"

func abortWithError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: c.GetString("request_id"),
	})
}

func invalidRequest(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request: "+err.Error(), nil)
}

// statusFor maps service and engine errors to an HTTP status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyAddress), errors.Is(err, services.ErrInvalidOptions):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, services.ErrJobNotFound):
		return http.StatusNotFound, "JOB_NOT_FOUND"
	case errors.Is(err, services.ErrJobNotFinished):
		return http.StatusConflict, "JOB_NOT_FINISHED"
	case errors.Is(err, services.ErrSearchDisabled):
		return http.StatusServiceUnavailable, "SEARCH_DISABLED"
	}
	switch postal.KindOf(err) {
	case postal.KindUnknownLanguage:
		return http.StatusBadRequest, "UNKNOWN_LANGUAGE"
	case postal.KindNotInitialized:
		return http.StatusServiceUnavailable, "MODULE_NOT_INITIALIZED"
	case postal.KindParseUnavailable:
		return http.StatusServiceUnavailable, "PARSE_UNAVAILABLE"
	case postal.KindModelLoad:
		return http.StatusInternalServerError, "MODEL_LOAD_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	abortWithError(c, status, code, err.Error(), nil)
}

func success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
