package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeValidationError = "VALIDATION_ERROR"
	CodeObjectNotFound  = "OBJECT_NOT_FOUND"
	CodeObjectExists    = "OBJECT_EXISTS"
	CodePlayerNotFound  = "PLAYER_NOT_FOUND"
	CodeStorageBusy     = "STORAGE_BUSY"
	CodeInternalError   = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrObjectNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeObjectNotFound, "Object not found"}}
	case errors.Is(err, model.ErrObjectExists):
		return &httpError{http.StatusConflict, APIError{CodeObjectExists, "An object with this id already exists"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrValidation):
		// The wrapped message names the failing field
		return &httpError{http.StatusBadRequest, APIError{CodeValidationError, err.Error()}}
	case errors.Is(err, model.ErrStorageBusy):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStorageBusy, "Storage is busy, retry shortly"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
