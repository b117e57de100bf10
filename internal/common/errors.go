package common

import (
	"errors"
	"net/http"
)

// Canonical error codes rendered in API error bodies.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeDataIntegrity = "DATA_INTEGRITY"
	CodeNotFound      = "NOT_FOUND"
	CodeUpstream      = "UPSTREAM"
	CodeRateLimited   = "RATE_LIMITED"
	CodeInternal      = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// InvalidInput wraps a request validation failure.
func InvalidInput(message string, err error) *AppError {
	return NewAppError(CodeInvalidInput, message, http.StatusBadRequest, err)
}

// DataIntegrity wraps a failure caused by broken reference data.
func DataIntegrity(message string, err error) *AppError {
	return NewAppError(CodeDataIntegrity, message, http.StatusUnprocessableEntity, err)
}

// NotFound reports a missing resource.
func NotFound(message string, err error) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound, err)
}

// Upstream reports a failing collaborator (database, cache).
func Upstream(message string, err error) *AppError {
	return NewAppError(CodeUpstream, message, http.StatusBadGateway, err)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// WriteError renders err using the AppError code and status, falling back to 500.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = CodeInternal
		}
		JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
}
