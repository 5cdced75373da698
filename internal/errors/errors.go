// Package errors provides custom error types for the ingestion service.
// Pipeline and API errors both use AppError so that failures carry a stable
// code, a human-readable message, and the wrapped internal cause.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Ingestion pipeline errors. Each one aborts the current run; the
// orchestrator converts it into a single failure notification.
var (
	ErrSourceUnavailable = &AppError{Code: "SOURCE_UNAVAILABLE", Message: "Exchange endpoint is unreachable", StatusCode: http.StatusBadGateway}
	ErrSourceDataInvalid = &AppError{Code: "SOURCE_DATA_INVALID", Message: "Exchange payload failed validation", StatusCode: http.StatusBadGateway}
	ErrSchemaMismatch    = &AppError{Code: "SCHEMA_MISMATCH", Message: "Exchange report field layout has changed", StatusCode: http.StatusInternalServerError}
	ErrDuplicateRecord   = &AppError{Code: "DUPLICATE_RECORD", Message: "A daily record for this security and trade date already exists", StatusCode: http.StatusConflict}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Security errors.
var (
	ErrSecurityNotFound = &AppError{Code: "SECURITY_NOT_FOUND", Message: "Security not found", StatusCode: http.StatusNotFound}
)
