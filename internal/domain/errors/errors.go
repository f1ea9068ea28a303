// Package errors defines the application-level error taxonomy the HTTP
// delivery maps onto status codes. Per-entity faults inside the pipeline are
// isolated and logged, never surfaced through this package.
package errors

import (
	"net/http"

	"wander/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined application errors.
var (
	// ErrValidation covers malformed request payloads.
	ErrValidation = NewBaseError(http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", "")

	// ErrUnknownTileKind is returned for a tile query with an unsupported kind.
	ErrUnknownTileKind = NewBaseError(http.StatusBadRequest, "UNKNOWN_TILE_KIND", "Unknown tile kind", "")

	// ErrCatalogUnavailable is returned when the city catalog cannot be read.
	// The pipeline keeps serving its last-known-good set.
	ErrCatalogUnavailable = NewBaseError(http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "City catalog unavailable", "")
)

// NewDatabaseQueryError wraps a database failure as an internal error.
func NewDatabaseQueryError(err error, message string) error {
	base := NewBaseError(http.StatusInternalServerError, "DATABASE_ERROR", message, err.Error())

	return errors.WithStack(base)
}
