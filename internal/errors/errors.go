package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypeDecode              ErrorType = "decode"
	ErrorTypeOCREngine           ErrorType = "ocr_engine"
	ErrorTypeNoText              ErrorType = "no_text"
	ErrorTypeAnalyzerUnavailable ErrorType = "analyzer_unavailable"
	ErrorTypePreview             ErrorType = "preview"
	ErrorTypeConfiguration       ErrorType = "configuration"
	ErrorTypeInternal            ErrorType = "internal"
)

// ErrMissingAPIKey is returned when the hosted model credential is not configured.
var ErrMissingAPIKey = NewConfigurationError("ANTHROPIC_API_KEY is required", nil)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// CauseMessage returns the message of the underlying error, or the
// AppError message when there is no cause.
func (e *AppError) CauseMessage() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewDecodeError creates an error for payloads that cannot be decoded as an image
func NewDecodeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDecode,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewOCREngineError creates an error for internal OCR engine faults
func NewOCREngineError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeOCREngine,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNoTextError marks an image in which OCR found no text
func NewNoTextError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNoText,
		Message:    message,
		StatusCode: http.StatusOK,
	}
}

// NewAnalyzerUnavailableError creates an error for hosted model faults
func NewAnalyzerUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAnalyzerUnavailable,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewPreviewError creates a preview encoding error
func NewPreviewError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePreview,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
