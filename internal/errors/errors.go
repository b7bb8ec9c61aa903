package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeMalformedInput   ErrorType = "malformed_input"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeCorrectionFailed ErrorType = "correction_failed"
	ErrorTypeProvider         ErrorType = "provider"
	ErrorTypeNetwork          ErrorType = "network"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeInternal         ErrorType = "internal"
)

// UnknownErrorMessage is shown for any failure outside the taxonomy.
const UnknownErrorMessage = "An unknown error occurred during analysis."

var (
	// ErrMalformedInput is wrapped by every MalformedInputError
	ErrMalformedInput = errors.New("invalid base64 string format")

	// ErrCorrectionFailed is wrapped by every CorrectionFailedError
	ErrCorrectionFailed = errors.New("failed to correct image")
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface. An AppError without its own
// message reports the cause unchanged.
func (e *AppError) Error() string {
	switch {
	case e.Message == "" && e.Cause != nil:
		return e.Cause.Error()
	case e.Cause != nil && e.Cause.Error() != e.Message:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewMalformedInputError reports an input that is not a base64 data URI.
func NewMalformedInputError(details string) *AppError {
	return &AppError{
		Type:       ErrorTypeMalformedInput,
		Message:    ErrMalformedInput.Error(),
		Details:    details,
		StatusCode: http.StatusBadRequest,
		Cause:      ErrMalformedInput,
	}
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

// NewCorrectionFailedError reports a correction response without an image part.
func NewCorrectionFailedError(details string) *AppError {
	return &AppError{
		Type:       ErrorTypeCorrectionFailed,
		Message:    ErrCorrectionFailed.Error(),
		Details:    details,
		StatusCode: http.StatusBadGateway,
		Cause:      ErrCorrectionFailed,
	}
}

// NewProviderError wraps a provider failure without altering its message.
// statusCode is the provider's HTTP status when known, otherwise 0.
func NewProviderError(cause error, statusCode int) *AppError {
	code := http.StatusBadGateway
	if statusCode == http.StatusTooManyRequests {
		code = http.StatusTooManyRequests
	}
	return &AppError{
		Type:       ErrorTypeProvider,
		StatusCode: code,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
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

// Normalize maps any error onto the taxonomy. Errors that already carry an
// AppError anywhere in their chain are returned as that AppError.
func Normalize(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError("analysis timed out", err)
	case errors.Is(err, context.Canceled):
		return NewTimeoutError("analysis was cancelled", err)
	default:
		return NewInternalError(UnknownErrorMessage, err)
	}
}

// DisplayMessage returns the user-facing text for err.
func DisplayMessage(err error) string {
	appErr := Normalize(err)
	if appErr == nil {
		return ""
	}
	if appErr.Type == ErrorTypeInternal {
		return UnknownErrorMessage
	}
	return appErr.Error()
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
