package errors

import (
	"errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// CodeOf extracts the error code from err, or ErrCodeInternal if err is not
// an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether err is marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// --- Common Error Constructors ---

// ClientUnavailable creates an error for a registry client that cannot be built.
func ClientUnavailable(provider string) *AppError {
	return &AppError{
		Code:    ErrCodeClientUnavailable,
		Message: fmt.Sprintf("registry client for provider %q could not be constructed", provider),
		Details: map[string]any{"provider": provider},
	}
}

// RegistrationFailed creates an error for a failed registration attempt.
func RegistrationFailed(service string) *AppError {
	return &AppError{
		Code:      ErrCodeRegistrationFailed,
		Message:   fmt.Sprintf("failed to register service %q", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// DeregistrationFailed creates an error for a failed deregistration attempt.
func DeregistrationFailed(service string) *AppError {
	return &AppError{
		Code:      ErrCodeDeregistrationFailed,
		Message:   fmt.Sprintf("failed to deregister service %q", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// HeartbeatFailed creates an error for a failed heartbeat send.
func HeartbeatFailed(service string) *AppError {
	return &AppError{
		Code:      ErrCodeHeartbeatFailed,
		Message:   fmt.Sprintf("heartbeat for service %q failed", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// SelfHealingFailed creates an error for a failed re-registration.
func SelfHealingFailed(service string) *AppError {
	return &AppError{
		Code:      ErrCodeSelfHealingFailed,
		Message:   fmt.Sprintf("re-registration of service %q failed", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// MissingField creates an error for a required field that is absent.
func MissingField(field string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingField,
		Message: fmt.Sprintf("%s is required", field),
		Details: map[string]any{"field": field},
	}
}

// InvalidInput creates an error for input that fails validation.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
