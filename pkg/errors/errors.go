package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes used across the identity hub
const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"

	// Authentication errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenMalformed     ErrorCode = "TOKEN_MALFORMED"
	ErrCodeTokenBadSignature  ErrorCode = "TOKEN_BAD_SIGNATURE"

	// Tenant and delegation errors
	ErrCodeAccessDenied      ErrorCode = "ACCESS_DENIED"
	ErrCodeInsufficientRank  ErrorCode = "INSUFFICIENT_RANK"
	ErrCodeTargetNotFound    ErrorCode = "TARGET_NOT_FOUND"
	ErrCodeAreaMismatch      ErrorCode = "AREA_MISMATCH"
	ErrCodeUnknownPermission ErrorCode = "UNKNOWN_PERMISSION"

	// Password lifecycle errors
	ErrCodeInvalidResetLink  ErrorCode = "INVALID_RESET_LINK"
	ErrCodeResetTokenInvalid ErrorCode = "RESET_TOKEN_INVALID"
	ErrCodeWeakPassword      ErrorCode = "WEAK_PASSWORD"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the given code and formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error with a code and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsCode reports whether err (or any error in its chain) carries the given code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code of err, or ErrCodeInternal when err is not structured
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// MapErrorCodeToHTTPStatus maps an error code to an HTTP status code
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeWeakPassword, ErrCodeInvalidResetLink, ErrCodeResetTokenInvalid:
		return http.StatusBadRequest
	case ErrCodeInvalidCredentials, ErrCodeTokenExpired, ErrCodeTokenMalformed, ErrCodeTokenBadSignature:
		return http.StatusUnauthorized
	case ErrCodeAccessDenied, ErrCodeInsufficientRank, ErrCodeAreaMismatch:
		return http.StatusForbidden
	case ErrCodeNotFound, ErrCodeTargetNotFound, ErrCodeUnknownPermission:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
