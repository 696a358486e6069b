package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad ErrorCode = "CONFIG_LOAD"

	// Manifest errors
	ErrManifestInvalid ErrorCode = "MANIFEST_INVALID"

	// Source errors
	ErrSourceNotFound    ErrorCode = "SOURCE_NOT_FOUND"
	ErrUnsupportedSource ErrorCode = "UNSUPPORTED_SOURCE"
	ErrCloneFailed       ErrorCode = "CLONE_FAILED"
	ErrCheckoutFailed    ErrorCode = "CHECKOUT_FAILED"
	ErrExtractionFailed  ErrorCode = "EXTRACTION_FAILED"
	ErrDependencyCycle   ErrorCode = "DEPENDENCY_CYCLE"
	ErrSymlinkFailed     ErrorCode = "SYMLINK_FAILED"

	// Target errors
	ErrUnsafeTarget          ErrorCode = "UNSAFE_TARGET"
	ErrDirectoryCreateFailed ErrorCode = "DIR_CREATE"
	ErrDirectoryNotEmpty     ErrorCode = "DIR_NOT_EMPTY"

	// Execution errors
	ErrScriptFailed  ErrorCode = "SCRIPT_FAILED"
	ErrOverlayFailed ErrorCode = "OVERLAY_FAILED"

	// Install record errors
	ErrRecordLoad  ErrorCode = "RECORD_LOAD"
	ErrRecordWrite ErrorCode = "RECORD_WRITE"
)

// MumError represents a structured error with code and details
type MumError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *MumError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *MumError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *MumError) Is(target error) bool {
	var targetErr *MumError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new MumError with the given code and message
func New(code ErrorCode, message string) *MumError {
	return &MumError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new MumError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *MumError {
	return &MumError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a MumError
func Wrap(err error, code ErrorCode, message string) *MumError {
	if err == nil {
		return nil
	}
	return &MumError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *MumError {
	if err == nil {
		return nil
	}
	return &MumError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *MumError) WithDetail(key string, value interface{}) *MumError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code.
// The outermost MumError in the chain decides.
func IsErrorCode(err error, code ErrorCode) bool {
	var mumErr *MumError
	if errors.As(err, &mumErr) {
		return mumErr.Code == code
	}
	return false
}

// HasErrorCode reports whether any MumError in the chain carries code.
func HasErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var mumErr *MumError
		if !errors.As(err, &mumErr) {
			return false
		}
		if mumErr.Code == code {
			return true
		}
		err = mumErr.Wrapped
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a MumError
func GetErrorCode(err error) ErrorCode {
	var mumErr *MumError
	if errors.As(err, &mumErr) {
		return mumErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a MumError
func GetErrorDetails(err error) map[string]interface{} {
	var mumErr *MumError
	if errors.As(err, &mumErr) {
		return mumErr.Details
	}
	return nil
}

// As is errors.As, re-exported so callers need a single errors import
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is errors.Is, re-exported so callers need a single errors import
func Is(err, target error) bool {
	return errors.Is(err, target)
}
