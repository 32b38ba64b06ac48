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
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrPermission    ErrorCode = "PERMISSION"

	// Archive errors
	ErrCorruptArchive ErrorCode = "CORRUPT_ARCHIVE"
	ErrInUse          ErrorCode = "IN_USE"

	// Profile errors
	ErrDanglingModReference ErrorCode = "DANGLING_MOD_REFERENCE"
	ErrProfileInvalid       ErrorCode = "PROFILE_INVALID"

	// Overlay and backup errors
	ErrBackupMissing       ErrorCode = "BACKUP_MISSING"
	ErrPartialApplyFailure ErrorCode = "PARTIAL_APPLY_FAILURE"
	ErrUnrecoverableState  ErrorCode = "UNRECOVERABLE_STATE"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// State/manifest errors
	ErrManifestLoad  ErrorCode = "MANIFEST_LOAD"
	ErrManifestWrite ErrorCode = "MANIFEST_WRITE"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// ModlayError represents a structured error with code and details
type ModlayError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ModlayError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ModlayError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ModlayError) Is(target error) bool {
	var targetErr *ModlayError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ModlayError with the given code and message
func New(code ErrorCode, message string) *ModlayError {
	return &ModlayError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ModlayError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ModlayError {
	return &ModlayError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ModlayError
func Wrap(err error, code ErrorCode, message string) *ModlayError {
	if err == nil {
		return nil
	}
	return &ModlayError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ModlayError {
	if err == nil {
		return nil
	}
	return &ModlayError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ModlayError) WithDetail(key string, value interface{}) *ModlayError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var merr *ModlayError
	if errors.As(err, &merr) {
		return merr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ModlayError
func GetErrorCode(err error) ErrorCode {
	var merr *ModlayError
	if errors.As(err, &merr) {
		return merr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ModlayError
func GetErrorDetails(err error) map[string]interface{} {
	var merr *ModlayError
	if errors.As(err, &merr) {
		return merr.Details
	}
	return nil
}
