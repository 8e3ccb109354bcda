package configuration

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is the configuration package's slice of the shared, grouped
// error taxonomy: a stable string identifier for a class of configuration
// failure.
type ErrorCode string

const (
	ErrFileNotFound          ErrorCode = "config_error.file_not_found"
	ErrParseError            ErrorCode = "config_error.parse_error"
	ErrPathNotAbsolute       ErrorCode = "config_error.path_not_absolute"
	ErrInvalidCloneMode      ErrorCode = "config_error.invalid_clone_mode"
	ErrConflictingFields     ErrorCode = "config_error.conflicting_fields"
	ErrOverlappingPath       ErrorCode = "config_error.overlapping_path_conflict"
	ErrMissingRequiredField  ErrorCode = "config_error.missing_required_field"
	ErrNoEntriesDefined      ErrorCode = "config_error.no_entries_defined"
)

// ConfigError pairs a stable error code with a human-readable message and
// an optional underlying cause, mirroring pkg/core.CodedError.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func newConfigError(code ErrorCode, cause error, format string, args ...interface{}) *ConfigError {
	message := fmt.Sprintf(format, args...)
	if cause != nil {
		cause = errors.Wrap(cause, message)
	}
	return &ConfigError{Code: code, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("dropclone.%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("dropclone.%s: %s", e.Code, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
