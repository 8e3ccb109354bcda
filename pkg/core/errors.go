package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is a stable string identifier for a class of failure, grouped
// by the subsystem that raises it (config_error.*, filesystem_error.*,
// command_error.*, transaction_error.*, logger_error.*, system_error.*).
type ErrorCode string

// Filesystem error codes. Fatal to the command or snapshot operation that
// encountered them.
const (
	ErrFailedToTraverseDirectory ErrorCode = "filesystem_error.failed_to_traverse_directory"
	ErrCouldNotCreateDirectory   ErrorCode = "filesystem_error.could_not_create_directory"
)

// Command error codes.
const (
	ErrCopyFailed   ErrorCode = "command_error.copy_failed"
	ErrRenameFailed ErrorCode = "command_error.rename_failed"
	ErrRemoveFailed ErrorCode = "command_error.remove_failed"
)

// Transaction error codes.
const (
	ErrStartFailed      ErrorCode = "transaction_error.start_failed"
	ErrRollbackFailed   ErrorCode = "transaction_error.rollback_failed"
	ErrUnrecoveredEntry ErrorCode = "transaction_error.unrecovered_entry"
)

// System error codes.
const (
	ErrUnhandledException ErrorCode = "system_error.unhandled_exception"
	ErrUnknownFatal        ErrorCode = "system_error.unknown_fatal"
)

// CodedError pairs a stable error code with a human-readable message and an
// optional underlying cause. It renders as
// "dropclone.<code>: <message>: <cause>".
type CodedError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// newCodedError constructs a CodedError, wrapping cause (if non-nil) with
// github.com/pkg/errors so that callers can still recover the root cause via
// errors.Cause.
func newCodedError(code ErrorCode, cause error, format string, args ...interface{}) *CodedError {
	message := fmt.Sprintf(format, args...)
	if cause != nil {
		cause = errors.Wrap(cause, message)
	}
	return &CodedError{Code: code, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("dropclone.%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("dropclone.%s: %s", e.Code, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *CodedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ErrorCause returns the root cause of the error, unwrapping through any
// github.com/pkg/errors wrapping performed by newCodedError.
func (e *CodedError) ErrorCause() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return errors.Cause(e.Cause)
}
