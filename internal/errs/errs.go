// Package errs defines the typed errors shared by the wagetrack engines.
// Every failure a caller is expected to branch on carries one of the codes
// below; callers test with the IsX predicates rather than string matching.
package errs

import (
	"errors"
	"fmt"
)

// Error codes as constants
const (
	CodeValidation        = "VALIDATION"
	CodeRemoteAuth        = "REMOTE_AUTH"
	CodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	CodeRemoteNotFound    = "REMOTE_NOT_FOUND"
	CodeCorruptStore      = "CORRUPT_STORE"
	CodeNoActiveTimer     = "NO_ACTIVE_TIMER"
)

// Error is an application error with a taxonomy code and optional cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause for use with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates an error for malformed caller input. No state has
// changed and retrying the same input is pointless.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// RemoteAuth creates an error for a missing, invalid or expired credential.
// Not retryable until the credential is replaced.
func RemoteAuth(message string, err error) *Error {
	return &Error{Code: CodeRemoteAuth, Message: message, Err: err}
}

// RemoteUnavailable creates an error for a network failure or timeout.
// The same logical operation may safely be re-issued.
func RemoteUnavailable(op string, err error) *Error {
	return &Error{Code: CodeRemoteUnavailable, Message: op, Err: err}
}

// RemoteNotFound creates an error for a stale remote reference; the caller
// should discard the cached reference and re-navigate.
func RemoteNotFound(resource, id string) *Error {
	return &Error{
		Code:    CodeRemoteNotFound,
		Message: fmt.Sprintf("%s %q not found on remote", resource, id),
	}
}

// CorruptStore creates an error for a persisted record that cannot be
// parsed. Fatal for that user's session; the record is quarantined, never
// overwritten.
func CorruptStore(path string, err error) *Error {
	return &Error{
		Code:    CodeCorruptStore,
		Message: fmt.Sprintf("unreadable record %s", path),
		Err:     err,
	}
}

// NoActiveTimer creates the error returned by a stop without a prior start.
func NoActiveTimer() *Error {
	return &Error{Code: CodeNoActiveTimer, Message: "no active timer"}
}

func is(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool { return is(err, CodeValidation) }

// IsRemoteAuth checks if the error is an authentication error.
func IsRemoteAuth(err error) bool { return is(err, CodeRemoteAuth) }

// IsRemoteUnavailable checks if the error is a transient remote failure.
func IsRemoteUnavailable(err error) bool { return is(err, CodeRemoteUnavailable) }

// IsRemoteNotFound checks if the error is a stale remote reference.
func IsRemoteNotFound(err error) bool { return is(err, CodeRemoteNotFound) }

// IsCorruptStore checks if the error is an unreadable persisted record.
func IsCorruptStore(err error) bool { return is(err, CodeCorruptStore) }

// IsNoActiveTimer checks if the error is a stop without a running timer.
func IsNoActiveTimer(err error) bool { return is(err, CodeNoActiveTimer) }

// Retryable reports whether re-issuing the same operation can succeed.
func Retryable(err error) bool { return IsRemoteUnavailable(err) }
