package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Oracle and network error codes. These classes are always recoverable:
// the owning phase degrades to its documented fallback instead of failing
// the run.
const (
	ErrOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"
	ErrOracleTimeout     ErrorCode = "ORACLE_TIMEOUT"
	ErrOracleMalformed   ErrorCode = "ORACLE_MALFORMED"
	ErrSearchFailed      ErrorCode = "SEARCH_FAILED"
	ErrFetchFailed       ErrorCode = "FETCH_FAILED"
	ErrFetchTimeout      ErrorCode = "FETCH_TIMEOUT"
)

// Configuration error codes. These are fatal at graph construction time and
// must never surface during a run.
const (
	ErrNodeNotRegistered  ErrorCode = "NODE_NOT_REGISTERED"
	ErrUnmappedRouteLabel ErrorCode = "UNMAPPED_ROUTE_LABEL"
	ErrNoEntryNode        ErrorCode = "NO_ENTRY_NODE"
	ErrBadInterruptTarget ErrorCode = "BAD_INTERRUPT_TARGET"
)

// Storage error codes. Fatal for the owning session only.
const (
	ErrCheckpointSave     ErrorCode = "CHECKPOINT_SAVE"
	ErrCheckpointLoad     ErrorCode = "CHECKPOINT_LOAD"
	ErrCheckpointNotFound ErrorCode = "CHECKPOINT_NOT_FOUND"
)

// Error represents a structured error with code, message, and cause.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a structured error wrapping a cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Retryable: isRetryableCode(code)}
}

// CodeOf extracts the ErrorCode from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func isRetryableCode(code ErrorCode) bool {
	switch code {
	case ErrOracleUnavailable, ErrOracleTimeout, ErrSearchFailed, ErrFetchFailed, ErrFetchTimeout:
		return true
	}
	return false
}
