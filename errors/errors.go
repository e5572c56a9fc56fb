package errors

import (
	stderrors "errors"
	"fmt"
)

// StreamError is the unified error type for the library.
type StreamError struct {
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
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *StreamError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *StreamError) WithCause(cause error) *StreamError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *StreamError) WithDetail(key string, value any) *StreamError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new StreamError with automatic retryable detection.
func New(code ErrorCode, message string) *StreamError {
	return &StreamError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// UnsupportedScheme creates a new StreamError for a reference whose scheme
// has no registered handler.
func UnsupportedScheme(scheme string) *StreamError {
	return &StreamError{
		Code: ErrCodeUnsupportedScheme, Message: fmt.Sprintf("no handler registered for scheme %q", scheme),
		Retryable: false,
		Details:   map[string]any{"scheme": scheme},
	}
}

// AccessFailure creates a new StreamError for a failed open, spawn, or
// network access.
func AccessFailure(ref string, cause error) *StreamError {
	return &StreamError{
		Code: ErrCodeAccessFailure, Message: fmt.Sprintf("unable to open %q", ref),
		Retryable: true, Cause: cause,
		Details: map[string]any{"reference": ref},
	}
}

// MalformedPattern creates a new StreamError for an invalid brace pattern.
func MalformedPattern(pattern, reason string) *StreamError {
	return &StreamError{
		Code: ErrCodeMalformedPattern, Message: fmt.Sprintf("malformed pattern %q: %s", pattern, reason),
		Retryable: false,
		Details:   map[string]any{"pattern": pattern},
	}
}

// MalformedEntry creates a new StreamError for a corrupt archive entry.
func MalformedEntry(name, reason string) *StreamError {
	return &StreamError{
		Code: ErrCodeMalformedEntry, Message: fmt.Sprintf("malformed archive entry %q: %s", name, reason),
		Retryable: false,
		Details:   map[string]any{"entry": name},
	}
}

// DecodeFailure creates a new StreamError for a field whose decoder rule
// failed.
func DecodeFailure(field string, cause error) *StreamError {
	return &StreamError{
		Code: ErrCodeDecodeFailure, Message: fmt.Sprintf("decoding field %q failed", field),
		Retryable: false, Cause: cause,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new StreamError for an unexpected internal error.
func Internal(cause error) *StreamError {
	return &StreamError{
		Code: ErrCodeInternal, Message: "an unexpected internal error occurred",
		Retryable: false, Cause: cause,
	}
}

// --- Inspection helpers ---

// CodeOf extracts the error code from err. Returns ErrCodeInternal for
// errors that are not StreamErrors.
func CodeOf(err error) ErrorCode {
	var se *StreamError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether err is a retryable StreamError.
func IsRetryable(err error) bool {
	var se *StreamError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// Is reports whether err carries the given error code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
