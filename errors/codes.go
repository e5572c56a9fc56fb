package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport/source errors
const (
	// ErrCodeUnsupportedScheme indicates no handler is registered for a
	// reference's scheme.
	ErrCodeUnsupportedScheme ErrorCode = "UNSUPPORTED_SCHEME"
	// ErrCodeAccessFailure indicates an open, spawn, or network failure
	// while acquiring a byte stream.
	ErrCodeAccessFailure ErrorCode = "ACCESS_FAILURE"
)

// Pattern errors
const (
	// ErrCodeMalformedPattern indicates an invalid brace-expansion pattern.
	ErrCodeMalformedPattern ErrorCode = "MALFORMED_PATTERN"
)

// Archive errors
const (
	// ErrCodeMalformedEntry indicates a corrupt or unusable archive entry.
	// Recorded and skipped during shard reading; fatal only when the
	// archive framing itself cannot be read past.
	ErrCodeMalformedEntry ErrorCode = "MALFORMED_ENTRY"
)

// Decode errors
const (
	// ErrCodeDecodeFailure indicates a decoder rule failed on a field.
	ErrCodeDecodeFailure ErrorCode = "DECODE_FAILURE"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeAccessFailure: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
