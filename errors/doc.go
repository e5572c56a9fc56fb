// Package errors provides unified error handling for the shardstream
// library. It implements structured error types with machine-readable
// error codes and retryable detection. Normal stream termination is
// signalled by iterators (ok == false), never by an error value.
package errors
