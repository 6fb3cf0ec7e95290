// Package vdberrors provides the structured error type used across the
// record store, index, and collection layers. It is a trimmed form of the
// teacher's errors.AmanError: a single Kind plus a message and a cause,
// with the six kinds the collection's error handling policy distinguishes.
package vdberrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on it (e.g. a
// caller mapping to HTTP status codes, outside this module's scope).
type Kind string

const (
	// KindNotFound means an id or collection is absent.
	KindNotFound Kind = "NOT_FOUND"
	// KindDimensionMismatch means an inserted vector's length differs
	// from the collection's established dimension.
	KindDimensionMismatch Kind = "DIMENSION_MISMATCH"
	// KindUnknownIndex means a query named an index type not attached
	// to the collection.
	KindUnknownIndex Kind = "UNKNOWN_INDEX"
	// KindInvalidInput means a malformed payload, non-positive k, or
	// empty text.
	KindInvalidInput Kind = "INVALID_INPUT"
	// KindStorageIO means a filesystem failure.
	KindStorageIO Kind = "STORAGE_IO"
	// KindEmbeddingFailure means the upstream embedding provider failed.
	KindEmbeddingFailure Kind = "EMBEDDING_FAILURE"
)

// Error is the structured error type. It implements error, Unwrap, and Is
// (matched by Kind) so callers can use errors.Is/errors.As idiomatically.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error-chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by Kind, so errors.Is(err, vdberrors.New(vdberrors.KindNotFound, "", nil)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a new Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NotFound builds a KindNotFound error naming the id and record kind.
func NotFound(kind, id string) *Error {
	return New(KindNotFound, fmt.Sprintf("%s %q not found", kind, id), nil)
}

// DimensionMismatch builds a KindDimensionMismatch error.
func DimensionMismatch(expected, got int) *Error {
	return New(KindDimensionMismatch, fmt.Sprintf("expected dimension %d, got %d", expected, got), nil)
}

// UnknownIndex builds a KindUnknownIndex error naming the requested type.
func UnknownIndex(indexType string) *Error {
	return New(KindUnknownIndex, fmt.Sprintf("no index attached for type %q", indexType), nil)
}

// InvalidInput builds a KindInvalidInput error.
func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message, nil)
}

// StorageIO wraps a filesystem failure.
func StorageIO(message string, cause error) *Error {
	return New(KindStorageIO, message, cause)
}

// EmbeddingFailure wraps an upstream embedding provider failure.
func EmbeddingFailure(message string, cause error) *Error {
	return New(KindEmbeddingFailure, message, cause)
}

// Of returns the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
