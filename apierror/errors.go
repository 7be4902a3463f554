// Package apierror defines blobd's error taxonomy: the small set of kinds
// the HTTP layer maps to status codes, and the typed errors the engine and
// storage layers return. Modeled on the teacher's distribution.Err* family
// (errors.go): sentinel values for simple cases, typed structs carrying
// detail where the caller needs it, all satisfying the standard error
// interface so callers can use errors.As/errors.Is.
package apierror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of HTTP status mapping and
// the JSON error body's "error" field.
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindInvalidToken     Kind = "InvalidToken"
	KindInvalidReference Kind = "InvalidReference"
	KindInternal         Kind = "Internal"
)

// ErrNotFound is returned when a reference has no stored blob.
var ErrNotFound = &KindError{Kind: KindNotFound, Message: "blob not found"}

// ErrInvalidToken is returned when the X-Auth-Token header is absent or
// does not match the configured token.
var ErrInvalidToken = &KindError{Kind: KindInvalidToken, Message: "missing or invalid auth token"}

// ErrCorrupted is logged at error severity and surfaced to clients as
// Internal, per spec §7: verification state is never leaked to an
// unauthenticated caller.
var ErrCorrupted = errors.New("stored content does not match its reference")

// KindError is a taxonomy-classified error with a human-readable message.
type KindError struct {
	Kind    Kind
	Message string
}

func (e *KindError) Error() string {
	return e.Message
}

// InvalidReference builds a KindInvalidReference error describing why the
// supplied text failed to parse.
func InvalidReference(reason string) error {
	return &KindError{Kind: KindInvalidReference, Message: reason}
}

// Internal wraps an unexpected failure (typically an IoError from the
// filesystem) as a KindInternal error, preserving the original for logging
// via errors.Unwrap while presenting an opaque message to clients.
func Internal(cause error) error {
	return &wrappedInternal{cause: cause}
}

type wrappedInternal struct {
	cause error
}

func (e *wrappedInternal) Error() string {
	return fmt.Sprintf("internal error: %v", e.cause)
}

func (e *wrappedInternal) Unwrap() error {
	return e.cause
}

// KindOf classifies err for HTTP mapping. Unrecognized errors are
// KindInternal: filesystem and other unexpected failures are never
// silently swallowed, but neither are their details leaked to the client.
func KindOf(err error) Kind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindInternal
}
