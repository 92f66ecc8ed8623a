package acquire

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrNoTranscript is the fallback sentinel: the source has no transcript to
// offer. It is not a failure. The router responds by trying the next
// strategy in the chain; acquirers must never wrap real errors in it.
var ErrNoTranscript = errors.New("no transcript available")

// ErrorKind classifies acquisition and pipeline failures. The router and the
// worker dispatch on the kind, never on provider-specific error text.
type ErrorKind string

const (
	KindInvalidReference   ErrorKind = "invalid_reference"
	KindResourceNotFound   ErrorKind = "resource_not_found"
	KindAccessDenied       ErrorKind = "access_denied"
	KindRateLimited        ErrorKind = "rate_limited"
	KindNetworkError       ErrorKind = "network_error"
	KindAuthMissing        ErrorKind = "auth_missing"
	KindPayloadTooLarge    ErrorKind = "payload_too_large"
	KindUnrecognizedSource ErrorKind = "unrecognized_source"
	KindDimensionMismatch  ErrorKind = "dimension_mismatch"
	KindInternal           ErrorKind = "internal"
)

// Retryable reports whether the kind is transient. Transient failures get
// bounded retries with backoff; everything else fails the job immediately.
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindNetworkError
}

// Error is a classified pipeline error. Message carries provider detail for
// logs; collaborators only ever see the kind plus a generic message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError classifies an underlying error.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from err. Context deadline and network
// errors count as network failures (retryable); anything unclassified is
// internal (fatal).
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetworkError
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return KindNetworkError
	}
	return KindInternal
}

// Fatal reports whether err must fail the job without retry.
func Fatal(err error) bool {
	return !KindOf(err).Retryable()
}
