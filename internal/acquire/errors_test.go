package acquire

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindRetryable(t *testing.T) {
	retryable := []ErrorKind{KindRateLimited, KindNetworkError}
	fatal := []ErrorKind{
		KindInvalidReference, KindResourceNotFound, KindAccessDenied,
		KindAuthMissing, KindPayloadTooLarge, KindUnrecognizedSource,
		KindDimensionMismatch, KindInternal,
	}

	for _, k := range retryable {
		if !k.Retryable() {
			t.Errorf("%s should be retryable", k)
		}
	}
	for _, k := range fatal {
		if k.Retryable() {
			t.Errorf("%s should be fatal", k)
		}
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewError(KindAccessDenied, "nope")); got != KindAccessDenied {
		t.Errorf("KindOf classified error = %q", got)
	}

	// Classification survives wrapping.
	wrapped := fmt.Errorf("outer: %w", NewError(KindRateLimited, "slow down"))
	if got := KindOf(wrapped); got != KindRateLimited {
		t.Errorf("KindOf wrapped = %q, want rate_limited", got)
	}

	if got := KindOf(context.DeadlineExceeded); got != KindNetworkError {
		t.Errorf("KindOf deadline = %q, want network_error", got)
	}

	// Unclassified errors are fatal by default.
	if got := KindOf(errors.New("mystery")); got != KindInternal {
		t.Errorf("KindOf unknown = %q, want internal", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(KindNetworkError, "fetch failed", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	var ae *Error
	if !errors.As(error(err), &ae) || ae.Kind != KindNetworkError {
		t.Errorf("errors.As failed on %v", err)
	}
	if Fatal(err) {
		t.Error("network error should not be fatal")
	}
}
