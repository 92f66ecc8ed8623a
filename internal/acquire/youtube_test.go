package acquire

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"clipindex/internal/youtube"
)

func TestClassifyCaptionErr(t *testing.T) {
	cases := []struct {
		code int
		want ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindAccessDenied},
		{http.StatusForbidden, KindAccessDenied},
		{http.StatusInternalServerError, KindNetworkError},
		{http.StatusBadGateway, KindNetworkError},
		{http.StatusBadRequest, KindInternal},
	}
	for _, tc := range cases {
		err := classifyCaptionErr(&youtube.StatusError{Code: tc.code})
		if got := KindOf(err); got != tc.want {
			t.Errorf("status %d classified %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestClassifyCaptionErr_DeadTrackFallsThrough(t *testing.T) {
	// A listed track whose URL is gone is the same as a video without
	// captions: try the next strategy, do not retry and do not fail.
	for _, code := range []int{http.StatusNotFound, http.StatusGone} {
		err := classifyCaptionErr(&youtube.StatusError{Code: code})
		if !errors.Is(err, ErrNoTranscript) {
			t.Errorf("status %d = %v, want ErrNoTranscript", code, err)
		}
	}
}

func TestClassifyCaptionErr_Transport(t *testing.T) {
	err := classifyCaptionErr(fmt.Errorf("dial tcp: connection refused"))
	if KindOf(err) != KindNetworkError {
		t.Errorf("transport error classified %q, want network_error", KindOf(err))
	}
}
