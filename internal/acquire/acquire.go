package acquire

import (
	"context"

	"clipindex/internal/models"
)

// Reference identifies the media an acquirer should work from. URL is set
// for remote sources, FilePath for media already on local storage. Duration
// may be zero when unknown; the paid acquirer uses it for cost estimation.
type Reference struct {
	VideoID         string
	SourceType      models.SourceType
	URL             string
	FilePath        string
	DurationSeconds float64
}

// Acquirer is one transcript acquisition strategy.
//
// Acquire returns a normalized TranscriptResult, or ErrNoTranscript when the
// source simply has nothing to offer (fallback-eligible, not a failure), or
// a classified *Error for real failures. Absence and failure are distinct
// outcomes; acquirers never convert one into the other.
type Acquirer interface {
	Acquire(ctx context.Context, ref Reference) (*models.TranscriptResult, error)
	Method() models.TranscriptMethod
}

// AudioFetcher downloads a remote source's audio to local storage so the
// paid speech-to-text acquirer can consume it. Implemented per platform;
// only invoked when a free acquirer chain falls through to paid.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, ref Reference) (path string, err error)
}
