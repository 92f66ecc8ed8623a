package models

import "strings"

// TranscriptMethod records which acquisition strategy produced a transcript.
type TranscriptMethod string

const (
	MethodCaptionAPI   TranscriptMethod = "caption-api"    // YouTube caption tracks
	MethodPlatformAPI  TranscriptMethod = "platform-api"   // Loom transcript endpoint
	MethodAutoCaption  TranscriptMethod = "auto-caption"   // Vimeo auto-generated text tracks
	MethodSpeechToText TranscriptMethod = "speech-to-text" // paid STT fallback
)

// Segment is one native caption/transcript entry with its original timing.
// Times are seconds; sub-second precision is preserved where the source has it.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the segment's end time in seconds.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// TranscriptResult is the normalized output of one acquisition attempt.
// It is transient: consumed immediately by segmentation, never stored as-is.
type TranscriptResult struct {
	SourceType       SourceType       `json:"source_type"`
	Method           TranscriptMethod `json:"method"`
	Text             string           `json:"text"`
	Segments         []Segment        `json:"segments,omitempty"`
	CostUSD          float64          `json:"cost_usd"`
	ProcessingTimeMS int64            `json:"processing_time_ms"`
}

// FullText returns the transcript text, joining segments when the acquirer
// did not provide a pre-joined body.
func (r *TranscriptResult) FullText() string {
	if r.Text != "" {
		return r.Text
	}
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Duration returns the end time of the last segment, or 0 without segments.
func (r *TranscriptResult) Duration() float64 {
	if len(r.Segments) == 0 {
		return 0
	}
	last := r.Segments[len(r.Segments)-1]
	return last.End()
}
