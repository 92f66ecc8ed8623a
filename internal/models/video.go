package models

import "time"

// Video is a registered spoken-word video and the unit of pipeline work.
// Rows are mutated only by the worker; collaborators read status and results.
type Video struct {
	ID              string     `json:"id"`
	CreatorID       string     `json:"creator_id"`
	Title           string     `json:"title,omitempty"`
	SourceType      SourceType `json:"source_type"`
	SourceURL       string     `json:"source_url,omitempty"`
	FilePath        string     `json:"file_path,omitempty"`
	Status          string     `json:"status"`
	Transcript      string     `json:"transcript,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`
	ErrorMessage    string     `json:"error_message,omitempty"`

	// Acquisition metadata, set when transcription commits.
	TranscriptMethod TranscriptMethod `json:"transcript_method,omitempty"`
	TranscriptCost   float64          `json:"transcript_cost_usd"`
	ProcessingTimeMS int64            `json:"processing_time_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceType identifies where a video's media lives. Closed set; the
// classifier and router switch exhaustively over it.
type SourceType string

const (
	SourceYouTube SourceType = "youtube" // captioned platform, caption API
	SourceLoom    SourceType = "loom"    // screen-recording platform, transcript API
	SourceVimeo   SourceType = "vimeo"   // hosted video, auto-generated text tracks
	SourceUpload  SourceType = "upload"  // file already on local storage
)

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceYouTube, SourceLoom, SourceVimeo, SourceUpload:
		return true
	}
	return false
}

// Video statuses. Transitions are driven by the worker state machine and
// persisted with compare-and-set before the next stage starts.
const (
	VideoStatusPending      = "pending"
	VideoStatusUploading    = "uploading"
	VideoStatusTranscribing = "transcribing"
	VideoStatusProcessing   = "processing"
	VideoStatusEmbedding    = "embedding"
	VideoStatusCompleted    = "completed"
	VideoStatusFailed       = "failed"
)

// IsTerminalStatus reports whether a video status can no longer change
// without a new processing job.
func IsTerminalStatus(status string) bool {
	return status == VideoStatusCompleted || status == VideoStatusFailed
}
