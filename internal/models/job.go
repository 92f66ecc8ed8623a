package models

import "time"

// ProcessingJob is one asynchronous pipeline run for a video. At most one
// job per video may be active (queued or running) at a time; triggering a
// video with an active job returns that job instead of creating another.
type ProcessingJob struct {
	ID           string     `json:"id"`
	VideoID      string     `json:"video_id"`
	Status       string     `json:"status"`
	AttemptCount int        `json:"attempt_count"`
	LastError    string     `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Job statuses.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// IsActiveJobStatus reports whether a job still holds the per-video slot.
func IsActiveJobStatus(status string) bool {
	return status == JobStatusQueued || status == JobStatusRunning
}
