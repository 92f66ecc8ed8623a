package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clipindex/internal/models"
)

// VideoRepository is the data access layer for videos.
type VideoRepository struct {
	db *DB
}

// NewVideoRepository creates a VideoRepository.
func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `id, creator_id, title, source_type, source_url, file_path,
	status, COALESCE(transcript, ''), duration_seconds, error_message,
	transcript_method, transcript_cost_usd, processing_time_ms, created_at, updated_at`

// Create inserts a new video in pending status.
func (r *VideoRepository) Create(ctx context.Context, v *models.Video) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Status == "" {
		v.Status = models.VideoStatusPending
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (id, creator_id, title, source_type, source_url, file_path,
			status, duration_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.CreatorID, v.Title, string(v.SourceType), v.SourceURL, v.FilePath,
		v.Status, v.DurationSeconds, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// GetByID fetches a video, nil when absent.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

func scanVideo(row *sql.Row) (*models.Video, error) {
	var v models.Video
	var sourceType, method string
	err := row.Scan(&v.ID, &v.CreatorID, &v.Title, &sourceType, &v.SourceURL,
		&v.FilePath, &v.Status, &v.Transcript, &v.DurationSeconds, &v.ErrorMessage,
		&method, &v.TranscriptCost, &v.ProcessingTimeMS, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.SourceType = models.SourceType(sourceType)
	v.TranscriptMethod = models.TranscriptMethod(method)
	return &v, nil
}

// UpdateStatusCAS advances status only when the row still holds the status
// the caller observed. Returns false without error when the row moved on;
// a stale task must not clobber a newer one.
func (r *VideoRepository) UpdateStatusCAS(ctx context.Context, id, from, to string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE videos SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("cas status update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkFailed moves the video to failed from any non-terminal state and
// records the collaborator-facing error message.
func (r *VideoRepository) MarkFailed(ctx context.Context, id, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE videos SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND status NOT IN (?, ?)`,
		models.VideoStatusFailed, message, time.Now().UTC(), id,
		models.VideoStatusCompleted, models.VideoStatusFailed)
	if err != nil {
		return fmt.Errorf("mark video failed: %w", err)
	}
	return nil
}

// SetTranscript commits the acquisition result: transcript text, method,
// cost and timing, plus the duration when the acquirer measured one.
func (r *VideoRepository) SetTranscript(ctx context.Context, id string, result *models.TranscriptResult, durationSeconds float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE videos SET transcript = ?, transcript_method = ?,
			transcript_cost_usd = ?, processing_time_ms = ?,
			duration_seconds = ?, error_message = '', updated_at = ?
		WHERE id = ?`,
		result.FullText(), string(result.Method), result.CostUSD,
		result.ProcessingTimeMS, durationSeconds, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set transcript: %w", err)
	}
	return nil
}

// SetFilePath records where fetched audio landed so reprocessing can skip
// the download.
func (r *VideoRepository) SetFilePath(ctx context.Context, id, path string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE videos SET file_path = ?, updated_at = ? WHERE id = ?`,
		path, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set file path: %w", err)
	}
	return nil
}

// ListByCreator returns a creator's videos, newest first.
func (r *VideoRepository) ListByCreator(ctx context.Context, creatorID string, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+videoColumns+` FROM videos
		WHERE creator_id = ? ORDER BY created_at DESC LIMIT ?`, creatorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		var sourceType, method string
		if err := rows.Scan(&v.ID, &v.CreatorID, &v.Title, &sourceType, &v.SourceURL,
			&v.FilePath, &v.Status, &v.Transcript, &v.DurationSeconds, &v.ErrorMessage,
			&method, &v.TranscriptCost, &v.ProcessingTimeMS, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		v.SourceType = models.SourceType(sourceType)
		v.TranscriptMethod = models.TranscriptMethod(method)
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
