package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipindex/internal/models"
)

// JobRepository is the data access layer for processing jobs.
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a JobRepository.
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, video_id, status, attempt_count, last_error,
	created_at, started_at, completed_at`

// CreateOrGetActive enqueues a job for a video, or returns the already
// active one. The video id is the idempotency key: the partial unique index
// on active jobs makes the second concurrent trigger lose the insert race,
// after which it reads back the winner. created reports whether a new job
// row was made.
func (r *JobRepository) CreateOrGetActive(ctx context.Context, videoID string) (job *models.ProcessingJob, created bool, err error) {
	if existing, err := r.GetActiveByVideo(ctx, videoID); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	j := &models.ProcessingJob{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO processing_jobs (id, video_id, status, attempt_count, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		j.ID, j.VideoID, j.Status, j.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, gerr := r.GetActiveByVideo(ctx, videoID)
			if gerr != nil {
				return nil, false, gerr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("insert job: %w", err)
	}
	return j, true, nil
}

// GetActiveByVideo returns the queued or running job for a video, nil when
// none is active.
func (r *JobRepository) GetActiveByVideo(ctx context.Context, videoID string) (*models.ProcessingJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM processing_jobs
		WHERE video_id = ? AND status IN (?, ?)`,
		videoID, models.JobStatusQueued, models.JobStatusRunning)
	return scanJob(row)
}

// GetByID fetches a job, nil when absent.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.ProcessingJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs WHERE id = ?`, id)
	return scanJob(row)
}

// ClaimNextQueued atomically picks the oldest queued job and moves it to
// running. Nil when the queue is empty. The CAS in the update keeps two
// workers from claiming the same row.
func (r *JobRepository) ClaimNextQueued(ctx context.Context) (*models.ProcessingJob, error) {
	for {
		row := r.db.QueryRowContext(ctx, `
			SELECT `+jobColumns+` FROM processing_jobs
			WHERE status = ? ORDER BY created_at LIMIT 1`, models.JobStatusQueued)
		job, err := scanJob(row)
		if err != nil || job == nil {
			return nil, err
		}

		now := time.Now().UTC()
		res, err := r.db.ExecContext(ctx, `
			UPDATE processing_jobs SET status = ?, started_at = ?
			WHERE id = ? AND status = ?`,
			models.JobStatusRunning, now, job.ID, models.JobStatusQueued)
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			job.Status = models.JobStatusRunning
			job.StartedAt = &now
			return job, nil
		}
		// Lost the claim race; try the next queued job.
	}
}

// IncrementAttempt bumps the persisted attempt counter and records the error
// that caused the retry.
func (r *JobRepository) IncrementAttempt(ctx context.Context, id, lastError string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs SET attempt_count = attempt_count + 1, last_error = ?
		WHERE id = ?`, lastError, id)
	if err != nil {
		return fmt.Errorf("increment attempt: %w", err)
	}
	return nil
}

// Complete marks a job finished.
func (r *JobRepository) Complete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs SET status = ?, completed_at = ? WHERE id = ?`,
		models.JobStatusCompleted, now, id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// Fail marks a job failed with its final error.
func (r *JobRepository) Fail(ctx context.Context, id, lastError string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs SET status = ?, last_error = ?, completed_at = ?
		WHERE id = ?`, models.JobStatusFailed, lastError, now, id)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// ListRecent returns the newest jobs.
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]models.ProcessingJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM processing_jobs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

// CountByStatus returns job counts keyed by status.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM processing_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanJob(row *sql.Row) (*models.ProcessingJob, error) {
	var j models.ProcessingJob
	err := row.Scan(&j.ID, &j.VideoID, &j.Status, &j.AttemptCount, &j.LastError,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func scanJobs(rows *sql.Rows) ([]models.ProcessingJob, error) {
	var jobs []models.ProcessingJob
	for rows.Next() {
		var j models.ProcessingJob
		if err := rows.Scan(&j.ID, &j.VideoID, &j.Status, &j.AttemptCount,
			&j.LastError, &j.CreatedAt, &j.StartedAt, &j.CompletedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
