package storage

import (
	"context"
	"testing"
	"time"

	"clipindex/internal/models"
)

func TestJobRepository_CreateOrGetActive(t *testing.T) {
	db := testDB(t)
	videos := NewVideoRepository(db)
	jobs := NewJobRepository(db)
	ctx := context.Background()
	v := mustCreateVideo(t, videos, "c")

	first, created, err := jobs.CreateOrGetActive(ctx, v.ID)
	if err != nil {
		t.Fatalf("first CreateOrGetActive: %v", err)
	}
	if !created {
		t.Error("first call should create a job")
	}
	if first.Status != models.JobStatusQueued {
		t.Errorf("new job status = %q, want queued", first.Status)
	}

	// Triggering again while the job is active returns the same job.
	second, created, err := jobs.CreateOrGetActive(ctx, v.ID)
	if err != nil {
		t.Fatalf("second CreateOrGetActive: %v", err)
	}
	if created {
		t.Error("second call must not create another job")
	}
	if second.ID != first.ID {
		t.Errorf("second call returned job %s, want %s", second.ID, first.ID)
	}

	// Still the same job while running.
	if _, err := jobs.ClaimNextQueued(ctx); err != nil {
		t.Fatalf("claim: %v", err)
	}
	third, created, err := jobs.CreateOrGetActive(ctx, v.ID)
	if err != nil || created || third.ID != first.ID {
		t.Errorf("trigger during run = (%v, %v, %v), want existing job", third, created, err)
	}

	// Once the job completes, a new trigger starts a fresh run.
	if err := jobs.Complete(ctx, first.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	fresh, created, err := jobs.CreateOrGetActive(ctx, v.ID)
	if err != nil {
		t.Fatalf("post-completion CreateOrGetActive: %v", err)
	}
	if !created || fresh.ID == first.ID {
		t.Errorf("completed video should accept a new job, got (%v, created=%v)", fresh, created)
	}
}

func TestJobRepository_ClaimNextQueued(t *testing.T) {
	db := testDB(t)
	videos := NewVideoRepository(db)
	jobs := NewJobRepository(db)
	ctx := context.Background()

	if job, err := jobs.ClaimNextQueued(ctx); err != nil || job != nil {
		t.Fatalf("claim on empty queue = (%v, %v), want (nil, nil)", job, err)
	}

	a := mustCreateVideo(t, videos, "c")
	time.Sleep(5 * time.Millisecond) // distinct created_at for FIFO order
	b := mustCreateVideo(t, videos, "c")

	ja, _, err := jobs.CreateOrGetActive(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	jb, _, err := jobs.CreateOrGetActive(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}

	claimed, err := jobs.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.ID != ja.ID {
		t.Errorf("claimed %s, want oldest job %s", claimed.ID, ja.ID)
	}
	if claimed.Status != models.JobStatusRunning || claimed.StartedAt == nil {
		t.Errorf("claimed job not marked running: %+v", claimed)
	}

	// Claiming again skips the running job and takes the next queued one.
	claimed, err = jobs.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed.ID != jb.ID {
		t.Errorf("second claim got %s, want %s", claimed.ID, jb.ID)
	}

	if job, err := jobs.ClaimNextQueued(ctx); err != nil || job != nil {
		t.Errorf("third claim = (%v, %v), want empty queue", job, err)
	}
}

func TestJobRepository_AttemptsAndFailure(t *testing.T) {
	db := testDB(t)
	videos := NewVideoRepository(db)
	jobs := NewJobRepository(db)
	ctx := context.Background()
	v := mustCreateVideo(t, videos, "c")

	job, _, err := jobs.CreateOrGetActive(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := jobs.IncrementAttempt(ctx, job.ID, "rate_limited: slow down"); err != nil {
			t.Fatalf("increment attempt: %v", err)
		}
	}
	if err := jobs.Fail(ctx, job.ID, "rate_limited: slow down"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, err := jobs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AttemptCount != 3 {
		t.Errorf("attempt count = %d, want 3", got.AttemptCount)
	}
	if got.Status != models.JobStatusFailed || got.CompletedAt == nil {
		t.Errorf("failed job not terminal: %+v", got)
	}
	if got.LastError == "" {
		t.Error("last error not recorded")
	}

	counts, err := jobs.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[models.JobStatusFailed] != 1 {
		t.Errorf("counts = %v, want one failed", counts)
	}
}
