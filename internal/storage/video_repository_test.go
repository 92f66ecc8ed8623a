package storage

import (
	"context"
	"testing"

	"clipindex/internal/models"
)

func TestVideoRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	v := mustCreateVideo(t, repo, "creator-1")
	if v.ID == "" {
		t.Fatal("Create did not assign an id")
	}
	if v.Status != models.VideoStatusPending {
		t.Errorf("new video status = %q, want pending", v.Status)
	}

	got, err := repo.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil for an existing video")
	}
	if got.CreatorID != "creator-1" || got.SourceType != models.SourceYouTube {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	missing, err := repo.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetByID(missing) = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestVideoRepository_UpdateStatusCAS(t *testing.T) {
	db := testDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()
	v := mustCreateVideo(t, repo, "c")

	ok, err := repo.UpdateStatusCAS(ctx, v.ID, models.VideoStatusPending, models.VideoStatusTranscribing)
	if err != nil {
		t.Fatalf("CAS error: %v", err)
	}
	if !ok {
		t.Fatal("CAS from the current status should succeed")
	}

	// A stale writer still believing the video is pending must lose.
	ok, err = repo.UpdateStatusCAS(ctx, v.ID, models.VideoStatusPending, models.VideoStatusProcessing)
	if err != nil {
		t.Fatalf("CAS error: %v", err)
	}
	if ok {
		t.Fatal("stale CAS should report false")
	}

	got, _ := repo.GetByID(ctx, v.ID)
	if got.Status != models.VideoStatusTranscribing {
		t.Errorf("status = %q, want transcribing", got.Status)
	}
}

func TestVideoRepository_MarkFailed(t *testing.T) {
	db := testDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	v := mustCreateVideo(t, repo, "c")
	if err := repo.MarkFailed(ctx, v.ID, "video processing failed (access_denied)"); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}
	got, _ := repo.GetByID(ctx, v.ID)
	if got.Status != models.VideoStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("error message not recorded")
	}

	// Completed videos never regress to failed.
	done := mustCreateVideo(t, repo, "c")
	if ok, _ := repo.UpdateStatusCAS(ctx, done.ID, models.VideoStatusPending, models.VideoStatusCompleted); !ok {
		t.Fatal("setup CAS failed")
	}
	if err := repo.MarkFailed(ctx, done.ID, "late failure"); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}
	got, _ = repo.GetByID(ctx, done.ID)
	if got.Status != models.VideoStatusCompleted {
		t.Errorf("completed video regressed to %q", got.Status)
	}
}

func TestVideoRepository_SetTranscript(t *testing.T) {
	db := testDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()
	v := mustCreateVideo(t, repo, "c")

	result := &models.TranscriptResult{
		Method: models.MethodSpeechToText,
		Segments: []models.Segment{
			{Text: "Hello.", Start: 0, Duration: 2},
			{Text: "World.", Start: 2, Duration: 3},
		},
		CostUSD:          0.012,
		ProcessingTimeMS: 840,
	}
	if err := repo.SetTranscript(ctx, v.ID, result, 5); err != nil {
		t.Fatalf("SetTranscript error: %v", err)
	}

	got, _ := repo.GetByID(ctx, v.ID)
	if got.Transcript != "Hello. World." {
		t.Errorf("transcript = %q", got.Transcript)
	}
	if got.TranscriptMethod != models.MethodSpeechToText {
		t.Errorf("method = %q", got.TranscriptMethod)
	}
	if got.TranscriptCost != 0.012 {
		t.Errorf("cost = %f", got.TranscriptCost)
	}
	if got.DurationSeconds != 5 {
		t.Errorf("duration = %f", got.DurationSeconds)
	}
}

func TestVideoRepository_ListByCreator(t *testing.T) {
	db := testDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	mustCreateVideo(t, repo, "alice")
	mustCreateVideo(t, repo, "alice")
	mustCreateVideo(t, repo, "bob")

	videos, err := repo.ListByCreator(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("ListByCreator error: %v", err)
	}
	if len(videos) != 2 {
		t.Errorf("got %d videos for alice, want 2", len(videos))
	}
}
