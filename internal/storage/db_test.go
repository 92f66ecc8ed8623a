package storage

import (
	"context"
	"path/filepath"
	"testing"

	"clipindex/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateVideo(t *testing.T, repo *VideoRepository, creator string) *models.Video {
	t.Helper()
	v := &models.Video{
		CreatorID:  creator,
		Title:      "test video",
		SourceType: models.SourceYouTube,
		SourceURL:  "https://youtu.be/abc",
	}
	if err := repo.Create(context.Background(), v); err != nil {
		t.Fatalf("create video: %v", err)
	}
	return v
}
