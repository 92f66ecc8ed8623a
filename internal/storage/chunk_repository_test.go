package storage

import (
	"context"
	"fmt"
	"testing"

	"clipindex/internal/models"
)

func makeChunks(videoID string, n, dim int) []models.TranscriptChunk {
	chunks := make([]models.TranscriptChunk, n)
	for i := range chunks {
		emb := make([]float32, dim)
		for j := range emb {
			emb[j] = float32(i*dim + j)
		}
		chunks[i] = models.TranscriptChunk{
			VideoID:          videoID,
			ChunkIndex:       i,
			Text:             "chunk text",
			Embedding:        emb,
			StartTimeSeconds: float64(i * 60),
			EndTimeSeconds:   float64((i + 1) * 60),
			WordCount:        100,
		}
	}
	return chunks
}

func TestChunkRepository_ReplaceAndList(t *testing.T) {
	db := testDB(t)
	videos := NewVideoRepository(db)
	chunks := NewChunkRepository(db)
	ctx := context.Background()

	v := mustCreateVideo(t, videos, "c")
	if err := chunks.ReplaceForVideo(ctx, v.ID, makeChunks(v.ID, 3, 8)); err != nil {
		t.Fatalf("ReplaceForVideo error: %v", err)
	}

	got, err := chunks.ListByVideos(ctx, []string{v.ID})
	if err != nil {
		t.Fatalf("ListByVideos error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}
	for i, c := range got {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if len(c.Embedding) != 8 {
			t.Errorf("chunk %d embedding has %d components, want 8", i, len(c.Embedding))
		}
	}
	// Embeddings survive the blob round trip exactly.
	if got[2].Embedding[0] != 16 || got[2].Embedding[7] != 23 {
		t.Errorf("embedding round trip corrupted: %v", got[2].Embedding)
	}
}

func TestChunkRepository_ReplaceIsAtomicSwap(t *testing.T) {
	db := testDB(t)
	videos := NewVideoRepository(db)
	chunks := NewChunkRepository(db)
	ctx := context.Background()

	v := mustCreateVideo(t, videos, "c")
	if err := chunks.ReplaceForVideo(ctx, v.ID, makeChunks(v.ID, 5, 4)); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	// Reprocessing with fewer chunks must leave no orphans behind: indexes
	// come back contiguous from zero.
	if err := chunks.ReplaceForVideo(ctx, v.ID, makeChunks(v.ID, 2, 4)); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	got, err := chunks.ListByVideos(ctx, []string{v.ID})
	if err != nil {
		t.Fatalf("ListByVideos error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks after reprocess, want 2", len(got))
	}
	for i, c := range got {
		if c.ChunkIndex != i {
			t.Errorf("chunk index %d at position %d; stale rows survived the swap", c.ChunkIndex, i)
		}
	}

	n, err := chunks.CountForVideo(ctx, v.ID)
	if err != nil || n != 2 {
		t.Errorf("CountForVideo = (%d, %v), want 2", n, err)
	}
}

func TestChunkRepository_ListByVideosFilters(t *testing.T) {
	db := testDB(t)
	videos := NewVideoRepository(db)
	chunks := NewChunkRepository(db)
	ctx := context.Background()

	a := mustCreateVideo(t, videos, "c")
	b := mustCreateVideo(t, videos, "c")
	if err := chunks.ReplaceForVideo(ctx, a.ID, makeChunks(a.ID, 2, 4)); err != nil {
		t.Fatal(err)
	}
	if err := chunks.ReplaceForVideo(ctx, b.ID, makeChunks(b.ID, 3, 4)); err != nil {
		t.Fatal(err)
	}

	got, err := chunks.ListByVideos(ctx, []string{b.ID})
	if err != nil {
		t.Fatalf("ListByVideos error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d chunks, want only b's 3", len(got))
	}
	for _, c := range got {
		if c.VideoID != b.ID {
			t.Errorf("chunk from video %q leaked into the result", c.VideoID)
		}
	}

	if got, err := chunks.ListByVideos(ctx, nil); err != nil || got != nil {
		t.Errorf("ListByVideos(nil) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestChunkRepository_ListByVideosLargeCandidateSet(t *testing.T) {
	db := testDB(t)
	videos := NewVideoRepository(db)
	chunks := NewChunkRepository(db)
	ctx := context.Background()

	a := mustCreateVideo(t, videos, "c")
	b := mustCreateVideo(t, videos, "c")
	if err := chunks.ReplaceForVideo(ctx, a.ID, makeChunks(a.ID, 2, 4)); err != nil {
		t.Fatal(err)
	}
	if err := chunks.ReplaceForVideo(ctx, b.ID, makeChunks(b.ID, 3, 4)); err != nil {
		t.Fatal(err)
	}

	// Candidate lists can run past SQLite's bind variable limit; the query
	// batches instead of blowing up.
	ids := make([]string, 1500)
	for i := range ids {
		ids[i] = fmt.Sprintf("missing-%d", i)
	}
	ids[40] = a.ID
	ids[1200] = b.ID

	got, err := chunks.ListByVideos(ctx, ids)
	if err != nil {
		t.Fatalf("ListByVideos error: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("got %d chunks, want 5 across both real videos", len(got))
	}
}

func TestVectorEncoding(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3e7}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("decoded %d components, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("component %d: %f != %f", i, in[i], out[i])
		}
	}
}
