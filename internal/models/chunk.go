package models

import "time"

// TranscriptChunk is a contiguous, timestamp-bounded slice of a transcript,
// sized for embedding and retrieval. Chunks are written in one batch per
// video and replaced wholesale on reprocessing, never mutated in place.
//
// Invariants: chunk_index is dense and 0-based; StartTimeSeconds is
// non-decreasing across increasing index; EndTimeSeconds >= StartTimeSeconds;
// both lie within [0, video duration].
type TranscriptChunk struct {
	VideoID          string    `json:"video_id"`
	ChunkIndex       int       `json:"chunk_index"`
	Text             string    `json:"text"`
	Embedding        []float32 `json:"-"`
	StartTimeSeconds float64   `json:"start_time_seconds"`
	EndTimeSeconds   float64   `json:"end_time_seconds"`
	WordCount        int       `json:"word_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// ChunkMatch is one vector search hit.
type ChunkMatch struct {
	Chunk      TranscriptChunk `json:"chunk"`
	Similarity float64         `json:"similarity"`
}
