package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"clipindex/internal/models"
)

// ChunkRepository is the data access layer for transcript chunks. It is the
// only writer of the chunk table; reads for retrieval go through the vector
// store, which sits on top of this repository.
type ChunkRepository struct {
	db *DB
}

// NewChunkRepository creates a ChunkRepository.
func NewChunkRepository(db *DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ReplaceForVideo swaps the video's chunk set in one transaction. Callers
// observe either the old set or the new set, never a partial mix; this is
// the upsert contract that makes reprocessing safe.
func (r *ChunkRepository) ReplaceForVideo(ctx context.Context, videoID string, chunks []models.TranscriptChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transcript_chunks WHERE video_id = ?`, videoID); err != nil {
		return fmt.Errorf("delete prior chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transcript_chunks
			(video_id, chunk_index, text, embedding, start_time_seconds,
			 end_time_seconds, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, videoID, c.ChunkIndex, c.Text,
			encodeVector(c.Embedding), c.StartTimeSeconds, c.EndTimeSeconds,
			c.WordCount, now); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk transaction: %w", err)
	}
	return nil
}

// listByVideosBatch caps bind variables per query; SQLite limits host
// parameters and candidate video sets can run past that.
const listByVideosBatch = 500

// ListByVideos loads all chunks of the given videos, embeddings included,
// ordered by (video_id, chunk_index) within each id batch. Ranking happens
// in the vector store, so cross-batch order does not matter.
func (r *ChunkRepository) ListByVideos(ctx context.Context, videoIDs []string) ([]models.TranscriptChunk, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	var chunks []models.TranscriptChunk
	for start := 0; start < len(videoIDs); start += listByVideosBatch {
		end := start + listByVideosBatch
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch, err := r.listBatch(ctx, videoIDs[start:end])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, batch...)
	}
	return chunks, nil
}

func (r *ChunkRepository) listBatch(ctx context.Context, videoIDs []string) ([]models.TranscriptChunk, error) {
	query := `SELECT video_id, chunk_index, text, embedding, start_time_seconds,
		end_time_seconds, word_count, created_at
		FROM transcript_chunks WHERE video_id IN (` + placeholders(len(videoIDs)) + `)
		ORDER BY video_id, chunk_index`

	args := make([]any, len(videoIDs))
	for i, id := range videoIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.TranscriptChunk
	for rows.Next() {
		var c models.TranscriptChunk
		var blob []byte
		if err := rows.Scan(&c.VideoID, &c.ChunkIndex, &c.Text, &blob,
			&c.StartTimeSeconds, &c.EndTimeSeconds, &c.WordCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Embedding = decodeVector(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountForVideo returns the number of chunks stored for a video.
func (r *ChunkRepository) CountForVideo(ctx context.Context, videoID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcript_chunks WHERE video_id = ?`, videoID).Scan(&n)
	return n, err
}

func placeholders(n int) string {
	buf := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '?')
	}
	return string(buf)
}

// encodeVector packs float32 components little-endian.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
