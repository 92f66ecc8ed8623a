// Package vector is the retrieval read path: nearest-neighbor search over
// stored chunk embeddings, restricted to a candidate video set.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"clipindex/internal/acquire"
	"clipindex/internal/models"
	"clipindex/internal/storage"
)

// Store runs similarity search over persisted chunks. All chunk writes go
// through the chunk repository; Store never mutates anything.
type Store struct {
	chunks    *storage.ChunkRepository
	dimension int
}

// NewStore creates a Store bound to the system-wide embedding dimension.
func NewStore(chunks *storage.ChunkRepository, dimension int) *Store {
	return &Store{chunks: chunks, dimension: dimension}
}

// Dimension returns the configured embedding dimension.
func (s *Store) Dimension() int { return s.dimension }

// Search returns up to topK chunks from videoIDs with cosine similarity to
// query of at least threshold, sorted strictly descending by similarity.
// Ties break by ascending chunk index, then video id, so results are stable.
func (s *Store) Search(ctx context.Context, query []float32, videoIDs []string, topK int, threshold float64) ([]models.ChunkMatch, error) {
	if len(query) != s.dimension {
		return nil, acquire.NewError(acquire.KindDimensionMismatch,
			fmt.Sprintf("query embedding has %d components, store dimension is %d",
				len(query), s.dimension))
	}
	if topK <= 0 || len(videoIDs) == 0 {
		return nil, nil
	}

	chunks, err := s.chunks.ListByVideos(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("load candidate chunks: %w", err)
	}

	matches := make([]models.ChunkMatch, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) != s.dimension {
			return nil, acquire.NewError(acquire.KindDimensionMismatch,
				fmt.Sprintf("stored chunk %s/%d has %d components, store dimension is %d",
					c.VideoID, c.ChunkIndex, len(c.Embedding), s.dimension))
		}
		sim := CosineSimilarity(query, c.Embedding)
		if sim >= threshold {
			matches = append(matches, models.ChunkMatch{Chunk: c, Similarity: sim})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].Chunk.ChunkIndex != matches[j].Chunk.ChunkIndex {
			return matches[i].Chunk.ChunkIndex < matches[j].Chunk.ChunkIndex
		}
		return matches[i].Chunk.VideoID < matches[j].Chunk.VideoID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, 0 for
// zero-norm inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
