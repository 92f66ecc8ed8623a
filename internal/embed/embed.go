// Package embed turns chunk text into fixed-dimension vectors. One dimension
// is configured for the whole system; every vector leaving this package has
// exactly that many components or the call fails as a configuration error.
package embed

import (
	"context"
	"fmt"

	"clipindex/internal/acquire"
)

// Client generates embeddings. Texts are embedded independently, so callers
// may batch freely; order of the returned vectors matches the input order.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// checkDimensions verifies every vector against the configured dimension.
// A mismatch means the model and the store disagree about the world; that is
// fatal, never something to pad or truncate around.
func checkDimensions(vectors [][]float32, want int) error {
	for i, v := range vectors {
		if len(v) != want {
			return acquire.NewError(acquire.KindDimensionMismatch,
				fmt.Sprintf("embedding %d has %d components, expected %d", i, len(v), want))
		}
	}
	return nil
}
