package port

import (
	"context"

	"assessrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex is a built, read-only nearest-neighbour structure.
type VectorIndex interface {
	// Search returns up to k hits ordered by ascending Euclidean distance.
	Search(query []float32, k int) ([]domain.Hit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimension returns the vector dimension of the index.
	Dimension() int

	// ChunkID returns the chunk identifier stored for a position.
	ChunkID(pos int) (string, bool)
}
