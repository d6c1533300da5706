package port

import (
	"context"

	"assessrag/internal/domain"
)

// Retriever defines the interface for searching indexed content.
type Retriever interface {
	// Retrieve returns the top-k chunks for the query, closest first.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error)
}
