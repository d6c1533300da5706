package retriever

import (
	"context"
	"fmt"

	"assessrag/internal/adapter/index"
	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// VectorRetriever answers queries against the currently published index
// generation. It holds no state of its own.
type VectorRetriever struct {
	embedder port.Embedder
	handle   *index.Handle
}

func NewVectorRetriever(embedder port.Embedder, handle *index.Handle) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		handle:   handle,
	}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	gen, err := r.handle.Current()
	if err != nil {
		return nil, err
	}
	return Retrieve(ctx, query, gen.Chunks, gen.Index, r.embedder, topK)
}

// Retrieve embeds query, searches idx and maps each hit back to chunks, which
// must be the exact chunk sequence idx was built from. Results keep the
// index's ascending-distance order and are not deduplicated.
func Retrieve(
	ctx context.Context,
	query string,
	chunks []domain.Chunk,
	idx port.VectorIndex,
	embedder port.Embedder,
	topK int,
) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}
	if embedder.Dimension() != idx.Dimension() {
		return nil, fmt.Errorf("%w: embedder %s produces %d values, index holds %d", domain.ErrDimensionMismatch, embedder.ModelName(), embedder.Dimension(), idx.Dimension())
	}

	embeddings, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embedding returned %d vectors for one query", len(embeddings))
	}
	if len(embeddings[0]) != idx.Dimension() {
		return nil, fmt.Errorf("%w: query vector has %d values, index holds %d", domain.ErrDimensionMismatch, len(embeddings[0]), idx.Dimension())
	}

	hits, err := idx.Search(embeddings[0], topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := index.ChunkAt(chunks, idx, hit.Position)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.ScoredChunk{
			Chunk:    chunk,
			Distance: hit.Distance,
		})
	}

	return results, nil
}

// Texts returns the chunk texts of results in order.
func Texts(results []domain.ScoredChunk) []string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return texts
}
