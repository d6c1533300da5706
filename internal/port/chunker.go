package port

import "assessrag/internal/domain"

// Chunker splits an ordered document sequence into an ordered chunk sequence,
// grouped by document and then by sequence number.
type Chunker interface {
	Chunk(docs []domain.Document) ([]domain.Chunk, error)
}
