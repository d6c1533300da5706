package port

import "assessrag/internal/domain"

// Ranker reorders or filters retrieved chunks. Implementations must be pure
// functions of their input and must not modify it.
type Ranker interface {
	Rank(results []domain.ScoredChunk) []domain.ScoredChunk
	Name() string
}
