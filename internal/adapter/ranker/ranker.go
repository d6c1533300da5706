package ranker

import (
	"fmt"

	"assessrag/internal/adapter/analyzer"
	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// Options tunes the rankers that take parameters.
type Options struct {
	MMRLambda    float64
	DedupJaccard float64
}

// New returns the ranker registered under name. An empty name selects the
// identity ranker.
func New(name string, opts Options) (port.Ranker, error) {
	switch name {
	case "", "identity":
		return Identity{}, nil
	case "dedup":
		return DedupBySource{}, nil
	case "mmr":
		return NewMMRRanker(opts.MMRLambda, opts.DedupJaccard, analyzer.NewTokenizer(true)), nil
	default:
		return nil, fmt.Errorf("%w: unknown ranker %q", domain.ErrConfiguration, name)
	}
}

// Identity keeps retrieval order unchanged.
type Identity struct{}

func (Identity) Rank(results []domain.ScoredChunk) []domain.ScoredChunk {
	return append([]domain.ScoredChunk(nil), results...)
}

func (Identity) Name() string { return "identity" }

// DedupBySource keeps only the closest chunk of each source document.
type DedupBySource struct{}

func (DedupBySource) Rank(results []domain.ScoredChunk) []domain.ScoredChunk {
	seen := make(map[int]struct{}, len(results))
	out := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if _, dup := seen[r.Chunk.DocIndex]; dup {
			continue
		}
		seen[r.Chunk.DocIndex] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (DedupBySource) Name() string { return "dedup" }
