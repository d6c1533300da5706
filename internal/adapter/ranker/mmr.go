package ranker

import (
	"assessrag/internal/adapter/analyzer"
	"assessrag/internal/domain"
)

// MMRRanker reorders results with Maximal Marginal Relevance so that
// near-identical chunks do not crowd out other assessments.
type MMRRanker struct {
	lambda       float64
	dedupJaccard float64
	tokenizer    *analyzer.Tokenizer
}

func NewMMRRanker(lambda, dedupJaccard float64, tokenizer *analyzer.Tokenizer) *MMRRanker {
	return &MMRRanker{
		lambda:       lambda,
		dedupJaccard: dedupJaccard,
		tokenizer:    tokenizer,
	}
}

func (r *MMRRanker) Name() string { return "mmr" }

// Rank applies MMR over the whole input.
// MMR(c) = λ * relevance(c) - (1-λ) * max_similarity(c, selected)
// Relevance is 1 for the closest result and falls linearly to 0 at the
// farthest distance. Candidates whose token Jaccard with an already selected
// chunk exceeds dedupJaccard are dropped.
func (r *MMRRanker) Rank(results []domain.ScoredChunk) []domain.ScoredChunk {
	if len(results) == 0 {
		return nil
	}

	maxDist := 0.0
	for _, c := range results {
		if c.Distance > maxDist {
			maxDist = c.Distance
		}
	}

	type candidate struct {
		chunk     domain.ScoredChunk
		relevance float64
		tokens    map[string]struct{}
	}

	remaining := make([]candidate, len(results))
	for i, c := range results {
		rel := 1.0
		if maxDist > 0 {
			rel = 1 - c.Distance/maxDist
		}
		remaining[i] = candidate{
			chunk:     c,
			relevance: rel,
			tokens:    r.tokenizer.TokenSet(c.Chunk.Text),
		}
	}

	var selectedTokens []map[string]struct{}
	selected := make([]domain.ScoredChunk, 0, len(results))

	for len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, cand := range remaining {
			maxSim := 0.0
			for _, sel := range selectedTokens {
				if sim := analyzer.Jaccard(cand.tokens, sel); sim > maxSim {
					maxSim = sim
				}
			}

			if maxSim > r.dedupJaccard {
				continue
			}

			mmr := r.lambda*cand.relevance - (1-r.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// All remaining candidates are too similar, stop
			break
		}

		selected = append(selected, remaining[bestIdx].chunk)
		selectedTokens = append(selectedTokens, remaining[bestIdx].tokens)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}
