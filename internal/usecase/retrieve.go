package usecase

import (
	"context"
	"fmt"
	"strings"

	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// RecommendUseCase turns a free-text query into assessment recommendations.
type RecommendUseCase struct {
	retriever port.Retriever
	ranker    port.Ranker
	parser    port.Parser
}

// NewRecommendUseCase creates a new recommend use case.
func NewRecommendUseCase(retriever port.Retriever, ranker port.Ranker, parser port.Parser) *RecommendUseCase {
	return &RecommendUseCase{
		retriever: retriever,
		ranker:    ranker,
		parser:    parser,
	}
}

// RecommendResult carries recommendations plus the ranked chunks behind them.
type RecommendResult struct {
	Query           string                  `json:"query"`
	Ranker          string                  `json:"ranker"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	Skipped         int                     `json:"skipped"`
	Chunks          []domain.ScoredChunk    `json:"-"`
}

// Search retrieves topK chunks, ranks them and parses each into an
// assessment. Chunks that do not parse are skipped and counted.
func (u *RecommendUseCase) Search(ctx context.Context, query string, topK int) (*RecommendResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	results, err := u.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	ranked := u.ranker.Rank(results)

	res := &RecommendResult{
		Query:           query,
		Ranker:          u.ranker.Name(),
		Recommendations: make([]domain.Recommendation, 0, len(ranked)),
		Chunks:          ranked,
	}
	for _, r := range ranked {
		a, ok := u.parser.Parse(r.Chunk.Text)
		if !ok {
			res.Skipped++
			continue
		}
		res.Recommendations = append(res.Recommendations, domain.Recommendation{
			Assessment: a,
			ChunkID:    r.Chunk.ID,
			Distance:   r.Distance,
		})
	}
	return res, nil
}

// Recommend returns only the parsed recommendations of Search.
func (u *RecommendUseCase) Recommend(ctx context.Context, query string, topK int) ([]domain.Recommendation, error) {
	res, err := u.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	return res.Recommendations, nil
}
