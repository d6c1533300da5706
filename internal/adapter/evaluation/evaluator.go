package evaluation

import (
	"context"
	"fmt"

	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// Recommender produces ranked recommendations for a query.
type Recommender interface {
	Recommend(ctx context.Context, query string, topK int) ([]domain.Recommendation, error)
}

// Evaluator scores a recommender against labeled queries.
type Evaluator struct {
	recommender Recommender
	matcher     port.Matcher
}

func NewEvaluator(recommender Recommender, matcher port.Matcher) *Evaluator {
	return &Evaluator{
		recommender: recommender,
		matcher:     matcher,
	}
}

// Run recommends k assessments for every record and averages the metrics.
// An empty record set yields a report with zero queries and zero means.
func (e *Evaluator) Run(ctx context.Context, records []domain.EvalRecord, k int) (*domain.EvalReport, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: evaluation needs k > 0, got %d", domain.ErrInvalidArgument, k)
	}

	report := &domain.EvalReport{
		K:       k,
		Matcher: e.matcher.Name(),
		Queries: len(records),
		Scores:  make([]domain.QueryScore, 0, len(records)),
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		recs, err := e.recommender.Recommend(ctx, rec.Query, k)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", rec.Query, err)
		}

		score, err := e.score(rec, names(recs), k)
		if err != nil {
			return nil, err
		}
		report.Scores = append(report.Scores, score)
		report.MeanPrecision += score.Precision
		report.HitRate += float64(score.HitRate)
		report.MRR += score.ReciprocalRank
	}

	if n := float64(len(records)); n > 0 {
		report.MeanPrecision /= n
		report.HitRate /= n
		report.MRR /= n
	}
	return report, nil
}

func (e *Evaluator) score(rec domain.EvalRecord, retrieved []string, k int) (domain.QueryScore, error) {
	p, err := PrecisionAtK(retrieved, rec.RelevantAssessments, k, e.matcher)
	if err != nil {
		return domain.QueryScore{}, err
	}
	hit, err := HitRateAtK(retrieved, rec.RelevantAssessments, k, e.matcher)
	if err != nil {
		return domain.QueryScore{}, err
	}
	rr, err := ReciprocalRank(retrieved, rec.RelevantAssessments, k, e.matcher)
	if err != nil {
		return domain.QueryScore{}, err
	}
	return domain.QueryScore{
		Query:          rec.Query,
		Precision:      p,
		HitRate:        hit,
		ReciprocalRank: rr,
		Retrieved:      retrieved,
	}, nil
}

func names(recs []domain.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}
