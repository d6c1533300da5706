package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessrag/internal/domain"
)

type fakeRecommender struct {
	results map[string][]string
	topKs   []int
	err     error
}

func (f *fakeRecommender) Recommend(_ context.Context, query string, topK int) ([]domain.Recommendation, error) {
	f.topKs = append(f.topKs, topK)
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Recommendation
	for _, name := range f.results[query] {
		out = append(out, domain.Recommendation{Assessment: domain.Assessment{Name: name}})
	}
	return out, nil
}

func TestEvaluatorRun(t *testing.T) {
	rec := &fakeRecommender{results: map[string][]string{
		"java":    {"Java 8", "Python", "Core Java"},
		"numbers": {"Verbal Reasoning", "Numerical Reasoning"},
		"nothing": {},
	}}
	records := []domain.EvalRecord{
		{Query: "java", RelevantAssessments: []string{"java"}},
		{Query: "numbers", RelevantAssessments: []string{"numerical"}},
		{Query: "nothing", RelevantAssessments: []string{"anything"}},
	}

	report, err := NewEvaluator(rec, Substring{}).Run(context.Background(), records, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.K)
	assert.Equal(t, "substring", report.Matcher)
	assert.Equal(t, 3, report.Queries)
	require.Len(t, report.Scores, 3)
	assert.Equal(t, []int{2, 2, 2}, rec.topKs)

	assert.InDelta(t, 0.5, report.Scores[0].Precision, 1e-9)
	assert.InDelta(t, 1.0, report.Scores[0].ReciprocalRank, 1e-9)
	assert.InDelta(t, 0.5, report.Scores[1].Precision, 1e-9)
	assert.InDelta(t, 0.5, report.Scores[1].ReciprocalRank, 1e-9)
	assert.Equal(t, 0, report.Scores[2].HitRate)

	assert.InDelta(t, 1.0/3.0, report.MeanPrecision, 1e-9)
	assert.InDelta(t, 2.0/3.0, report.HitRate, 1e-9)
	assert.InDelta(t, 0.5, report.MRR, 1e-9)
}

func TestEvaluatorRunErrors(t *testing.T) {
	boom := errors.New("boom")
	ev := NewEvaluator(&fakeRecommender{err: boom}, Exact{})

	_, err := ev.Run(context.Background(), []domain.EvalRecord{{Query: "q"}}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = ev.Run(context.Background(), []domain.EvalRecord{{Query: "q"}}, 3)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ev.Run(ctx, []domain.EvalRecord{{Query: "q"}}, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluatorEmptyDataset(t *testing.T) {
	report, err := NewEvaluator(&fakeRecommender{}, Substring{}).Run(context.Background(), nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Queries)
	assert.Zero(t, report.MeanPrecision)
}
