package usecase

import (
	"context"
	"fmt"

	"assessrag/internal/adapter/evaluation"
	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// EvaluateUseCase scores the recommend path against a labeled dataset.
type EvaluateUseCase struct {
	evaluator *evaluation.Evaluator
}

func NewEvaluateUseCase(recommender evaluation.Recommender, matcher port.Matcher) *EvaluateUseCase {
	return &EvaluateUseCase{
		evaluator: evaluation.NewEvaluator(recommender, matcher),
	}
}

// Evaluate loads the dataset at path and runs it at cutoff k.
func (u *EvaluateUseCase) Evaluate(ctx context.Context, path string, k int) (*domain.EvalReport, error) {
	records, err := evaluation.LoadDataset(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dataset %s has no records", domain.ErrInvalidArgument, path)
	}
	return u.evaluator.Run(ctx, records, k)
}
