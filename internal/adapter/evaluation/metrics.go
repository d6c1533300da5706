package evaluation

import (
	"fmt"

	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// PrecisionAtK is the number of the first k retrieved names that match any
// relevant name, divided by k. Fewer than k retrieved names still divide by k.
func PrecisionAtK(retrieved, relevant []string, k int, m port.Matcher) (float64, error) {
	if k <= 0 {
		return 0, fmt.Errorf("%w: precision@k needs k > 0, got %d", domain.ErrInvalidArgument, k)
	}
	hits := 0
	for _, name := range head(retrieved, k) {
		if matchesAny(m, name, relevant) {
			hits++
		}
	}
	return float64(hits) / float64(k), nil
}

// HitRateAtK is 1 when any of the first k retrieved names matches a relevant
// name, else 0.
func HitRateAtK(retrieved, relevant []string, k int, m port.Matcher) (int, error) {
	if k <= 0 {
		return 0, fmt.Errorf("%w: hit rate@k needs k > 0, got %d", domain.ErrInvalidArgument, k)
	}
	for _, name := range head(retrieved, k) {
		if matchesAny(m, name, relevant) {
			return 1, nil
		}
	}
	return 0, nil
}

// ReciprocalRank returns 1/rank of the first matching name within the first
// k, or 0 when none matches.
func ReciprocalRank(retrieved, relevant []string, k int, m port.Matcher) (float64, error) {
	if k <= 0 {
		return 0, fmt.Errorf("%w: reciprocal rank needs k > 0, got %d", domain.ErrInvalidArgument, k)
	}
	for i, name := range head(retrieved, k) {
		if matchesAny(m, name, relevant) {
			return 1.0 / float64(i+1), nil
		}
	}
	return 0, nil
}

func matchesAny(m port.Matcher, name string, relevant []string) bool {
	for _, rel := range relevant {
		if m.Match(name, rel) {
			return true
		}
	}
	return false
}

func head(items []string, k int) []string {
	if len(items) > k {
		return items[:k]
	}
	return items
}
