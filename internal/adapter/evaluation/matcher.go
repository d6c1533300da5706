package evaluation

import (
	"fmt"
	"strings"

	"assessrag/internal/adapter/analyzer"
	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// Substring matches when either lowercased name contains the other.
type Substring struct{}

func (Substring) Match(retrieved, relevant string) bool {
	a := strings.ToLower(retrieved)
	b := strings.ToLower(relevant)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func (Substring) Name() string { return "substring" }

// Exact matches case-insensitively after trimming surrounding space.
type Exact struct{}

func (Exact) Match(retrieved, relevant string) bool {
	return strings.EqualFold(strings.TrimSpace(retrieved), strings.TrimSpace(relevant))
}

func (Exact) Name() string { return "exact" }

// TokenOverlap matches when the Jaccard similarity of the stemmed token sets
// reaches the threshold.
type TokenOverlap struct {
	threshold float64
	tokenizer *analyzer.Tokenizer
}

func NewTokenOverlap(threshold float64) *TokenOverlap {
	return &TokenOverlap{
		threshold: threshold,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (m *TokenOverlap) Match(retrieved, relevant string) bool {
	a := m.tokenizer.TokenSet(retrieved)
	b := m.tokenizer.TokenSet(relevant)
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return analyzer.Jaccard(a, b) >= m.threshold
}

func (m *TokenOverlap) Name() string { return "token" }

// NewMatcher returns the matcher registered under name.
func NewMatcher(name string, tokenThreshold float64) (port.Matcher, error) {
	switch name {
	case "", "substring":
		return Substring{}, nil
	case "exact":
		return Exact{}, nil
	case "token":
		if tokenThreshold <= 0 || tokenThreshold > 1 {
			return nil, fmt.Errorf("%w: token threshold must be in (0, 1], got %g", domain.ErrConfiguration, tokenThreshold)
		}
		return NewTokenOverlap(tokenThreshold), nil
	default:
		return nil, fmt.Errorf("%w: unknown matcher %q", domain.ErrConfiguration, name)
	}
}
