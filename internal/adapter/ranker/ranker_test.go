package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessrag/internal/domain"
)

func TestIdentityPreservesOrder(t *testing.T) {
	in := []domain.ScoredChunk{
		scored("a", 0, 0.5, "x"),
		scored("b", 0, 0.6, "y"),
		scored("c", 1, 0.7, "z"),
	}

	out := Identity{}.Rank(in)
	assert.Equal(t, in, out)

	out[0].Chunk.ID = "changed"
	assert.Equal(t, "a", in[0].Chunk.ID, "identity must return a copy")
}

func TestDedupBySource(t *testing.T) {
	in := []domain.ScoredChunk{
		scored("a0", 0, 0.1, ""),
		scored("b0", 1, 0.2, ""),
		scored("a1", 0, 0.3, ""),
		scored("c0", 2, 0.4, ""),
		scored("b1", 1, 0.5, ""),
	}

	out := DedupBySource{}.Rank(in)
	assert.Equal(t, []string{"a0", "b0", "c0"}, ids(out))
	assert.Len(t, in, 5)
}

func TestRankersArePure(t *testing.T) {
	in := []domain.ScoredChunk{
		scored("a0", 0, 0.1, "java"),
		scored("a1", 0, 0.3, "java"),
		scored("b0", 1, 0.2, "python"),
	}

	for _, name := range []string{"identity", "dedup", "mmr"} {
		t.Run(name, func(t *testing.T) {
			r, err := New(name, Options{MMRLambda: 0.7, DedupJaccard: 0.8})
			require.NoError(t, err)
			assert.Equal(t, name, r.Name())

			first := r.Rank(in)
			second := r.Rank(in)
			assert.Equal(t, first, second)
		})
	}
}

func TestNewUnknownRanker(t *testing.T) {
	_, err := New("cross-encoder", Options{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	r, err := New("", Options{})
	require.NoError(t, err)
	assert.Equal(t, "identity", r.Name())
}
