package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessrag/internal/domain"
)

func testChunks(ids ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(ids))
	for i, id := range ids {
		chunks[i] = domain.Chunk{ID: id, Seq: i, Text: "chunk " + id}
	}
	return chunks
}

func TestNewGenerationVerifiesAlignment(t *testing.T) {
	idx, err := Build([]string{"a", "b"}, [][]float32{{1}, {2}})
	require.NoError(t, err)

	gen, err := NewGeneration(testChunks("a", "b"), idx)
	require.NoError(t, err)
	assert.NotEmpty(t, gen.ID)

	_, err = NewGeneration(testChunks("a"), idx)
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)

	_, err = NewGeneration(testChunks("b", "a"), idx)
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)

	_, err = NewGeneration(testChunks("a"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestChunkAt(t *testing.T) {
	idx, err := Build([]string{"a", "b"}, [][]float32{{1}, {2}})
	require.NoError(t, err)
	gen, err := NewGeneration(testChunks("a", "b"), idx)
	require.NoError(t, err)

	c, err := gen.ChunkAt(1)
	require.NoError(t, err)
	assert.Equal(t, "b", c.ID)

	_, err = gen.ChunkAt(2)
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)
	_, err = gen.ChunkAt(-1)
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)

	// a chunk set swapped in after verification must be caught on lookup
	gen.Chunks = testChunks("a", "z")
	_, err = gen.ChunkAt(1)
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)
}

func TestHandlePublish(t *testing.T) {
	h := NewHandle()
	_, err := h.Current()
	assert.ErrorIs(t, err, domain.ErrIndexNotBuilt)

	idx, err := Build([]string{"a"}, [][]float32{{1}})
	require.NoError(t, err)
	first, err := NewGeneration(testChunks("a"), idx)
	require.NoError(t, err)
	second, err := NewGeneration(testChunks("a"), idx)
	require.NoError(t, err)

	assert.Nil(t, h.Publish(first))
	cur, err := h.Current()
	require.NoError(t, err)
	assert.Equal(t, first.ID, cur.ID)

	assert.Same(t, first, h.Publish(second))
	cur, err = h.Current()
	require.NoError(t, err)
	assert.Equal(t, second.ID, cur.ID)
}
