package index

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// Generation pairs a built index with the exact chunk set it was built from.
// Positions returned by Index are positions in Chunks.
type Generation struct {
	ID        string
	Model     string
	Documents int
	BuiltAt   time.Time
	Chunks    []domain.Chunk
	Index     *FlatIndex
}

// NewGeneration verifies that idx was built from chunks, position by
// position, and stamps a fresh generation ID.
func NewGeneration(chunks []domain.Chunk, idx *FlatIndex) (*Generation, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: nil index", domain.ErrInvalidArgument)
	}
	if len(chunks) != idx.Len() {
		return nil, fmt.Errorf("%w: index holds %d vectors for %d chunks", domain.ErrIndexCorruption, idx.Len(), len(chunks))
	}
	for pos, c := range chunks {
		if id, _ := idx.ChunkID(pos); id != c.ID {
			return nil, fmt.Errorf("%w: position %d holds chunk %q, expected %q", domain.ErrIndexCorruption, pos, id, c.ID)
		}
	}

	return &Generation{
		ID:      uuid.NewString(),
		BuiltAt: time.Now().UTC(),
		Chunks:  chunks,
		Index:   idx,
	}, nil
}

// ChunkAt maps an index position back to its chunk.
func (g *Generation) ChunkAt(pos int) (domain.Chunk, error) {
	c, err := ChunkAt(g.Chunks, g.Index, pos)
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("generation %s: %w", g.ID, err)
	}
	return c, nil
}

// ChunkAt resolves pos against chunks. A position outside the chunk set, or
// one whose stored chunk ID disagrees with the chunk found there, means the
// index and the chunks are out of sync.
func ChunkAt(chunks []domain.Chunk, idx port.VectorIndex, pos int) (domain.Chunk, error) {
	if pos < 0 || pos >= len(chunks) {
		return domain.Chunk{}, fmt.Errorf("%w: position %d outside %d chunks", domain.ErrIndexCorruption, pos, len(chunks))
	}
	c := chunks[pos]
	if id, ok := idx.ChunkID(pos); !ok || id != c.ID {
		return domain.Chunk{}, fmt.Errorf("%w: position %d holds chunk %q, index stores %q", domain.ErrIndexCorruption, pos, c.ID, id)
	}
	return c, nil
}

// Handle publishes the current generation. Readers only ever observe a fully
// built generation.
type Handle struct {
	cur atomic.Pointer[Generation]
}

func NewHandle() *Handle {
	return &Handle{}
}

// Publish swaps in gen and returns the generation it replaced, if any.
func (h *Handle) Publish(gen *Generation) *Generation {
	return h.cur.Swap(gen)
}

// Current returns the published generation.
func (h *Handle) Current() (*Generation, error) {
	gen := h.cur.Load()
	if gen == nil {
		return nil, domain.ErrIndexNotBuilt
	}
	return gen, nil
}
