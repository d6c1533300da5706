package usecase

import (
	"context"
	"fmt"
	"time"

	"assessrag/internal/adapter/index"
	"assessrag/internal/adapter/store"
	"assessrag/internal/port"
)

// ProgressFunc reports embedding progress in chunks.
type ProgressFunc func(done, total int)

// IndexUseCase builds, persists and publishes index generations.
type IndexUseCase struct {
	source     port.DocumentSource
	chunker    port.Chunker
	embedder   port.Embedder
	store      *store.BoltStore
	handle     *index.Handle
	batchSize  int
	configHash string
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	source port.DocumentSource,
	chunker port.Chunker,
	embedder port.Embedder,
	store *store.BoltStore,
	handle *index.Handle,
	batchSize int,
	configHash string,
) *IndexUseCase {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &IndexUseCase{
		source:     source,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		handle:     handle,
		batchSize:  batchSize,
		configHash: configHash,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	Documents    int
	Chunks       int
	Dimension    int
	Model        string
	GenerationID string
	Duration     time.Duration
}

// Build runs the full pipeline: documents, chunks, embeddings, index. The new
// generation is saved before it is published, and nothing is published when
// any step fails.
func (u *IndexUseCase) Build(ctx context.Context, progress ProgressFunc) (*IndexResult, error) {
	start := time.Now()

	docs, err := u.source.Documents()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	chunks, err := u.chunker.Chunk(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk documents: %w", err)
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		texts[i] = c.Text
	}

	vectors, err := u.embedAll(ctx, texts, progress)
	if err != nil {
		return nil, err
	}

	idx, err := index.Build(ids, vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	gen, err := index.NewGeneration(chunks, idx)
	if err != nil {
		return nil, err
	}
	gen.Model = u.embedder.ModelName()
	gen.Documents = len(docs)

	if u.store != nil {
		if err := u.store.SaveGeneration(gen, u.configHash); err != nil {
			return nil, fmt.Errorf("failed to save generation: %w", err)
		}
	}
	if u.handle != nil {
		u.handle.Publish(gen)
	}

	return &IndexResult{
		Documents:    len(docs),
		Chunks:       len(chunks),
		Dimension:    idx.Dimension(),
		Model:        gen.Model,
		GenerationID: gen.ID,
		Duration:     time.Since(start),
	}, nil
}

func (u *IndexUseCase) embedAll(ctx context.Context, texts []string, progress ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += u.batchSize {
		end := min(start+u.batchSize, len(texts))

		batch, err := u.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start)
		}
		vectors = append(vectors, batch...)

		if progress != nil {
			progress(end, len(texts))
		}
	}
	return vectors, nil
}

// LoadStored reads the persisted generation and publishes it.
func LoadStored(st *store.BoltStore, handle *index.Handle) (*index.Generation, error) {
	gen, err := st.LoadGeneration()
	if err != nil {
		return nil, err
	}
	handle.Publish(gen)
	return gen, nil
}
