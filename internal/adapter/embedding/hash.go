package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"assessrag/internal/adapter/analyzer"
	"assessrag/internal/domain"
)

// HashEmbedder is a deterministic, offline embedder. Stemmed tokens and
// adjacent token pairs are hashed into a fixed number of signed buckets and
// the result is L2-normalised, so texts sharing vocabulary land close
// together. It needs no model download and no network.
type HashEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(dimension int) (*HashEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: hash embedder needs a positive dimension, got %d", domain.ErrConfiguration, dimension)
	}
	return &HashEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(true),
	}, nil
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embedOne(text)
	}
	return embeddings, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	tokens := e.tokenizer.Tokenize(text)

	for i, tok := range tokens {
		e.add(vec, tok, 1.0)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dimension)
}
