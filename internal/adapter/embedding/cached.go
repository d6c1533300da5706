package embedding

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"assessrag/internal/port"
)

// CachedEmbedder memoises embeddings per text. Repeated queries skip the
// model entirely. Cached vectors are shared and must not be modified.
type CachedEmbedder struct {
	inner port.Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(inner port.Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if v, ok := c.cache.Get(c.key(text)); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	embedded, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = embedded[j]
		c.cache.Add(c.key(missTexts[j]), embedded[j])
	}
	return out, nil
}

func (c *CachedEmbedder) key(text string) string {
	return c.inner.ModelName() + "\x00" + text
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

// Purge drops every cached embedding.
func (c *CachedEmbedder) Purge() {
	c.cache.Purge()
}

func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}
