package cli

import (
	"assessrag/config"
	"assessrag/internal/adapter/embedding"
	"assessrag/internal/port"
)

// newEmbedder creates the configured embedder. Query paths ask for the LRU
// wrapper; index builds embed every chunk once and skip it.
func newEmbedder(cfg *config.Config, cached bool) (port.Embedder, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	if cached && cfg.Embedding.CacheSize > 0 {
		return embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}
	return embedder, nil
}
