package embedding

import (
	"fmt"

	"assessrag/config"
	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// New creates the embedder named by ec.Provider. The result is not cached.
func New(ec config.EmbeddingConfig) (port.Embedder, error) {
	opts := OpenAIOptions{
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimension:  ec.Dimension,
		BatchSize:  ec.BatchSize,
		MaxRetries: ec.MaxRetries,
	}

	var (
		embedder port.Embedder
		err      error
	)
	switch ec.Provider {
	case "hash":
		embedder, err = NewHashEmbedder(ec.Dimension)
	case "openai":
		embedder, err = NewOpenAIEmbedder(ec.APIKeyEnv, opts)
	case "ollama":
		embedder, err = NewOllamaEmbedder(opts)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrConfiguration, ec.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}
