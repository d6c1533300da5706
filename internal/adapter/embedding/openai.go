package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"assessrag/internal/domain"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOllamaBaseURL = "http://localhost:11434/v1"
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimension  int
	batchSize  int
	maxRetries int
}

// OpenAIOptions configures an OpenAIEmbedder.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimension  int // used when the model is not a known one
	BatchSize  int
	MaxRetries int
	Timeout    time.Duration
}

func NewOpenAIEmbedder(apiKeyEnv string, opts OpenAIOptions) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key not found in environment variable %s", domain.ErrConfiguration, apiKeyEnv)
	}
	opts.APIKey = apiKey
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOpenAIBaseURL
	}
	return newOpenAICompatible(opts)
}

// NewOllamaEmbedder talks to a local Ollama server through its OpenAI
// compatible API. No key is required.
func NewOllamaEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	opts.APIKey = "ollama"
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOllamaBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	return newOpenAICompatible(opts)
}

func newOpenAICompatible(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("%w: embedding model is required", domain.ErrConfiguration)
	}

	dimension := knownDimension(opts.Model)
	if dimension == 0 {
		dimension = opts.Dimension
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: unknown dimension for model %s", domain.ErrConfiguration, opts.Model)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(opts.APIKey)
	clientCfg.BaseURL = opts.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      opts.Model,
		dimension:  dimension,
		batchSize:  opts.BatchSize,
		maxRetries: opts.MaxRetries,
	}, nil
}

func knownDimension(model string) int {
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm", "all-MiniLM-L6-v2":
		return 384
	}
	return 0
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	op := func() error {
		embeddings, err := e.embedBatch(ctx, texts)
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = embeddings
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(e.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			continue
		}
		v := make([]float32, len(data.Embedding))
		for i, x := range data.Embedding {
			v[i] = float32(x)
		}
		embeddings[data.Index] = v
	}

	for i, v := range embeddings {
		if v == nil {
			return nil, fmt.Errorf("embedding response missing item %d", i)
		}
		if len(v) != e.dimension {
			return nil, fmt.Errorf("%w: model %s returned %d values, expected %d", domain.ErrDimensionMismatch, e.model, len(v), e.dimension)
		}
	}

	return embeddings, nil
}

// retryable reports whether an API failure is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, domain.ErrDimensionMismatch) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
