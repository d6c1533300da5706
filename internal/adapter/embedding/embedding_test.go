package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessrag/config"
	"assessrag/internal/domain"
)

func l2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i] - b[i])
		s += d * d
	}
	return math.Sqrt(s)
}

func TestHashEmbedderDeterministicAndNormalised(t *testing.T) {
	e, err := NewHashEmbedder(64)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := e.Embed(ctx, []string{"Numerical reasoning test for analysts"})
	require.NoError(t, err)
	b, err := e.Embed(ctx, []string{"Numerical reasoning test for analysts"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	require.Len(t, a[0], 64)

	var norm float64
	for _, v := range a[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
	assert.Equal(t, "hash-64", e.ModelName())
}

func TestHashEmbedderSimilarity(t *testing.T) {
	e, err := NewHashEmbedder(256)
	require.NoError(t, err)
	vecs, err := e.Embed(context.Background(), []string{
		"Java programming skills assessment",
		"assessment of Java programming",
		"customer service phone simulation",
	})
	require.NoError(t, err)

	assert.Less(t, l2(vecs[0], vecs[1]), l2(vecs[0], vecs[2]))
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e, err := NewHashEmbedder(8)
	require.NoError(t, err)
	vecs, err := e.Embed(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vecs[0])
}

func TestHashEmbedderRejectsNonPositiveDimension(t *testing.T) {
	for _, dim := range []int{0, -1} {
		_, err := NewHashEmbedder(dim)
		assert.ErrorIs(t, err, domain.ErrConfiguration, "dimension %d", dim)
	}
}

func TestNewFromConfig(t *testing.T) {
	ec := config.DefaultConfig().Embedding
	e, err := New(ec)
	require.NoError(t, err)
	assert.Equal(t, ec.Dimension, e.Dimension())

	ec.Dimension = 0
	_, err = New(ec)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	ec.Provider = "word2vec"
	_, err = New(ec)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

type countingEmbedder struct {
	calls atomic.Int32
	texts atomic.Int32
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	c.texts.Add(int32(len(texts)))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (c *countingEmbedder) Dimension() int    { return 1 }
func (c *countingEmbedder) ModelName() string { return "counting" }

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	cached, err := NewCachedEmbedder(inner, 8)
	require.NoError(t, err)
	ctx := context.Background()

	v1, err := cached.Embed(ctx, []string{"java"})
	require.NoError(t, err)
	v2, err := cached.Embed(ctx, []string{"java"})
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), inner.calls.Load())

	out, err := cached.Embed(ctx, []string{"java", "python", "go"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{4}, {6}, {2}}, out)
	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, int32(3), inner.texts.Load(), "only misses reach the inner embedder")
	assert.Equal(t, 3, cached.Len())

	cached.Purge()
	assert.Equal(t, 0, cached.Len())
	assert.Equal(t, "counting", cached.ModelName())
	assert.Equal(t, 1, cached.Dimension())
}

func embeddingServer(t *testing.T, dim int, failFirst int, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if int(n) <= failFirst {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"try later","type":"server_error"}}`))
			return
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string `json:"object"`
			Data   []item `json:"data"`
			Model  string `json:"model"`
		}{Object: "list", Model: req.Model}

		// answer out of order to exercise index mapping
		for i := len(req.Input) - 1; i >= 0; i-- {
			v := make([]float32, dim)
			v[0] = float32(i)
			resp.Data = append(resp.Data, item{Object: "embedding", Embedding: v, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestOpenAIEmbedderBatchesAndOrders(t *testing.T) {
	srv, hits := embeddingServer(t, 4, 0, 0)
	t.Setenv("TEST_EMBED_KEY", "sk-test")

	e, err := NewOpenAIEmbedder("TEST_EMBED_KEY", OpenAIOptions{
		BaseURL:   srv.URL,
		Model:     "custom-model",
		Dimension: 4,
		BatchSize: 2,
	})
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, float32(0), vecs[0][0])
	assert.Equal(t, float32(1), vecs[1][0])
	assert.Equal(t, float32(0), vecs[2][0], "second batch restarts its indices")
	assert.Equal(t, int32(2), hits.Load())
}

func TestOpenAIEmbedderRetriesServerErrors(t *testing.T) {
	srv, hits := embeddingServer(t, 2, 1, http.StatusInternalServerError)
	t.Setenv("TEST_EMBED_KEY", "sk-test")

	e, err := NewOpenAIEmbedder("TEST_EMBED_KEY", OpenAIOptions{
		BaseURL:    srv.URL,
		Model:      "custom-model",
		Dimension:  2,
		MaxRetries: 2,
	})
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestOpenAIEmbedderDoesNotRetryClientErrors(t *testing.T) {
	srv, hits := embeddingServer(t, 2, 5, http.StatusBadRequest)
	t.Setenv("TEST_EMBED_KEY", "sk-test")

	e, err := NewOpenAIEmbedder("TEST_EMBED_KEY", OpenAIOptions{
		BaseURL:    srv.URL,
		Model:      "custom-model",
		Dimension:  2,
		MaxRetries: 3,
	})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAIEmbedderDimensionMismatch(t *testing.T) {
	srv, _ := embeddingServer(t, 3, 0, 0)
	t.Setenv("TEST_EMBED_KEY", "sk-test")

	e, err := NewOpenAIEmbedder("TEST_EMBED_KEY", OpenAIOptions{
		BaseURL:   srv.URL,
		Model:     "custom-model",
		Dimension: 5,
	})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestOpenAIEmbedderRequiresKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewOpenAIEmbedder("TEST_EMBED_KEY", OpenAIOptions{Model: "text-embedding-3-small"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestKnownDimension(t *testing.T) {
	e, err := NewOllamaEmbedder(OpenAIOptions{Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.Equal(t, 768, e.Dimension())
	assert.Equal(t, "nomic-embed-text", e.ModelName())

	_, err = NewOllamaEmbedder(OpenAIOptions{Model: "mystery"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
