package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/config"
	"docqa/internal/domain"
)

type embeddingServer struct {
	*httptest.Server
	requests atomic.Int32
}

// newEmbeddingServer answers each input with a vector of the given dimension
// whose first component is the input's index. Data entries are returned in
// reverse order.
func newEmbeddingServer(t *testing.T, dimension func(call int32) int) *embeddingServer {
	t.Helper()
	s := &embeddingServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := s.requests.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
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

		dim := dimension(call)
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float64, dim)
			vec[0] = float64(i)
			data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vec})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestEmbedder(t *testing.T, baseURL string, cfg config.EmbeddingConfig) *OpenAIEmbedder {
	t.Helper()
	t.Setenv("DOCQA_TEST_KEY", "test-key")

	e, err := NewOpenAIEmbedder(config.ProviderConfig{
		BaseURL:    baseURL,
		APIKeyEnv:  "DOCQA_TEST_KEY",
		MaxRetries: 0,
	}, cfg)
	require.NoError(t, err)
	return e
}

func TestOpenAIEmbedder_MissingAPIKey(t *testing.T) {
	t.Setenv("DOCQA_TEST_KEY", "")

	_, err := NewOpenAIEmbedder(config.ProviderConfig{APIKeyEnv: "DOCQA_TEST_KEY"}, config.EmbeddingConfig{Model: "m"})
	assert.True(t, errors.Is(err, domain.ErrMissingAPIKey))
}

func TestOpenAIEmbedder_BatchesAndOrders(t *testing.T) {
	srv := newEmbeddingServer(t, func(int32) int { return 4 })
	e := newTestEmbedder(t, srv.URL, config.EmbeddingConfig{Model: "text-embedding-004", BatchSize: 2})

	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 5)

	assert.EqualValues(t, 3, srv.requests.Load())
	// first component is the index within each batch
	expected := []float32{0, 1, 0, 1, 0}
	for i, vec := range vectors {
		assert.Len(t, vec, 4)
		assert.Equal(t, expected[i], vec[0], "vector %d", i)
	}
	assert.Equal(t, 4, e.Dimension())
	assert.Equal(t, "text-embedding-004", e.ModelName())
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	srv := newEmbeddingServer(t, func(int32) int { return 4 })
	e := newTestEmbedder(t, srv.URL, config.EmbeddingConfig{Model: "m"})

	vectors, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, srv.requests.Load())
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	srv := newEmbeddingServer(t, func(call int32) int { return 3 + int(call) })
	e := newTestEmbedder(t, srv.URL, config.EmbeddingConfig{Model: "m", BatchSize: 1})

	_, err := e.Embed(context.Background(), []string{"a", "b"})
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestOpenAIEmbedder_ConfiguredDimension(t *testing.T) {
	srv := newEmbeddingServer(t, func(int32) int { return 8 })
	e := newTestEmbedder(t, srv.URL, config.EmbeddingConfig{Model: "m", Dimension: 16})

	assert.Equal(t, 16, e.Dimension())
	_, err := e.Embed(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	e := newTestEmbedder(t, srv.URL, config.EmbeddingConfig{Model: "m"})
	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "embedding request failed")
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(64)

	a, err := e.Embed(context.Background(), []string{"vacation days per year"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"vacation days per year"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a[0], 64)
	assert.Equal(t, 64, e.Dimension())
	assert.Equal(t, "mock", e.ModelName())
}

func TestMockEmbedder_SharedWordsScoreHigher(t *testing.T) {
	e := NewMockEmbedder(0)

	vecs, err := e.Embed(context.Background(), []string{
		"How many vacation days do employees get?",
		"Employees get 15 vacation days per year.",
		"The office closes at noon on Fridays.",
	})
	require.NoError(t, err)

	dot := func(a, b []float32) float64 {
		var s float64
		for i := range a {
			s += float64(a[i]) * float64(b[i])
		}
		return s
	}
	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestMockEmbedder_EmptyText(t *testing.T) {
	vecs, err := NewMockEmbedder(8).Embed(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vecs[0])
}
