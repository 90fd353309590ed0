package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"golang.org/x/time/rate"

	"docqa/config"
	"docqa/internal/adapter/openaiapi"
	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.Embedder = (*OpenAIEmbedder)(nil)

const defaultBatchSize = 100

// OpenAIEmbedder calls the embeddings endpoint of an OpenAI-compatible API.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	batchSize int
	limiter   *rate.Limiter

	mu        sync.RWMutex
	dimension int
}

func NewOpenAIEmbedder(provider config.ProviderConfig, cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	client, err := openaiapi.NewClient(provider)
	if err != nil {
		return nil, err
	}
	return newOpenAIEmbedder(client, cfg), nil
}

func newOpenAIEmbedder(client openai.Client, cfg config.EmbeddingConfig) *OpenAIEmbedder {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &OpenAIEmbedder{
		client:    client,
		model:     cfg.Model,
		batchSize: batchSize,
		limiter:   limiter,
		dimension: cfg.Dimension,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		embeddings, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(embeddings) {
			continue
		}
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		embeddings[data.Index] = vec
	}

	for i, vec := range embeddings {
		if vec == nil {
			return nil, fmt.Errorf("embedding response is missing input %d", i)
		}
		if err := e.checkDimension(len(vec)); err != nil {
			return nil, err
		}
	}

	return embeddings, nil
}

// checkDimension learns the dimension from the first vector when it was not
// configured, and rejects any vector that disagrees afterwards.
func (e *OpenAIEmbedder) checkDimension(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dimension == 0 {
		e.dimension = n
		return nil
	}
	if n != e.dimension {
		return fmt.Errorf("%w: model %s returned %d, expected %d", domain.ErrDimensionMismatch, e.model, n, e.dimension)
	}
	return nil
}

func (e *OpenAIEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
