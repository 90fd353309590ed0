package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/adapter/embedding"
	"docqa/internal/domain"
	"docqa/internal/logging"
)

type countingEmbedder struct {
	*embedding.MockEmbedder
	calls atomic.Int32
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return e.MockEmbedder.Embed(ctx, texts)
}

func newTestIndex(t *testing.T) (*IndexStore, *countingEmbedder) {
	t.Helper()
	emb := &countingEmbedder{MockEmbedder: embedding.NewMockEmbedder(64)}
	vectors := openTestStore(t, filepath.Join(t.TempDir(), "index.db"), emb.ModelName(), emb.Dimension())
	return NewIndexStore(emb, vectors, logging.Discard()), emb
}

func chunk(text, source string) domain.Chunk {
	return domain.Chunk{Text: text, Metadata: map[string]string{domain.MetaSource: source}}
}

func TestIndexStore_QueryEmptyIndexSkipsEmbedder(t *testing.T) {
	idx, emb := newTestIndex(t)

	results, err := idx.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, emb.calls.Load())
	assert.True(t, idx.IsEmpty())
}

func TestIndexStore_AddAndQuery(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{
		chunk("Employees get 15 vacation days per year.", "data/policy.txt"),
		chunk("Health insurance starts on day one.", "data/benefits.txt"),
		chunk("The office closes at noon on Fridays.", "data/office.txt"),
	}, nil))
	assert.False(t, idx.IsEmpty())

	results, err := idx.Query(ctx, "How many vacation days do employees get?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "data/policy.txt", results[0].Chunk.Source())
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	stats := idx.Stats()
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, "mock", stats.Fingerprint.EmbeddingModel)
}

func TestIndexStore_AddEmptyIsNoop(t *testing.T) {
	idx, emb := newTestIndex(t)

	require.NoError(t, idx.Add(context.Background(), nil, nil))
	assert.Zero(t, emb.calls.Load())
	assert.True(t, idx.IsEmpty())
}

func TestIndexStore_EmbedErrorPropagates(t *testing.T) {
	idx, emb := newTestIndex(t)
	emb.err = errors.New("quota exceeded")

	err := idx.Add(context.Background(), []domain.Chunk{chunk("text", "a.txt")}, nil)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.True(t, idx.IsEmpty())
}

func TestIndexStore_Reset(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []domain.Chunk{chunk("text", "a.txt")}, nil))
	require.NoError(t, idx.Reset())
	require.NoError(t, idx.Reset())
	assert.True(t, idx.IsEmpty())

	results, err := idx.Query(ctx, "text", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexStore_AddReportsProgressPerBatch(t *testing.T) {
	idx, emb := newTestIndex(t)
	idx.batchSize = 2

	chunks := []domain.Chunk{
		chunk("one", "a.txt"), chunk("two", "a.txt"), chunk("three", "a.txt"),
		chunk("four", "b.txt"), chunk("five", "b.txt"),
	}
	var done []int
	require.NoError(t, idx.Add(context.Background(), chunks, func(n, total int) {
		assert.Equal(t, 5, total)
		done = append(done, n)
	}))

	assert.Equal(t, []int{2, 4, 5}, done)
	assert.Equal(t, int32(3), emb.calls.Load())
	assert.Equal(t, 5, idx.Stats().TotalChunks)
}

func TestIndexStore_FailedBatchStoresNothing(t *testing.T) {
	idx, _ := newTestIndex(t)
	idx.batchSize = 1
	failing := &failAfterEmbedder{MockEmbedder: embedding.NewMockEmbedder(64), okCalls: 1}
	idx.embedder = failing

	err := idx.Add(context.Background(), []domain.Chunk{chunk("one", "a.txt"), chunk("two", "a.txt")}, nil)
	assert.ErrorContains(t, err, "rate limited")
	assert.True(t, idx.IsEmpty())
}

// failAfterEmbedder fails every call after the first okCalls.
type failAfterEmbedder struct {
	*embedding.MockEmbedder
	okCalls int
	calls   int
}

func (e *failAfterEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.calls > e.okCalls {
		return nil, errors.New("rate limited")
	}
	return e.MockEmbedder.Embed(ctx, texts)
}
