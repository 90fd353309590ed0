package store

import (
	"context"
	"fmt"
	"log/slog"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.IndexStore = (*IndexStore)(nil)

// DefaultAddBatch is how many chunks Add embeds per call to the embedder.
const DefaultAddBatch = 100

// IndexStore embeds chunks on insert and questions on query, delegating
// storage and similarity search to a VectorStore.
type IndexStore struct {
	embedder  port.Embedder
	vectors   port.VectorStore
	batchSize int
	logger    *slog.Logger
}

func NewIndexStore(embedder port.Embedder, vectors port.VectorStore, logger *slog.Logger) *IndexStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexStore{
		embedder:  embedder,
		vectors:   vectors,
		batchSize: DefaultAddBatch,
		logger:    logger,
	}
}

// Add embeds the chunks batch by batch and stores all of them together once
// every batch succeeded.
func (s *IndexStore) Add(ctx context.Context, chunks []domain.Chunk, progress func(done, total int)) error {
	if len(chunks) == 0 {
		s.logger.Info("no chunks to add")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch, err := s.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
		if progress != nil {
			progress(end, len(texts))
		}
	}

	items := make([]port.VectorItem, len(chunks))
	for i, c := range chunks {
		items[i] = port.VectorItem{
			Vector:   vectors[i],
			Text:     c.Text,
			Metadata: c.Metadata,
		}
	}

	if err := s.vectors.Add(items); err != nil {
		return err
	}
	s.logger.Info("chunks indexed", "added", len(items), "total", s.vectors.Count())
	return nil
}

// Query returns the k chunks most similar to text. The embedder is not
// called when the index is empty.
func (s *IndexStore) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	if s.vectors.Count() == 0 || k <= 0 {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	results, err := s.vectors.Search(vectors[0], k)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.ScoredChunk, len(results))
	for i, r := range results {
		chunks[i] = domain.ScoredChunk{
			Chunk: domain.Chunk{Text: r.Text, Metadata: r.Metadata},
			Score: r.Score,
		}
	}
	return chunks, nil
}

func (s *IndexStore) IsEmpty() bool {
	return s.vectors.Count() == 0
}

func (s *IndexStore) Reset() error {
	return s.vectors.Reset()
}

func (s *IndexStore) Stats() domain.Stats {
	fp, _ := s.vectors.Fingerprint()
	return domain.Stats{
		TotalChunks: s.vectors.Count(),
		Fingerprint: fp,
	}
}

func (s *IndexStore) Close() error {
	return s.vectors.Close()
}
