package port

import (
	"context"

	"docqa/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension, or 0 when it is
	// only known after the first call.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores embedding vectors with their chunk text and searches them.
type VectorStore interface {
	// Add appends records to the store in order.
	Add(items []VectorItem) error

	// Search finds the k nearest vectors to the query.
	Search(query []float32, k int) ([]VectorResult, error)

	// Count returns the number of vectors in the store.
	Count() int

	// Fingerprint returns how the stored vectors were produced.
	Fingerprint() (domain.Fingerprint, bool)

	// Reset removes every vector and the persisted state behind them.
	Reset() error

	Close() error
}

// VectorItem represents a vector to be stored.
type VectorItem struct {
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// VectorResult represents a search result.
type VectorResult struct {
	Text     string
	Metadata map[string]string
	Score    float64 // Similarity score (higher is better)
}
