package port

import (
	"context"

	"docqa/internal/domain"
)

// QueryCache stores retrieval results per (question, k).
type QueryCache interface {
	Get(ctx context.Context, query string, k int) ([]domain.ScoredChunk, bool)
	Put(ctx context.Context, query string, k int, results []domain.ScoredChunk)

	// Invalidate drops every entry; called whenever the index changes.
	Invalidate(ctx context.Context)
}
