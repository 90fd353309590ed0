package port

import (
	"context"

	"docqa/internal/domain"
)

// IndexStore is the embedding/index store: it embeds chunks on insert and
// embeds the question on query.
type IndexStore interface {
	// Add embeds and stores chunks. progress, when not nil, is called after
	// each embedding batch with the number of chunks embedded so far.
	Add(ctx context.Context, chunks []domain.Chunk, progress func(done, total int)) error

	// Query returns the top-k chunks by decreasing similarity. An index that
	// was never populated yields no results and no error.
	Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error)

	IsEmpty() bool

	Reset() error
}
