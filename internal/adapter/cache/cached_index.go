package cache

import (
	"context"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.IndexStore = (*CachedIndexStore)(nil)

// CachedIndexStore answers repeated queries from a QueryCache and drops the
// cache whenever the index changes.
type CachedIndexStore struct {
	port.IndexStore
	cache port.QueryCache
}

func NewCachedIndexStore(index port.IndexStore, cache port.QueryCache) *CachedIndexStore {
	return &CachedIndexStore{
		IndexStore: index,
		cache:      cache,
	}
}

func (s *CachedIndexStore) Add(ctx context.Context, chunks []domain.Chunk, progress func(done, total int)) error {
	defer s.cache.Invalidate(ctx)
	return s.IndexStore.Add(ctx, chunks, progress)
}

func (s *CachedIndexStore) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	if results, hit := s.cache.Get(ctx, text, k); hit {
		return results, nil
	}

	results, err := s.IndexStore.Query(ctx, text, k)
	if err != nil {
		return nil, err
	}

	s.cache.Put(ctx, text, k, results)
	return results, nil
}

func (s *CachedIndexStore) Reset() error {
	defer s.cache.Invalidate(context.Background())
	return s.IndexStore.Reset()
}
