package memstore

import (
	"fmt"
	"sort"
	"sync"

	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.VectorStore = (*MemoryStore)(nil)

// MemoryStore is a VectorStore that keeps nothing on disk.
type MemoryStore struct {
	mu          sync.RWMutex
	model       string
	items       []port.VectorItem
	fingerprint domain.Fingerprint
}

func NewMemoryStore(model string) *MemoryStore {
	return &MemoryStore{model: model}
}

func (s *MemoryStore) Add(items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dimension := s.fingerprint.Dimension
	if dimension == 0 {
		dimension = len(items[0].Vector)
	}
	for i, item := range items {
		if len(item.Vector) != dimension {
			return fmt.Errorf("%w: item %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(item.Vector), dimension)
		}
	}

	s.fingerprint = domain.Fingerprint{
		SchemaVersion:  store.CurrentSchemaVersion,
		EmbeddingModel: s.model,
		Dimension:      dimension,
		Metric:         store.MetricCosine,
	}
	s.items = append(s.items, items...)
	return nil
}

func (s *MemoryStore) Search(query []float32, k int) ([]port.VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.items) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != s.fingerprint.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), s.fingerprint.Dimension)
	}

	results := make([]port.VectorResult, len(s.items))
	for i, item := range s.items {
		results[i] = port.VectorResult{
			Text:     item.Text,
			Metadata: item.Metadata,
			Score:    store.CosineSimilarity(query, item.Vector),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results[:min(k, len(results))], nil
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) Fingerprint() (domain.Fingerprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprint, len(s.items) > 0
}

func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.fingerprint = domain.Fingerprint{}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
