package usecase

import (
	"context"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// DefaultTopK is used when a caller passes k <= 0.
const DefaultTopK = 3

// RetrieveUseCase handles search and retrieval operations.
type RetrieveUseCase struct {
	index             port.IndexStore
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(index port.IndexStore, minScoreThreshold float64) *RetrieveUseCase {
	return &RetrieveUseCase{
		index:             index,
		minScoreThreshold: minScoreThreshold,
	}
}

// Retrieve returns the topK chunks most similar to the query.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	results, err := u.index.Query(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	if u.minScoreThreshold > 0 {
		results = u.filterByThreshold(results)
	}

	return results, nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredChunk) []domain.ScoredChunk {
	filtered := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ScoredChunkResult is a simplified result for CLI output.
type ScoredChunkResult struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// ToResults converts scored chunks to CLI output format.
func ToResults(chunks []domain.ScoredChunk) []ScoredChunkResult {
	results := make([]ScoredChunkResult, len(chunks))
	for i, c := range chunks {
		results[i] = ScoredChunkResult{
			Source: c.Chunk.Source(),
			Score:  c.Score,
			Text:   c.Chunk.Text,
		}
	}
	return results
}
