package port

import "docqa/internal/domain"

type Chunker interface {
	Split(docs []domain.RawDocument) []domain.Chunk
}
