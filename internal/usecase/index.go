package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// Ingestion stages reported to a ProgressFunc.
const (
	StageLoading   = "loading"
	StageChunking  = "chunking"
	StageEmbedding = "embedding"
	StageDone      = "done"
)

// ProgressFunc receives the current stage and how far it has got.
type ProgressFunc func(stage string, current, total int)

// IndexUseCase handles document ingestion: load, chunk, embed and store.
type IndexUseCase struct {
	loader  port.DocumentLoader
	chunker port.Chunker
	index   port.IndexStore
	logger  *slog.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	index port.IndexStore,
	logger *slog.Logger,
) *IndexUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexUseCase{
		loader:  loader,
		chunker: chunker,
		index:   index,
		logger:  logger,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesFound      int
	DocumentsLoaded int
	ChunksCreated   int
	Errors          []string
}

// Index ingests every document under dir. When no chunk is produced nothing
// is stored and domain.ErrNoDocuments is returned with the partial result.
func (u *IndexUseCase) Index(ctx context.Context, dir string, progress ProgressFunc) (*IndexResult, error) {
	if progress == nil {
		progress = func(string, int, int) {}
	}

	progress(StageLoading, 0, 0)
	loaded, err := u.loader.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	result := &IndexResult{
		FilesFound:      loaded.FilesFound,
		DocumentsLoaded: len(loaded.Documents),
		Errors:          loaded.Errors,
	}
	progress(StageLoading, result.DocumentsLoaded, result.FilesFound)

	chunks := u.chunker.Split(loaded.Documents)
	result.ChunksCreated = len(chunks)
	progress(StageChunking, len(chunks), len(chunks))

	if len(chunks) == 0 {
		u.logger.Warn("no chunks produced", "dir", dir, "files", result.FilesFound)
		return result, domain.ErrNoDocuments
	}

	progress(StageEmbedding, 0, len(chunks))
	err = u.index.Add(ctx, chunks, func(done, total int) {
		progress(StageEmbedding, done, total)
	})
	if err != nil {
		return result, fmt.Errorf("failed to index chunks: %w", err)
	}

	u.logger.Info("ingestion complete",
		"dir", dir,
		"documents", result.DocumentsLoaded,
		"chunks", result.ChunksCreated,
		"errors", len(result.Errors))
	progress(StageDone, len(chunks), len(chunks))

	return result, nil
}
