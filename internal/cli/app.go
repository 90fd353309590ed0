package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docqa/config"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/fs"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/store"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

// app holds the components a command needs, built from the loaded config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	dataDir string

	vectors  *store.BoltVectorStore
	index    *store.IndexStore
	cached   port.IndexStore
	indexer  *usecase.IndexUseCase
	retrieve *usecase.RetrieveUseCase
	answer   *usecase.AnswerUseCase
	chat     *usecase.ChatService

	closers []func() error
}

// newApp builds the full pipeline. The chat model is only created when
// withLLM is set, so commands that never generate answers run without it.
func newApp(cfg *config.Config, root string, withLLM bool, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		dataDir: cfg.DataPath(root),
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	split, err := chunker.NewRecursiveChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	a.vectors, err = store.NewBoltVectorStore(cfg.IndexPath(root), embedder.ModelName(), embedder.Dimension(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	a.closers = append(a.closers, a.vectors.Close)

	a.index = store.NewIndexStore(embedder, a.vectors, logger)
	a.cached = a.index

	queryCache, closeCache := newQueryCache(cfg.Cache, cfg.IndexPath(root), logger)
	if queryCache != nil {
		a.cached = cache.NewCachedIndexStore(a.index, queryCache)
	}
	if closeCache != nil {
		a.closers = append(a.closers, closeCache)
	}

	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	loader := fs.NewLoader(walker, logger)
	a.indexer = usecase.NewIndexUseCase(loader, split, a.cached, logger)
	a.retrieve = usecase.NewRetrieveUseCase(a.cached, cfg.Retrieve.MinScore)

	var model port.LLM
	if withLLM {
		chat, err := llm.NewOpenAIChat(cfg.Provider, cfg.LLM)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		model = chat
	}
	a.answer = usecase.NewAnswerUseCase(a.retrieve, model, cfg.LLM.HistoryTurns, logger)
	a.chat = usecase.NewChatService(a.indexer, a.answer, a.cached, a.dataDir, cfg.Retrieve.TopK, logger)

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Provider, cfg.Embedding)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// newQueryCache returns nil when caching is disabled. An unreachable Redis
// server disables caching rather than failing the command. Redis keys are
// scoped to the index at indexPath.
func newQueryCache(cfg config.CacheConfig, indexPath string, logger *slog.Logger) (port.QueryCache, func() error) {
	ttl := time.Duration(cfg.TTLSecs) * time.Second

	switch cfg.Type {
	case "redis":
		client := cache.NewRedisClient(cfg.Redis)
		rc := cache.NewRedisCache(client, cache.ScopedPrefix(cfg.Redis.Prefix, indexPath), ttl, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("query cache disabled", "addr", cfg.Redis.Addr, "error", err)
			client.Close()
			return nil, nil
		}
		return rc, rc.Close
	case "none":
		return nil, nil
	default:
		return cache.NewQueryCache(cfg.Size, ttl), nil
	}
}

// openIndexOnly opens the index without an embedder. The stored fingerprint
// is kept whatever model produced it.
func openIndexOnly(cfg *config.Config, root string, logger *slog.Logger) (*store.BoltVectorStore, error) {
	vectors, err := store.NewBoltVectorStore(cfg.IndexPath(root), "", 0, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return vectors, nil
}
