package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docqa/config"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/store"
	"docqa/internal/port"
)

func main() {
	rootDir := flag.String("dir", ".", "Root directory holding docqa.yaml and the index")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, index fingerprint)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	vectors, err := store.NewBoltVectorStore(cfg.IndexPath(*rootDir), embedder.ModelName(), embedder.Dimension(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer vectors.Close()

	index := store.NewIndexStore(embedder, vectors, nil)
	if index.IsEmpty() {
		fmt.Fprintln(os.Stderr, "No embeddings - run 'docqa ingest' first")
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	stats := index.Stats()
	fmt.Printf("Chunks indexed: %d\n", stats.TotalChunks)
	fmt.Printf("Model: %s (%s)\n", stats.Fingerprint.EmbeddingModel, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", stats.Fingerprint.Dimension)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := index.Query(context.Background(), *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := []rune(r.Chunk.Text)
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}

		similarity := r.Score
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating, similarity, filepath.Base(r.Chunk.Source()))
		fmt.Printf("   %s\n\n", strings.ReplaceAll(string(preview), "\n", " "))
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - retrieval working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need smaller chunks or re-ingesting")
	}
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Provider, cfg.Embedding)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
