// Command marianalyzer is the document pattern analysis CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ilygos/marianalyzer/internal/adapters/driven/embedding/ollama"
	"github.com/Ilygos/marianalyzer/internal/adapters/driven/index/lexical"
	"github.com/Ilygos/marianalyzer/internal/adapters/driven/index/vector"
	llmollama "github.com/Ilygos/marianalyzer/internal/adapters/driven/llm/ollama"
	"github.com/Ilygos/marianalyzer/internal/adapters/driven/parser"
	"github.com/Ilygos/marianalyzer/internal/adapters/driven/storage/sqlite"
	"github.com/Ilygos/marianalyzer/internal/adapters/driving/cli"
	"github.com/Ilygos/marianalyzer/internal/config"
	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/services"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("MARIANALYZER_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close()

	docs := store.DocumentStore()
	patterns := store.PatternStore()
	families := store.FamilyStore()

	embedder := ollama.NewEmbeddingService(ollama.Config{
		BaseURL: cfg.OllamaHost,
		Model:   cfg.EmbedModel,
	})
	defer embedder.Close()

	llm := llmollama.NewLLMService(llmollama.LLMConfig{
		BaseURL: cfg.OllamaHost,
		Model:   cfg.LLMModel,
	})
	defer llm.Close()

	lexIndex := lexical.NewBM25Index()
	if err := lexIndex.Load(cfg.LexicalPath); err != nil && !errors.Is(err, domain.ErrIndexNotReady) {
		logger.Warn("Loading lexical index: %v", err)
	}
	vecIndex := vector.NewDiskStore(cfg.VectorPath, cfg.Namespace)

	registry := parser.NewRegistry(parser.ChunkConfig{
		Size:    cfg.ChunkSize,
		Overlap: cfg.ChunkOverlap,
	})

	retriever := services.NewHybridRetriever(lexIndex, vecIndex, embedder, docs,
		services.RetrieverConfig{
			LexicalTopK: cfg.LexicalTopK,
			VectorTopK:  cfg.VectorTopK,
			RRFConstant: cfg.RRFConstant,
		})

	svcs := cli.Services{
		Ingest: services.NewIngestor(docs, registry),
		Index: services.NewIndexBuilder(docs, lexIndex, vecIndex, embedder,
			services.IndexBuilderConfig{
				LexicalPath:    cfg.LexicalPath,
				EmbedBatchSize: cfg.EmbedBatchSize,
			}),
		Extract: services.NewPatternExtractor(docs, patterns, llm,
			services.ExtractorConfig{
				ConfidenceThreshold: cfg.ConfidenceThreshold,
			}),
		Aggregate: services.NewFamilyBuilder(patterns, families, docs, embedder,
			services.FamilyBuilderConfig{
				ClusteringThreshold: cfg.ClusteringThreshold,
				MinClusterSize:      cfg.MinClusterSize,
				EmbedBatchSize:      cfg.EmbedBatchSize,
			}),
		Answer: services.NewAnswerEngine(retriever, patterns, families, llm,
			services.AnswerEngineConfig{TopK: cfg.HybridTopK}),
		Status: services.NewStatusReporter(docs, patterns, families, vecIndex),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, version, svcs)
}
