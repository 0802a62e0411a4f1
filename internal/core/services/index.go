package services

import (
	"context"
	"fmt"

	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driving.IndexService = (*IndexBuilder)(nil)

// IndexBuilderConfig tunes index construction.
type IndexBuilderConfig struct {
	// LexicalPath is where the lexical index artifact is persisted.
	LexicalPath string

	// EmbedBatchSize is the embedding batch size for the vector build.
	EmbedBatchSize int
}

// IndexBuilder rebuilds the retrieval indexes from the persisted corpus.
// Both indexes are batch-rebuilt from scratch; there are no incremental
// updates.
type IndexBuilder struct {
	docs     driven.DocumentStore
	lexical  driven.LexicalIndex
	vector   driven.VectorIndex
	embedder driven.EmbeddingService
	cfg      IndexBuilderConfig
}

// NewIndexBuilder creates an index builder.
func NewIndexBuilder(
	docs driven.DocumentStore,
	lexical driven.LexicalIndex,
	vector driven.VectorIndex,
	embedder driven.EmbeddingService,
	cfg IndexBuilderConfig,
) *IndexBuilder {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 10
	}
	return &IndexBuilder{
		docs:     docs,
		lexical:  lexical,
		vector:   vector,
		embedder: embedder,
		cfg:      cfg,
	}
}

// BuildLexical rebuilds and persists the lexical index.
func (b *IndexBuilder) BuildLexical(ctx context.Context) error {
	logger.Section("Lexical Index")

	chunks, err := b.docs.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}
	logger.Info("Building lexical index over %d chunks", len(chunks))

	if err := b.lexical.Build(ctx, chunks); err != nil {
		return fmt.Errorf("building lexical index: %w", err)
	}
	if err := b.lexical.Save(b.cfg.LexicalPath); err != nil {
		return fmt.Errorf("saving lexical index: %w", err)
	}

	logger.Info("Lexical index saved to %s", b.cfg.LexicalPath)
	return nil
}

// BuildVector rebuilds the vector index namespace. The swap is atomic;
// concurrent readers see either the old or the new contents.
func (b *IndexBuilder) BuildVector(ctx context.Context) error {
	logger.Section("Vector Index")

	if err := b.embedder.Ping(ctx); err != nil {
		return err
	}

	chunks, err := b.docs.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}
	logger.Info("Embedding %d chunks (model: %s, batch size %d)",
		len(chunks), b.embedder.ModelName(), b.cfg.EmbedBatchSize)

	if err := b.vector.Build(ctx, chunks, b.embedder, b.cfg.EmbedBatchSize); err != nil {
		return fmt.Errorf("building vector index: %w", err)
	}

	count, err := b.vector.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("Vector index ready: %d vectors", count)
	return nil
}
