package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driving.IngestService = (*Ingestor)(nil)

// Ingestor scans a folder for supported documents, parses them and
// persists the results. Files already present in the store (matched by
// relative path) are skipped, so re-running ingestion is cheap.
type Ingestor struct {
	docs     driven.DocumentStore
	registry driven.ParserRegistry
}

// NewIngestor creates an ingestor.
func NewIngestor(docs driven.DocumentStore, registry driven.ParserRegistry) *Ingestor {
	return &Ingestor{docs: docs, registry: registry}
}

// IngestFolder ingests every supported file under folder. Per-file
// failures are counted and logged, never fatal.
func (g *Ingestor) IngestFolder(ctx context.Context, folder string, recursive bool) (driving.IngestStats, error) {
	var stats driving.IngestStats

	logger.Section("Document Ingestion")
	logger.Info("Scanning folder: %s (recursive=%t)", folder, recursive)

	files, err := g.scan(folder, recursive)
	if err != nil {
		return stats, err
	}
	stats.TotalFiles = len(files)
	logger.Info("Found %d supported files", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		switch err := g.processFile(ctx, path, folder); {
		case err == nil:
			stats.Successful++
		case err == errAlreadyIngested:
			stats.Skipped++
		default:
			logger.Warn("Failed to process %s: %v", path, err)
			stats.Failed++
		}
	}

	logger.Info("Ingestion complete: %d/%d successful, %d skipped, %d failed",
		stats.Successful, stats.TotalFiles, stats.Skipped, stats.Failed)
	return stats, nil
}

// errAlreadyIngested is internal to the ingest loop; callers only see
// the skipped count.
var errAlreadyIngested = fmt.Errorf("document already ingested")

// scan collects supported files under folder in sorted order.
func (g *Ingestor) scan(folder string, recursive bool) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: folder %s", domain.ErrNotFound, folder)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, folder)
	}

	var files []string
	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != folder {
				return filepath.SkipDir
			}
			return nil
		}
		if g.registry.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", folder, err)
	}

	// Deterministic processing order.
	sort.Strings(files)
	return files, nil
}

// processFile parses one document and persists it with its chunks and
// headings.
func (g *Ingestor) processFile(ctx context.Context, path, root string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	if existing, err := g.docs.GetDocumentByPath(ctx, rel); err == nil && existing != nil {
		logger.Debug("Already ingested: %s", rel)
		return errAlreadyIngested
	}

	logger.Info("Processing: %s", rel)

	parser, err := g.registry.ParserFor(path)
	if err != nil {
		return err
	}

	parsed, err := parser.Parse(ctx, path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", rel, err)
	}

	parsed.Metadata.FilePath = rel
	parsed.Metadata.Status = "indexed"

	for i := range parsed.Chunks {
		parsed.Chunks[i].DocumentID = parsed.Metadata.ID
	}
	for i := range parsed.Headings {
		parsed.Headings[i].DocumentID = parsed.Metadata.ID
	}

	if err := g.docs.SaveDocument(ctx, &parsed.Metadata); err != nil {
		return fmt.Errorf("saving document %s: %w", rel, err)
	}
	if len(parsed.Chunks) > 0 {
		if err := g.docs.SaveChunks(ctx, parsed.Chunks); err != nil {
			return fmt.Errorf("saving chunks for %s: %w", rel, err)
		}
	}
	if len(parsed.Headings) > 0 {
		if err := g.docs.SaveHeadings(ctx, parsed.Headings); err != nil {
			return fmt.Errorf("saving headings for %s: %w", rel, err)
		}
	}

	logger.Info("Processed %s: %d chunks, %d headings", rel, len(parsed.Chunks), len(parsed.Headings))
	return nil
}
