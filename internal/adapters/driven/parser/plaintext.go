package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driven.Parser = (*PlaintextParser)(nil)

// PlaintextParser handles .txt and .md files.
type PlaintextParser struct {
	chunks ChunkConfig
}

// NewPlaintextParser creates a plaintext parser.
func NewPlaintextParser(chunks ChunkConfig) *PlaintextParser {
	return &PlaintextParser{chunks: chunks.withDefaults()}
}

// FileType returns the format this parser handles.
func (p *PlaintextParser) FileType() domain.FileType {
	return domain.FileTypeText
}

// Parse reads the file and chunks its text into overlapping paragraph
// chunks. Citations carry the ordinal section index.
func (p *PlaintextParser) Parse(ctx context.Context, path string) (*domain.ParsedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("Parsing text file: %s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := newDocument(path, domain.FileTypeText, nil)
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(path)
	now := time.Now().UTC()

	pieces := chunkText(string(content), p.chunks.Size, p.chunks.Overlap)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:       uuid.New().String(),
			Position: i,
			Text:     text,
			Type:     domain.ChunkTypeParagraph,
			Citation: domain.Citation{
				FilePath: fileName,
				Section:  fmt.Sprintf("chunk_%d", i),
			}.String(),
			CreatedAt: now,
		})
	}

	return &domain.ParsedDocument{
		Metadata: doc,
		Chunks:   chunks,
	}, nil
}
