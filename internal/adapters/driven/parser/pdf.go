package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driven.Parser = (*PDFParser)(nil)

// PDFParser handles .pdf files. Text is extracted per page so that
// every chunk carries a page citation.
type PDFParser struct {
	chunks ChunkConfig
}

// NewPDFParser creates a PDF parser.
func NewPDFParser(chunks ChunkConfig) *PDFParser {
	return &PDFParser{chunks: chunks.withDefaults()}
}

// FileType returns the format this parser handles.
func (p *PDFParser) FileType() domain.FileType {
	return domain.FileTypePDF
}

// Parse extracts and chunks page text. Pages that fail text extraction
// are skipped with a warning; a single bad page does not fail the
// document.
func (p *PDFParser) Parse(ctx context.Context, path string) (*domain.ParsedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("Parsing PDF: %s", path)

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrInvalidInput, path, err)
	}
	defer f.Close()

	fileName := filepath.Base(path)
	now := time.Now().UTC()

	var chunks []domain.Chunk
	numPages := reader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("Failed to extract text from page %d of %s: %v", pageNum, fileName, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		citation := domain.Citation{FilePath: fileName, Page: pageNum}.String()
		for _, piece := range chunkText(text, p.chunks.Size, p.chunks.Overlap) {
			chunks = append(chunks, domain.Chunk{
				ID:       uuid.New().String(),
				Position: len(chunks),
				Text:     piece,
				Type:     domain.ChunkTypeParagraph,
				Citation: citation,
				Metadata: map[string]any{
					"page": pageNum,
				},
				CreatedAt: now,
			})
		}
	}

	logger.Debug("Extracted %d chunks from %d pages in %s", len(chunks), numPages, fileName)

	doc, err := newDocument(path, domain.FileTypePDF, map[string]any{
		"num_pages": numPages,
	})
	if err != nil {
		return nil, err
	}

	return &domain.ParsedDocument{
		Metadata: doc,
		Chunks:   chunks,
	}, nil
}
