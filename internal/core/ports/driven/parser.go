package driven

import (
	"context"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

// Parser extracts text, tables and structure from one document format.
//
// Parsers guarantee unique chunk ids within a document, non-empty chunk
// text, and citations that resolve back to a source location.
type Parser interface {
	// FileType returns the format this parser handles.
	FileType() domain.FileType

	// Parse reads the file at path and returns its metadata, chunks
	// and headings.
	Parse(ctx context.Context, path string) (*domain.ParsedDocument, error)
}

// ParserRegistry resolves a parser from a file path. The supported
// extension set is closed; unknown extensions return
// domain.ErrUnsupportedType.
type ParserRegistry interface {
	// ParserFor returns the parser for the path's extension.
	ParserFor(path string) (Parser, error)

	// Supported reports whether the path's extension is supported.
	Supported(path string) bool
}
