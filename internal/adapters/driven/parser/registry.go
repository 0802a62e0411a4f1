// Package parser implements document parsers for the supported corpus
// formats and the extension registry that dispatches between them.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
)

var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps file extensions to parsers. The extension set is
// closed; anything else is ErrUnsupportedType.
type Registry struct {
	byExt map[string]driven.Parser
}

// NewRegistry creates a registry with all supported parsers. The chunk
// config applies to the parsers that split free text; tabular parsers
// emit one chunk per row regardless.
func NewRegistry(chunks ChunkConfig) *Registry {
	plaintext := NewPlaintextParser(chunks)
	return &Registry{
		byExt: map[string]driven.Parser{
			".pdf":  NewPDFParser(chunks),
			".docx": NewDOCXParser(chunks),
			".xlsx": NewXLSXParser(),
			".txt":  plaintext,
			".md":   plaintext,
		},
	}
}

// ParserFor returns the parser for the path's extension.
func (r *Registry) ParserFor(path string) (driven.Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	parser, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no parser for extension %q", domain.ErrUnsupportedType, ext)
	}
	return parser, nil
}

// Supported reports whether the path's extension is supported.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// newDocument builds document metadata shared by every parser: id,
// content hash, size and ingestion time.
func newDocument(path string, fileType domain.FileType, metadata map[string]any) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}

	hash, err := fileHash(path)
	if err != nil {
		return domain.Document{}, err
	}

	return domain.Document{
		ID:         uuid.New().String(),
		FilePath:   filepath.Base(path),
		FileHash:   hash,
		FileType:   fileType,
		FileSize:   info.Size(),
		Metadata:   metadata,
		IngestedAt: time.Now().UTC(),
	}, nil
}

// fileHash computes the SHA-256 hash of the file contents.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
