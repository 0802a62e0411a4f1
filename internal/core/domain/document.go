package domain

import "time"

// FileType identifies a supported document format.
type FileType string

// Supported document formats. The parser registry rejects anything else.
const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeXLSX FileType = "xlsx"
	FileTypeText FileType = "txt"
)

// Document represents a source document in the corpus.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// FilePath is the path relative to the ingestion root.
	FilePath string

	// FileHash is the SHA-256 hash of the file contents.
	FileHash string

	// FileType is the document format.
	FileType FileType

	// FileSize is the size in bytes.
	FileSize int64

	// Status tracks ingestion outcome ("indexed" or "failed").
	Status string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// IngestedAt is when the document was ingested.
	IngestedAt time.Time
}

// ChunkType classifies the structural origin of a chunk.
type ChunkType string

// Chunk type tags. The citation format depends on the tag.
const (
	ChunkTypeParagraph  ChunkType = "paragraph"
	ChunkTypeHeading    ChunkType = "heading"
	ChunkTypeTableRow   ChunkType = "table_row"
	ChunkTypeSheetRange ChunkType = "sheet_range"
)

// Chunk is the atomic retrievable and citable unit of document text.
// Chunks are created once during ingestion and never mutated; they are
// removed only by cascading document deletion.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Text is the chunk content.
	Text string

	// Type tags the structural origin of the chunk.
	Type ChunkType

	// Citation locates the chunk in the source document.
	// It must resolve deterministically back to a source location.
	Citation string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the chunk was ingested.
	CreatedAt time.Time
}

// Heading captures document structure for context.
type Heading struct {
	// ID is the unique identifier for the heading.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Level is the heading depth (1 = top level).
	Level int

	// Text is the heading text.
	Text string

	// Location is a human-readable position hint (page or section).
	Location string
}

// ParsedDocument is the result of parsing a source file.
type ParsedDocument struct {
	// Metadata describes the parsed file.
	Metadata Document

	// Chunks are the extracted retrievable units, in document order.
	Chunks []Chunk

	// Headings are the extracted structural headings.
	Headings []Heading
}
