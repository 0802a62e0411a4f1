package driven

import (
	"context"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

// DocumentStore persists documents, chunks and headings.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// SaveHeadings stores headings for a document.
	SaveHeadings(ctx context.Context, headings []domain.Heading) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByPath retrieves a document by its relative path.
	GetDocumentByPath(ctx context.Context, path string) (*domain.Document, error)

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListChunks returns every chunk in the corpus in insertion order.
	ListChunks(ctx context.Context) ([]domain.Chunk, error)

	// DeleteDocument removes a document, cascading to its chunks and
	// the patterns extracted from them.
	DeleteDocument(ctx context.Context, id string) error

	// CountDocuments returns the total document count.
	CountDocuments(ctx context.Context) (int, error)

	// CountChunks returns the total chunk count.
	CountChunks(ctx context.Context) (int, error)
}

// PatternStore persists extracted patterns.
type PatternStore interface {
	// SavePattern stores a pattern.
	SavePattern(ctx context.Context, p *domain.Pattern) error

	// GetPatternsByType returns all patterns of the given type.
	GetPatternsByType(ctx context.Context, t domain.PatternType) ([]domain.Pattern, error)

	// CountPatterns returns the number of patterns of the given type.
	CountPatterns(ctx context.Context, t domain.PatternType) (int, error)
}

// FamilyStore persists pattern families and their memberships.
type FamilyStore interface {
	// ReplaceFamilies atomically replaces all families of the given
	// pattern type with the supplied families and members.
	ReplaceFamilies(ctx context.Context, t domain.PatternType,
		families []domain.Family, members []domain.FamilyMember) error

	// TopFamilies returns up to limit families of the given type,
	// ordered by document count then member count, descending.
	TopFamilies(ctx context.Context, t domain.PatternType, limit int) ([]domain.Family, error)

	// CountFamilies returns the number of families of the given type.
	CountFamilies(ctx context.Context, t domain.PatternType) (int, error)
}
