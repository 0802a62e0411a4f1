package driven

import (
	"context"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

// LexicalIndex provides BM25-style full-text ranking over the chunk
// corpus. The index is built once per corpus snapshot and persisted.
type LexicalIndex interface {
	// Build constructs the index from the given chunks, replacing any
	// previous contents. Chunk order is preserved for tie-breaking.
	Build(ctx context.Context, chunks []domain.Chunk) error

	// Search ranks chunks against the query and returns up to topK
	// results in descending score order. Returns
	// domain.ErrIndexNotReady if the index has not been built or
	// loaded.
	Search(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error)

	// Save persists the index and its backing chunk list as a single
	// artifact at path.
	Save(path string) error

	// Load reconstructs the index from a saved artifact. A loaded
	// index ranks identically to the one that was saved.
	Load(path string) error
}
