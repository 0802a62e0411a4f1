package driven

import (
	"context"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score, bounded in [-1, 1].
	Similarity float64

	// Metadata carries the minimal chunk metadata stored at build time
	// (document id, chunk type, citation, degraded flag).
	Metadata map[string]string
}

// VectorIndex stores embeddings under a per-corpus namespace and answers
// cosine-similarity nearest-neighbour queries.
//
// Rebuilding a namespace is atomic from the caller's perspective: readers
// observe either the complete old contents or the complete new ones.
type VectorIndex interface {
	// Build embeds every chunk's text in fixed-size batches and
	// replaces the namespace contents. A failed batch degrades to
	// zero-vector placeholders flagged in metadata rather than
	// aborting the whole build.
	Build(ctx context.Context, chunks []domain.Chunk, embedder EmbeddingService, batchSize int) error

	// Search returns up to topK hits in non-increasing similarity
	// order. Returns domain.ErrIndexNotReady when the namespace has
	// never been built.
	Search(ctx context.Context, query []float64, topK int) ([]VectorHit, error)

	// SearchByText embeds the query then searches.
	SearchByText(ctx context.Context, query string, embedder EmbeddingService, topK int) ([]VectorHit, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)
}
