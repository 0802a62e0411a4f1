// Package vector implements a disk-backed cosine-similarity store with
// per-corpus namespaces.
package vector

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/core/services"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driven.VectorIndex = (*DiskStore)(nil)

// artifactName is the vector file inside a namespace directory.
const artifactName = "vectors.gob"

// entry is one stored embedding.
type entry struct {
	ChunkID  string
	Vector   []float64
	Metadata map[string]string
}

// DiskStore persists embeddings under root/<namespace>/. Rebuilds write
// into a fresh directory and swap it in with renames, so concurrent
// readers observe either the complete old contents or the complete new
// ones, never a mix.
type DiskStore struct {
	root      string
	namespace string

	mu      sync.RWMutex
	entries []entry
	loaded  bool
}

// NewDiskStore creates a store rooted at root for the given namespace.
// Nothing is read from disk until the first search.
func NewDiskStore(root, namespace string) *DiskStore {
	return &DiskStore{root: root, namespace: namespace}
}

// Build embeds every chunk and atomically replaces the namespace
// contents. A failed embedding batch degrades to zero-vector
// placeholders flagged in metadata rather than aborting the build.
// Zero vectors score zero cosine similarity against every query, so
// degraded chunks sink to the bottom of results; this is a documented
// limitation of the fallback.
func (s *DiskStore) Build(ctx context.Context, chunks []domain.Chunk, embedder driven.EmbeddingService, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 10
	}

	dims := embedder.Dimensions()
	entries := make([]entry, 0, len(chunks))
	degraded := 0

	for start := 0; start < len(chunks); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		batchDegraded := err != nil || len(vectors) != len(batch)
		if batchDegraded {
			logger.Warn("Embedding batch at %d failed, storing zero-vector placeholders: %v", start, err)
			vectors = make([][]float64, len(batch))
			for i := range vectors {
				vectors[i] = make([]float64, dims)
			}
			degraded += len(batch)
		}

		for i, c := range batch {
			meta := map[string]string{
				"doc_id":     c.DocumentID,
				"chunk_type": string(c.Type),
				"citation":   c.Citation,
			}
			if batchDegraded {
				meta["degraded"] = "true"
			}
			entries = append(entries, entry{
				ChunkID:  c.ID,
				Vector:   vectors[i],
				Metadata: meta,
			})
		}
	}

	if degraded > 0 {
		logger.Warn("Vector build degraded: %d of %d chunks carry zero-vector placeholders", degraded, len(chunks))
	}

	if err := s.swapIn(entries); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = entries
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// swapIn writes entries into a fresh directory and renames it over the
// namespace directory.
func (s *DiskStore) swapIn(entries []entry) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating vector root: %w", err)
	}

	fresh := filepath.Join(s.root, s.namespace+".build-"+uuid.New().String())
	if err := os.MkdirAll(fresh, 0o755); err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}
	defer os.RemoveAll(fresh)

	f, err := os.Create(filepath.Join(fresh, artifactName))
	if err != nil {
		return fmt.Errorf("creating vector artifact: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		f.Close()
		return fmt.Errorf("encoding vector artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing vector artifact: %w", err)
	}

	current := filepath.Join(s.root, s.namespace)
	old := current + ".old-" + uuid.New().String()

	if _, err := os.Stat(current); err == nil {
		if err := os.Rename(current, old); err != nil {
			return fmt.Errorf("retiring previous namespace: %w", err)
		}
		defer os.RemoveAll(old)
	}
	if err := os.Rename(fresh, current); err != nil {
		return fmt.Errorf("activating namespace: %w", err)
	}
	return nil
}

// Search returns up to topK hits in non-increasing similarity order.
// Equal similarities keep insertion order.
func (s *DiskStore) Search(ctx context.Context, query []float64, topK int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 && len(query) != len(entries[0].Vector) {
		return nil, fmt.Errorf("%w: query dimension %d does not match stored dimension %d",
			domain.ErrDataIntegrity, len(query), len(entries[0].Vector))
	}

	hits := make([]driven.VectorHit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, driven.VectorHit{
			ChunkID:    e.ChunkID,
			Similarity: services.CosineSimilarity(query, e.Vector),
			Metadata:   e.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// SearchByText embeds the query then searches.
func (s *DiskStore) SearchByText(ctx context.Context, query string, embedder driven.EmbeddingService, topK int) ([]driven.VectorHit, error) {
	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, vec, topK)
}

// Count returns the number of stored vectors.
func (s *DiskStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	entries, err := s.snapshot()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// snapshot returns the in-memory entries, loading them from disk on
// first use.
func (s *DiskStore) snapshot() ([]entry, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.entries, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.entries, nil
	}

	path := filepath.Join(s.root, s.namespace, artifactName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: vector namespace %s has not been built", domain.ErrIndexNotReady, s.namespace)
		}
		return nil, fmt.Errorf("opening vector artifact: %w", err)
	}
	defer f.Close()

	var entries []entry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decoding vector artifact: %v", domain.ErrDataIntegrity, err)
	}

	s.entries = entries
	s.loaded = true
	return s.entries, nil
}
