package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

// DefaultRRFConstant is the standard RRF smoothing parameter. k=60 is
// the empirically validated default across search engines.
const DefaultRRFConstant = 60

// RetrieverConfig tunes hybrid retrieval.
type RetrieverConfig struct {
	// LexicalTopK is how many candidates the lexical leg requests.
	LexicalTopK int

	// VectorTopK is how many candidates the vector leg requests.
	VectorTopK int

	// RRFConstant is the rank-fusion smoothing constant.
	RRFConstant int
}

// HybridRetriever fuses lexical (BM25) and dense-vector retrieval into
// one ranked result list using reciprocal rank fusion. RRF needs only
// rank positions, so the incomparable BM25 and cosine score scales never
// have to be calibrated against each other.
type HybridRetriever struct {
	lexical  driven.LexicalIndex
	vector   driven.VectorIndex
	embedder driven.EmbeddingService
	docs     driven.DocumentStore
	cfg      RetrieverConfig
}

// NewHybridRetriever creates a hybrid retriever. The document store is
// optional; without it, vector-only hits keep their metadata-derived
// chunk records.
func NewHybridRetriever(
	lexical driven.LexicalIndex,
	vector driven.VectorIndex,
	embedder driven.EmbeddingService,
	docs driven.DocumentStore,
	cfg RetrieverConfig,
) *HybridRetriever {
	if cfg.LexicalTopK <= 0 {
		cfg.LexicalTopK = 50
	}
	if cfg.VectorTopK <= 0 {
		cfg.VectorTopK = 50
	}
	if cfg.RRFConstant <= 0 {
		cfg.RRFConstant = DefaultRRFConstant
	}
	return &HybridRetriever{
		lexical:  lexical,
		vector:   vector,
		embedder: embedder,
		docs:     docs,
		cfg:      cfg,
	}
}

// Retrieve runs both retrieval legs concurrently and fuses their ranked
// lists. If exactly one leg fails the other's results are used alone;
// if both fail the error is returned. Empty results from both legs
// yield an empty list, not an error.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ScoredChunk{}, nil
	}
	if topK <= 0 {
		topK = 20
	}

	logger.Section("Hybrid Retrieval")
	logger.Debug("Query: %q, topK: %d", query, topK)

	var (
		wg      sync.WaitGroup
		lexHits []domain.ScoredChunk
		vecHits []driven.VectorHit
		lexErr  error
		vecErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lexHits, lexErr = r.lexical.Search(ctx, query, r.cfg.LexicalTopK)
	}()
	go func() {
		defer wg.Done()
		vecHits, vecErr = r.vector.SearchByText(ctx, query, r.embedder, r.cfg.VectorTopK)
	}()
	wg.Wait()

	if lexErr != nil && vecErr != nil {
		return nil, fmt.Errorf("hybrid retrieval: lexical=%w, vector=%w", lexErr, vecErr)
	}
	if lexErr != nil {
		logger.Warn("Lexical search failed, using vector results only: %v", lexErr)
	}
	if vecErr != nil {
		logger.Warn("Vector search failed, using lexical results only: %v", vecErr)
	}

	logger.Debug("Fusing %d lexical + %d vector results", len(lexHits), len(vecHits))

	fused := r.fuse(lexHits, vecHits)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	r.hydrate(ctx, fused)

	logger.Info("Retrieved %d chunks", len(fused))
	return fused, nil
}

// fusedEntry accumulates RRF state per chunk id.
type fusedEntry struct {
	chunk    domain.Chunk
	score    float64
	bestRank int
}

// fuse merges the two ranked lists with reciprocal rank fusion: each
// list contributes 1/(K+rank) per item, with 1-based ranks; an item in
// both lists receives both contributions. Order: fused score descending,
// then best source rank ascending, then chunk id, for full determinism.
// Every id from either input appears in the result.
func (r *HybridRetriever) fuse(lexHits []domain.ScoredChunk, vecHits []driven.VectorHit) []domain.ScoredChunk {
	k := float64(r.cfg.RRFConstant)
	entries := make(map[string]*fusedEntry, len(lexHits)+len(vecHits))

	for i, hit := range lexHits {
		rank := i + 1
		entries[hit.Chunk.ID] = &fusedEntry{
			chunk:    hit.Chunk,
			score:    1.0 / (k + float64(rank)),
			bestRank: rank,
		}
	}

	for i, hit := range vecHits {
		rank := i + 1
		if e, ok := entries[hit.ChunkID]; ok {
			e.score += 1.0 / (k + float64(rank))
			if rank < e.bestRank {
				e.bestRank = rank
			}
			continue
		}
		entries[hit.ChunkID] = &fusedEntry{
			chunk:    chunkFromVectorHit(hit),
			score:    1.0 / (k + float64(rank)),
			bestRank: rank,
		}
	}

	ordered := make([]*fusedEntry, 0, len(entries))
	for _, e := range entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		if ordered[i].bestRank != ordered[j].bestRank {
			return ordered[i].bestRank < ordered[j].bestRank
		}
		return ordered[i].chunk.ID < ordered[j].chunk.ID
	})

	results := make([]domain.ScoredChunk, len(ordered))
	for i, e := range ordered {
		results[i] = domain.ScoredChunk{Chunk: e.chunk, Score: e.score}
	}
	return results
}

// chunkFromVectorHit reconstructs a usable chunk record from vector
// store metadata when the lexical leg has no record for the id. The
// text carries an explicit sentinel rather than appearing empty; this
// is a documented degradation of fused results, not a failure.
func chunkFromVectorHit(hit driven.VectorHit) domain.Chunk {
	chunk := domain.Chunk{
		ID:   hit.ChunkID,
		Text: domain.TextUnavailable,
		Type: domain.ChunkTypeParagraph,
	}
	if hit.Metadata != nil {
		chunk.DocumentID = hit.Metadata["doc_id"]
		chunk.Citation = hit.Metadata["citation"]
		if t := hit.Metadata["chunk_type"]; t != "" {
			chunk.Type = domain.ChunkType(t)
		}
	}
	return chunk
}

// hydrate fills sentinel texts from the document store where possible.
// Store misses keep the sentinel; hydration never fails retrieval.
func (r *HybridRetriever) hydrate(ctx context.Context, results []domain.ScoredChunk) {
	if r.docs == nil {
		return
	}
	for i := range results {
		if results[i].Chunk.Text != domain.TextUnavailable {
			continue
		}
		chunk, err := r.docs.GetChunk(ctx, results[i].Chunk.ID)
		if err != nil {
			logger.Debug("Chunk %s not hydratable: %v", results[i].Chunk.ID, err)
			continue
		}
		results[i].Chunk = *chunk
	}
}
