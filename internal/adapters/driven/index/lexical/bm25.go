// Package lexical implements a persisted BM25 index over the chunk
// corpus.
package lexical

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
)

var _ driven.LexicalIndex = (*BM25Index)(nil)

// BM25 tuning constants. Standard values recommended by Robertson et al.
const (
	// k1 controls term frequency saturation. Higher = slower saturation.
	k1 = 1.5

	// b controls document length normalization.
	// 0 = no normalization, 1 = full normalization.
	b = 0.75
)

// bm25Doc is the tokenized representation of one chunk.
type bm25Doc struct {
	TF  map[string]int
	Len int
}

// indexSnapshot is the gob-persisted form of the index. A loaded
// snapshot ranks identically to the index it was saved from.
type indexSnapshot struct {
	Docs   []bm25Doc
	IDF    map[string]float64
	AvgLen float64
	Chunks []domain.Chunk
}

// BM25Index ranks chunks with Okapi BM25. The index is rebuilt from
// scratch on every Build call and is safe for concurrent searches once
// built.
type BM25Index struct {
	mu     sync.RWMutex
	docs   []bm25Doc
	idf    map[string]float64
	avgLen float64
	chunks []domain.Chunk
	ready  bool
}

// NewBM25Index creates an empty, not-yet-ready index.
func NewBM25Index() *BM25Index {
	return &BM25Index{}
}

// Build constructs the index from the given chunks, replacing any
// previous contents. Chunk order is preserved for tie-breaking.
func (idx *BM25Index) Build(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	docs := make([]bm25Doc, 0, len(chunks))
	df := make(map[string]int)
	totalLen := 0

	for _, chunk := range chunks {
		tokens := tokenize(chunk.Text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		docs = append(docs, bm25Doc{TF: tf, Len: len(tokens)})
		totalLen += len(tokens)

		for term := range tf {
			df[term]++
		}
	}

	// Lucene-style add-one smoothing keeps IDF positive and avoids
	// division by zero.
	n := len(docs)
	idf := make(map[string]float64, len(df))
	for term, docFreq := range df {
		idf[term] = math.Log(float64(n+1)/float64(docFreq+1)) + 1.0
	}

	avgLen := 0.0
	if n > 0 {
		avgLen = float64(totalLen) / float64(n)
	}

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = docs
	idx.idf = idf
	idx.avgLen = avgLen
	idx.chunks = stored
	idx.ready = true
	return nil
}

// Search ranks chunks against the query. Ties in score resolve to the
// chunk that was inserted first.
func (idx *BM25Index) Search(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.ready {
		return nil, fmt.Errorf("%w: lexical index has not been built", domain.ErrIndexNotReady)
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	type scored struct {
		pos   int
		score float64
	}
	results := make([]scored, 0, len(idx.docs))
	for i, doc := range idx.docs {
		if s := idx.score(terms, doc); s > 0 {
			results = append(results, scored{pos: i, score: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	out := make([]domain.ScoredChunk, len(results))
	for i, r := range results {
		out[i] = domain.ScoredChunk{Chunk: idx.chunks[r.pos], Score: r.score}
	}
	return out, nil
}

// score computes the raw BM25 score for one query/document pair.
func (idx *BM25Index) score(terms []string, doc bm25Doc) float64 {
	dl := float64(doc.Len)
	var score float64

	for _, term := range terms {
		tf, inDoc := doc.TF[term]
		if !inDoc {
			continue
		}
		termIDF, known := idx.idf[term]
		if !known {
			continue
		}

		tfF := float64(tf)
		numerator := tfF * (k1 + 1)
		denominator := tfF + k1*(1.0-b+b*dl/idx.avgLen)
		score += termIDF * (numerator / denominator)
	}
	return score
}

// Save persists the index and its backing chunk list as a single gob
// artifact at path.
func (idx *BM25Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.ready {
		return fmt.Errorf("%w: nothing to save", domain.ErrIndexNotReady)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating index artifact: %w", err)
	}
	defer f.Close()

	snapshot := indexSnapshot{
		Docs:   idx.docs,
		IDF:    idx.idf,
		AvgLen: idx.avgLen,
		Chunks: idx.chunks,
	}
	if err := gob.NewEncoder(f).Encode(&snapshot); err != nil {
		return fmt.Errorf("encoding index artifact: %w", err)
	}
	return nil
}

// Load reconstructs the index from a saved artifact.
func (idx *BM25Index) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no index artifact at %s", domain.ErrIndexNotReady, path)
		}
		return fmt.Errorf("opening index artifact: %w", err)
	}
	defer f.Close()

	var snapshot indexSnapshot
	if err := gob.NewDecoder(f).Decode(&snapshot); err != nil {
		return fmt.Errorf("%w: decoding index artifact: %v", domain.ErrDataIntegrity, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = snapshot.Docs
	idx.idf = snapshot.IDF
	idx.avgLen = snapshot.AvgLen
	idx.chunks = snapshot.Chunks
	idx.ready = true
	return nil
}

// tokenize lowercases and splits on whitespace. Ranking quality relies
// on IDF weighting rather than stemming or stopword removal.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
