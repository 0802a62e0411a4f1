package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
)

// stubEmbedder produces small deterministic embeddings keyed on the
// input text so tests can engineer exact similarities.
type stubEmbedder struct {
	dims     int
	vectors  map[string][]float64
	batchErr error
	pingErr  error
}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func newStubEmbedder(vectors map[string][]float64) *stubEmbedder {
	dims := 2
	for _, v := range vectors {
		dims = len(v)
		break
	}
	return &stubEmbedder{dims: dims, vectors: vectors}
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	batch, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return batch[0], nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = make([]float64, s.dims)
		out[i][0] = 1
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int              { return s.dims }
func (s *stubEmbedder) ModelName() string            { return "stub-embed" }
func (s *stubEmbedder) Ping(_ context.Context) error { return s.pingErr }

// stubLLM returns canned JSON keyed on a prompt substring.
type stubLLM struct {
	responses map[string]string
	generated []string
	genErr    error
	pingErr   error
}

var _ driven.LLMService = (*stubLLM)(nil)

func (s *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	if s.genErr != nil {
		return "", s.genErr
	}
	s.generated = append(s.generated, prompt)
	for key, resp := range s.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", fmt.Errorf("%w: no canned response", domain.ErrMalformedResponse)
}

func (s *stubLLM) GenerateJSON(ctx context.Context, prompt string, _ float64, out any) error {
	raw, err := s.Generate(ctx, prompt, driven.GenerateOptions{JSONMode: true})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

func (s *stubLLM) ModelName() string            { return "stub-llm" }
func (s *stubLLM) Ping(_ context.Context) error { return s.pingErr }

// stubLexical returns a fixed ranked list.
type stubLexical struct {
	hits []domain.ScoredChunk
	err  error
}

var _ driven.LexicalIndex = (*stubLexical)(nil)

func (s *stubLexical) Build(_ context.Context, _ []domain.Chunk) error { return nil }
func (s *stubLexical) Save(_ string) error                             { return nil }
func (s *stubLexical) Load(_ string) error                             { return nil }

func (s *stubLexical) Search(_ context.Context, _ string, topK int) ([]domain.ScoredChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > topK {
		return s.hits[:topK], nil
	}
	return s.hits, nil
}

// stubVector returns a fixed ranked list.
type stubVector struct {
	hits []driven.VectorHit
	err  error
}

var _ driven.VectorIndex = (*stubVector)(nil)

func (s *stubVector) Build(_ context.Context, _ []domain.Chunk, _ driven.EmbeddingService, _ int) error {
	return nil
}

func (s *stubVector) Search(_ context.Context, _ []float64, topK int) ([]driven.VectorHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > topK {
		return s.hits[:topK], nil
	}
	return s.hits, nil
}

func (s *stubVector) SearchByText(ctx context.Context, _ string, _ driven.EmbeddingService, topK int) ([]driven.VectorHit, error) {
	return s.Search(ctx, nil, topK)
}

func (s *stubVector) Count(_ context.Context) (int, error) { return len(s.hits), nil }
