package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilygos/marianalyzer/internal/adapters/driven/storage/memory"
	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
)

type recordingLexical struct {
	stubLexical
	built     []domain.Chunk
	savedPath string
	buildErr  error
}

func (r *recordingLexical) Build(_ context.Context, chunks []domain.Chunk) error {
	if r.buildErr != nil {
		return r.buildErr
	}
	r.built = chunks
	return nil
}

func (r *recordingLexical) Save(path string) error {
	r.savedPath = path
	return nil
}

type recordingVector struct {
	stubVector
	built     []domain.Chunk
	batchSize int
}

func (r *recordingVector) Build(_ context.Context, chunks []domain.Chunk, _ driven.EmbeddingService, batchSize int) error {
	r.built = chunks
	r.batchSize = batchSize
	return nil
}

func (r *recordingVector) Count(_ context.Context) (int, error) {
	return len(r.built), nil
}

func indexCorpus(t *testing.T) *memory.DocumentStore {
	t.Helper()
	docs := memory.NewDocumentStore()
	require.NoError(t, docs.SaveChunks(context.Background(), []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Text: "first", Type: domain.ChunkTypeParagraph},
		{ID: "c2", DocumentID: "d1", Text: "second", Type: domain.ChunkTypeParagraph},
	}))
	return docs
}

func TestIndexBuilder_BuildLexical(t *testing.T) {
	lexical := &recordingLexical{}
	path := filepath.Join(t.TempDir(), "lexical.idx")
	builder := NewIndexBuilder(indexCorpus(t), lexical, &recordingVector{}, &stubEmbedder{dims: 2}, IndexBuilderConfig{
		LexicalPath: path,
	})

	require.NoError(t, builder.BuildLexical(context.Background()))

	assert.Len(t, lexical.built, 2)
	assert.Equal(t, path, lexical.savedPath)
}

func TestIndexBuilder_BuildLexicalFailure(t *testing.T) {
	lexical := &recordingLexical{buildErr: domain.ErrDataIntegrity}
	builder := NewIndexBuilder(indexCorpus(t), lexical, &recordingVector{}, &stubEmbedder{dims: 2}, IndexBuilderConfig{})

	err := builder.BuildLexical(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
	assert.Empty(t, lexical.savedPath, "a failed build must not be persisted")
}

func TestIndexBuilder_BuildVector(t *testing.T) {
	vector := &recordingVector{}
	builder := NewIndexBuilder(indexCorpus(t), &recordingLexical{}, vector, &stubEmbedder{dims: 2}, IndexBuilderConfig{
		EmbedBatchSize: 4,
	})

	require.NoError(t, builder.BuildVector(context.Background()))

	assert.Len(t, vector.built, 2)
	assert.Equal(t, 4, vector.batchSize)
}

func TestIndexBuilder_BuildVectorUpstreamDown(t *testing.T) {
	vector := &recordingVector{}
	embedder := &stubEmbedder{dims: 2, pingErr: domain.ErrUpstreamUnavailable}
	builder := NewIndexBuilder(indexCorpus(t), &recordingLexical{}, vector, embedder, IndexBuilderConfig{})

	err := builder.BuildVector(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Empty(t, vector.built, "no embedding work when the backend is unreachable")
}

func TestIndexBuilder_DefaultBatchSize(t *testing.T) {
	builder := NewIndexBuilder(indexCorpus(t), &recordingLexical{}, &recordingVector{}, &stubEmbedder{dims: 2}, IndexBuilderConfig{})
	assert.Equal(t, 10, builder.cfg.EmbedBatchSize)
}
