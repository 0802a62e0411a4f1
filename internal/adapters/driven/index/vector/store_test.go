package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

// fakeEmbedder maps texts to fixed two-dimensional vectors.
type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	batch, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return batch[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float64{1, 0}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 2 }
func (f *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Text: "east", Type: domain.ChunkTypeParagraph, Citation: "a.txt, chunk_0"},
		{ID: "c2", DocumentID: "d1", Text: "north", Type: domain.ChunkTypeParagraph, Citation: "a.txt, chunk_1"},
		{ID: "c3", DocumentID: "d2", Text: "northeast", Type: domain.ChunkTypeParagraph, Citation: "b.txt, chunk_0"},
	}
}

func testEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float64{
		"east":      {1, 0},
		"north":     {0, 1},
		"northeast": {0.7071, 0.7071},
	}}
}

func TestDiskStore_BuildAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewDiskStore(t.TempDir(), "corpus")

	require.NoError(t, store.Build(ctx, testChunks(), testEmbedder(), 2))

	hits, err := store.Search(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "c3", hits[1].ChunkID)
	assert.Equal(t, "c2", hits[2].ChunkID)
	assert.InDelta(t, 0.0, hits[2].Similarity, 1e-9)

	assert.Equal(t, "d1", hits[0].Metadata["doc_id"])
	assert.Equal(t, "a.txt, chunk_0", hits[0].Metadata["citation"])
}

func TestDiskStore_SearchByText(t *testing.T) {
	ctx := context.Background()
	store := NewDiskStore(t.TempDir(), "corpus")
	embedder := testEmbedder()
	require.NoError(t, store.Build(ctx, testChunks(), embedder, 10))

	hits, err := store.SearchByText(ctx, "north", embedder, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChunkID)
}

func TestDiskStore_SearchBeforeBuild(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "corpus")
	_, err := store.Search(context.Background(), []float64{1, 0}, 10)
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
}

func TestDiskStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	builder := NewDiskStore(root, "corpus")
	require.NoError(t, builder.Build(ctx, testChunks(), testEmbedder(), 10))

	// A fresh instance lazily loads the artifact on first use.
	reader := NewDiskStore(root, "corpus")
	count, err := reader.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err := reader.Search(ctx, []float64{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChunkID)
}

func TestDiskStore_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, NewDiskStore(root, "alpha").Build(ctx, testChunks(), testEmbedder(), 10))

	_, err := NewDiskStore(root, "beta").Search(ctx, []float64{1, 0}, 10)
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
}

func TestDiskStore_RebuildSwapsContents(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	store := NewDiskStore(root, "corpus")
	require.NoError(t, store.Build(ctx, testChunks(), testEmbedder(), 10))

	require.NoError(t, store.Build(ctx, []domain.Chunk{
		{ID: "n1", DocumentID: "d9", Text: "east", Type: domain.ChunkTypeParagraph},
	}, testEmbedder(), 10))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The swap is visible on disk, not just in memory.
	fresh := NewDiskStore(root, "corpus")
	hits, err := fresh.Search(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "n1", hits[0].ChunkID)
}

func TestDiskStore_DegradedBuild(t *testing.T) {
	ctx := context.Background()
	store := NewDiskStore(t.TempDir(), "corpus")

	embedder := testEmbedder()
	embedder.err = errors.New("embedding backend down")

	// The build completes with placeholders instead of failing.
	require.NoError(t, store.Build(ctx, testChunks(), embedder, 10))

	hits, err := store.Search(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for _, hit := range hits {
		assert.Equal(t, "true", hit.Metadata["degraded"])
		assert.InDelta(t, 0.0, hit.Similarity, 1e-12)
	}
}

func TestDiskStore_EmptyBuild(t *testing.T) {
	ctx := context.Background()
	store := NewDiskStore(t.TempDir(), "corpus")
	require.NoError(t, store.Build(ctx, nil, testEmbedder(), 10))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDiskStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewDiskStore(t.TempDir(), "corpus")
	require.NoError(t, store.Build(ctx, testChunks(), testEmbedder(), 10))

	_, err := store.Search(ctx, []float64{0.5, 0.5, 0.5}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)

	_, err = store.Search(ctx, []float64{0.5}, 10)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

// cancellingEmbedder cancels the build context after its first batch.
type cancellingEmbedder struct {
	fakeEmbedder
	cancel  context.CancelFunc
	batches int
}

func (c *cancellingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	c.batches++
	if c.batches == 1 {
		c.cancel()
	}
	return c.fakeEmbedder.EmbedBatch(ctx, texts)
}

func TestDiskStore_FailedRebuildKeepsPrevious(t *testing.T) {
	root := t.TempDir()
	store := NewDiskStore(root, "corpus")
	require.NoError(t, store.Build(context.Background(), testChunks(), testEmbedder(), 10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	embedder := &cancellingEmbedder{fakeEmbedder: *testEmbedder(), cancel: cancel}

	err := store.Build(ctx, []domain.Chunk{
		{ID: "n1", DocumentID: "d9", Text: "east", Type: domain.ChunkTypeParagraph},
		{ID: "n2", DocumentID: "d9", Text: "north", Type: domain.ChunkTypeParagraph},
		{ID: "n3", DocumentID: "d9", Text: "northeast", Type: domain.ChunkTypeParagraph},
	}, embedder, 1)
	require.Error(t, err)

	// The interrupted rebuild leaves the namespace untouched on disk.
	fresh := NewDiskStore(root, "corpus")
	count, err := fresh.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err := fresh.Search(context.Background(), []float64{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "c1", hits[0].ChunkID)

	// The live instance keeps serving the old contents too.
	hits, err = store.Search(context.Background(), []float64{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "c1", hits[0].ChunkID)
}
