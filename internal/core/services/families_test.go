package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilygos/marianalyzer/internal/adapters/driven/storage/memory"
	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

// aggregateFixture seeds four requirement patterns whose stub embeddings
// form one tight cluster of three plus one outlier. Two of the clustered
// patterns share a source document.
func aggregateFixture(t *testing.T) (*memory.DocumentStore, *memory.PatternStore, *stubEmbedder) {
	t.Helper()
	ctx := context.Background()

	docs := memory.NewDocumentStore()
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "docA", Text: "x", Type: domain.ChunkTypeParagraph},
		{ID: "c2", DocumentID: "docA", Text: "x", Type: domain.ChunkTypeParagraph},
		{ID: "c3", DocumentID: "docB", Text: "x", Type: domain.ChunkTypeParagraph},
		{ID: "c4", DocumentID: "docC", Text: "x", Type: domain.ChunkTypeParagraph},
	}))

	patterns := memory.NewPatternStore()
	texts := []struct {
		id, chunk, text string
		conf            float64
	}{
		{"p1", "c1", "data must be encrypted at rest", 0.9},
		{"p2", "c2", "data must be encrypted when stored", 0.8},
		{"p3", "c3", "stored data must use encryption", 0.7},
		{"p4", "c4", "reports must be delivered monthly", 0.95},
	}
	for _, p := range texts {
		require.NoError(t, patterns.SavePattern(ctx, &domain.Pattern{
			ID: p.id, ChunkID: p.chunk, Type: domain.PatternRequirement,
			Text: p.text, NormText: Normalize(p.text), Confidence: p.conf,
		}))
	}

	embedder := newStubEmbedder(map[string][]float64{
		Normalize("data must be encrypted at rest"):     {1, 0},
		Normalize("data must be encrypted when stored"): {0.999, 0.0447},
		Normalize("stored data must use encryption"):    {0.998, 0.0632},
		Normalize("reports must be delivered monthly"):  {0, 1},
	})
	return docs, patterns, embedder
}

func TestAggregate_BuildsFamilies(t *testing.T) {
	ctx := context.Background()
	docs, patterns, embedder := aggregateFixture(t)
	families := memory.NewFamilyStore()

	builder := NewFamilyBuilder(patterns, families, docs, embedder, FamilyBuilderConfig{
		ClusteringThreshold: 0.95,
	})

	stats, err := builder.Aggregate(ctx, domain.PatternRequirement)
	require.NoError(t, err)

	// Three encryption patterns cluster; the outlier singleton falls
	// under the default minimum size of two.
	assert.Equal(t, 1, stats.FamiliesCreated)
	assert.Equal(t, 3, stats.Clustered)
	assert.Equal(t, 1, stats.Skipped)

	top, err := families.TopFamilies(ctx, domain.PatternRequirement, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)

	family := top[0]
	assert.Equal(t, 3, family.MemberCount)
	// c1 and c2 share docA, c3 is docB.
	assert.Equal(t, 2, family.DocCount)
	assert.LessOrEqual(t, family.DocCount, family.MemberCount)
	assert.InDelta(t, (0.9+0.8+0.7)/3, family.AvgConfidence, 1e-12)

	// The canonical text is the representative member's raw text, not
	// its normalized form.
	assert.Contains(t, []string{
		"data must be encrypted at rest",
		"data must be encrypted when stored",
		"stored data must use encryption",
	}, family.CanonicalText)

	members := families.Members(domain.PatternRequirement)
	require.Len(t, members, 3)
	for _, m := range members {
		assert.Equal(t, family.ID, m.FamilyID)
		assert.Greater(t, m.Similarity, 0.9)
	}
}

func TestAggregate_MinClusterSizeObservable(t *testing.T) {
	ctx := context.Background()
	docs, patterns, embedder := aggregateFixture(t)
	families := memory.NewFamilyStore()

	// A minimum size of four excludes every cluster; all members show
	// up as skipped.
	builder := NewFamilyBuilder(patterns, families, docs, embedder, FamilyBuilderConfig{
		ClusteringThreshold: 0.95,
		MinClusterSize:      4,
	})

	stats, err := builder.Aggregate(ctx, domain.PatternRequirement)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FamiliesCreated)
	assert.Equal(t, 0, stats.Clustered)
	assert.Equal(t, 4, stats.Skipped)

	count, err := families.CountFamilies(ctx, domain.PatternRequirement)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAggregate_MinClusterSizeOneKeepsSingletons(t *testing.T) {
	ctx := context.Background()
	docs, patterns, embedder := aggregateFixture(t)
	families := memory.NewFamilyStore()

	builder := NewFamilyBuilder(patterns, families, docs, embedder, FamilyBuilderConfig{
		ClusteringThreshold: 0.95,
		MinClusterSize:      1,
	})

	stats, err := builder.Aggregate(ctx, domain.PatternRequirement)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FamiliesCreated)
	assert.Equal(t, 4, stats.Clustered)
	assert.Equal(t, 0, stats.Skipped)

	top, err := families.TopFamilies(ctx, domain.PatternRequirement, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 3, top[0].MemberCount)
	assert.Equal(t, 1, top[1].MemberCount)
	assert.Equal(t, "reports must be delivered monthly", top[1].CanonicalText)
}

func TestAggregate_RebuildReplacesFamilies(t *testing.T) {
	ctx := context.Background()
	docs, patterns, embedder := aggregateFixture(t)
	families := memory.NewFamilyStore()

	require.NoError(t, families.ReplaceFamilies(ctx, domain.PatternRequirement, []domain.Family{
		{ID: "stale", Type: domain.PatternRequirement, CanonicalText: "old", MemberCount: 9, DocCount: 9},
	}, nil))

	builder := NewFamilyBuilder(patterns, families, docs, embedder, FamilyBuilderConfig{
		ClusteringThreshold: 0.95,
	})
	_, err := builder.Aggregate(ctx, domain.PatternRequirement)
	require.NoError(t, err)

	top, err := families.TopFamilies(ctx, domain.PatternRequirement, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.NotEqual(t, "stale", top[0].ID)
}

func TestAggregate_NoPatterns(t *testing.T) {
	builder := NewFamilyBuilder(memory.NewPatternStore(), memory.NewFamilyStore(),
		memory.NewDocumentStore(), newStubEmbedder(nil), FamilyBuilderConfig{})

	stats, err := builder.Aggregate(context.Background(), domain.PatternRequirement)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FamiliesCreated)
}

func TestAggregate_UnknownType(t *testing.T) {
	builder := NewFamilyBuilder(memory.NewPatternStore(), memory.NewFamilyStore(),
		memory.NewDocumentStore(), newStubEmbedder(nil), FamilyBuilderConfig{})

	_, err := builder.Aggregate(context.Background(), domain.PatternType("theme"))
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestAggregate_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	docs, patterns, _ := aggregateFixture(t)
	embedder := newStubEmbedder(nil)
	embedder.batchErr = errors.New("embedding backend down")

	builder := NewFamilyBuilder(patterns, memory.NewFamilyStore(), docs, embedder, FamilyBuilderConfig{})
	_, err := builder.Aggregate(ctx, domain.PatternRequirement)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding batch")
}
