package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

// Ensure FamilyBuilder implements the interface.
var _ driving.AggregateService = (*FamilyBuilder)(nil)

// FamilyBuilderConfig tunes the aggregation pass.
type FamilyBuilderConfig struct {
	// ClusteringThreshold is the average-linkage similarity threshold.
	ClusteringThreshold float64

	// MinClusterSize discards smaller clusters before persistence.
	// This is a policy filter applied after clustering, not part of
	// the clustering algorithm.
	MinClusterSize int

	// EmbedBatchSize is the embedding batch size.
	EmbedBatchSize int
}

// FamilyBuilder clusters extracted patterns of one type into families
// with a canonical representative member. Families are rebuilt wholesale
// on every run.
type FamilyBuilder struct {
	patterns driven.PatternStore
	families driven.FamilyStore
	docs     driven.DocumentStore
	embedder driven.EmbeddingService
	cfg      FamilyBuilderConfig
}

// NewFamilyBuilder creates a family builder.
func NewFamilyBuilder(
	patterns driven.PatternStore,
	families driven.FamilyStore,
	docs driven.DocumentStore,
	embedder driven.EmbeddingService,
	cfg FamilyBuilderConfig,
) *FamilyBuilder {
	if cfg.ClusteringThreshold == 0 {
		cfg.ClusteringThreshold = 0.85
	}
	if cfg.MinClusterSize <= 0 {
		cfg.MinClusterSize = 2
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 10
	}
	return &FamilyBuilder{
		patterns: patterns,
		families: families,
		docs:     docs,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Aggregate rebuilds the families of the given pattern type.
func (b *FamilyBuilder) Aggregate(ctx context.Context, t domain.PatternType) (driving.AggregateStats, error) {
	var stats driving.AggregateStats

	if _, err := domain.ParsePatternType(string(t)); err != nil {
		return stats, err
	}

	logger.Section("Family Building")

	patterns, err := b.patterns.GetPatternsByType(ctx, t)
	if err != nil {
		return stats, fmt.Errorf("loading patterns: %w", err)
	}
	if len(patterns) == 0 {
		logger.Warn("No %s patterns found", t)
		return stats, nil
	}

	logger.Info("Embedding %d normalized patterns", len(patterns))
	embeddings, err := b.embedAll(ctx, patterns)
	if err != nil {
		return stats, err
	}

	clusters, err := Cluster(embeddings, b.cfg.ClusteringThreshold)
	if err != nil {
		return stats, err
	}

	// Minimum-size policy filter. Excluded members are observable in
	// the skipped count, never silently dropped.
	kept := make([]int, 0, len(clusters))
	for id, members := range clusters {
		if len(members) >= b.cfg.MinClusterSize {
			kept = append(kept, id)
		} else {
			stats.Skipped += len(members)
		}
	}
	sort.Ints(kept)
	logger.Info("Keeping %d of %d clusters (min size %d)", len(kept), len(clusters), b.cfg.MinClusterSize)

	now := time.Now().UTC()
	families := make([]domain.Family, 0, len(kept))
	members := make([]domain.FamilyMember, 0, len(patterns))

	for _, clusterID := range kept {
		idxs := clusters[clusterID]

		rep := Representative(idxs, embeddings)
		centroid := Centroid(idxs, embeddings)

		docIDs := make(map[string]struct{})
		var confSum float64
		for _, i := range idxs {
			confSum += patterns[i].Confidence
			if docID, err := b.documentOf(ctx, patterns[i].ChunkID); err == nil {
				docIDs[docID] = struct{}{}
			}
		}

		family := domain.Family{
			ID:            uuid.New().String(),
			Type:          t,
			CanonicalText: patterns[rep].Text,
			MemberCount:   len(idxs),
			DocCount:      len(docIDs),
			AvgConfidence: confSum / float64(len(idxs)),
			CreatedAt:     now,
		}
		families = append(families, family)
		stats.FamiliesCreated++

		for _, i := range idxs {
			members = append(members, domain.FamilyMember{
				FamilyID:   family.ID,
				PatternID:  patterns[i].ID,
				Similarity: CosineSimilarity(embeddings[i], centroid),
			})
			stats.Clustered++
		}

		logger.Debug("Family %s: %d members, %d documents, canonical: %.60s",
			family.ID, family.MemberCount, family.DocCount, family.CanonicalText)
	}

	if err := b.families.ReplaceFamilies(ctx, t, families, members); err != nil {
		return stats, fmt.Errorf("persisting families: %w", err)
	}

	logger.Info("Family building complete: %d families, %d patterns clustered, %d skipped",
		stats.FamiliesCreated, stats.Clustered, stats.Skipped)
	return stats, nil
}

// embedAll embeds the normalized pattern texts in fixed-size batches,
// preserving input order. Embeddings are zipped positionally with the
// patterns, so reordering here would corrupt the clustering.
func (b *FamilyBuilder) embedAll(ctx context.Context, patterns []domain.Pattern) ([][]float64, error) {
	texts := make([]string, len(patterns))
	for i, p := range patterns {
		texts[i] = p.NormText
	}

	embeddings := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += b.cfg.EmbedBatchSize {
		end := min(start+b.cfg.EmbedBatchSize, len(texts))

		batch, err := b.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: embedded %d texts, got %d vectors",
				domain.ErrDataIntegrity, end-start, len(batch))
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

// documentOf resolves a chunk id to its owning document id.
func (b *FamilyBuilder) documentOf(ctx context.Context, chunkID string) (string, error) {
	chunk, err := b.docs.GetChunk(ctx, chunkID)
	if err != nil {
		return "", err
	}
	return chunk.DocumentID, nil
}
