package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

// CosineSimilarity computes the cosine similarity of two equal-length
// vectors. Zero vectors yield 0 rather than NaN, so degraded embedding
// placeholders never rank as matches.
func CosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Centroid computes the elementwise mean of the member embeddings.
func Centroid(members []int, embeddings [][]float64) []float64 {
	if len(members) == 0 {
		return nil
	}
	dim := len(embeddings[members[0]])
	centroid := make([]float64, dim)
	for _, idx := range members {
		for d, v := range embeddings[idx] {
			centroid[d] += v
		}
	}
	for d := range centroid {
		centroid[d] /= float64(len(members))
	}
	return centroid
}

// Cluster groups items into families by agglomerative threshold
// clustering over their embeddings.
//
// Every item starts as a singleton cluster. Passes over all unordered
// cluster pairs, in ascending pair-index order, merge any pair whose
// average cross-cluster member similarity meets the threshold
// (inclusive); the lower-id cluster absorbs the other. Clusters deleted
// mid-pass are skipped for the remainder of that pass. Passes repeat
// until one completes without a merge. Final clusters are re-indexed
// sequentially by ascending surviving original id.
//
// The pairwise similarity matrix is computed once up front: O(n^2)
// space and time, acceptable for corpora in the low thousands. The
// merge order within a pass is part of the contract; re-evaluating
// pairs in a different order can produce different (equally valid)
// clusterings when overlapping pairs qualify simultaneously.
//
// Returns an empty map for empty input. All embeddings must share one
// dimension; a mismatch is a data integrity failure.
func Cluster(embeddings [][]float64, threshold float64) (map[int][]int, error) {
	n := len(embeddings)
	if n == 0 {
		return map[int][]int{}, nil
	}

	dim := len(embeddings[0])
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, want %d",
				domain.ErrDataIntegrity, i, len(e), dim)
		}
	}

	logger.Info("Clustering %d items with threshold %.2f", n, threshold)

	// Full pairwise similarity matrix, computed once.
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sims[i][i] = 1
		for j := i + 1; j < n; j++ {
			s := CosineSimilarity(embeddings[i], embeddings[j])
			sims[i][j] = s
			sims[j][i] = s
		}
	}

	clusters := make(map[int][]int, n)
	for i := 0; i < n; i++ {
		clusters[i] = []int{i}
	}

	for pass := 1; ; pass++ {
		merged := false

		ids := make([]int, 0, len(clusters))
		for id := range clusters {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				ci, cj := ids[i], ids[j]

				// Either side may have been absorbed earlier in this pass.
				if _, ok := clusters[ci]; !ok {
					continue
				}
				if _, ok := clusters[cj]; !ok {
					continue
				}

				if avgCrossSimilarity(clusters[ci], clusters[cj], sims) >= threshold {
					clusters[ci] = append(clusters[ci], clusters[cj]...)
					delete(clusters, cj)
					merged = true
				}
			}
		}

		logger.Debug("Clustering pass %d: %d clusters", pass, len(clusters))
		if !merged {
			break
		}
	}

	// Sequential ids, ordered by surviving original cluster id.
	surviving := make([]int, 0, len(clusters))
	for id := range clusters {
		surviving = append(surviving, id)
	}
	sort.Ints(surviving)

	final := make(map[int][]int, len(surviving))
	for newID, oldID := range surviving {
		final[newID] = clusters[oldID]
	}

	logger.Info("Clustering complete: %d clusters formed", len(final))
	return final, nil
}

// avgCrossSimilarity is the mean pairwise similarity between all
// cross-cluster member pairs. Average linkage, not centroid linkage.
func avgCrossSimilarity(a, b []int, sims [][]float64) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += sims[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}

// Representative selects the cluster member whose embedding is closest
// to the cluster centroid. Ties resolve to the lowest item index, so
// selection is stable across runs.
func Representative(members []int, embeddings [][]float64) int {
	centroid := Centroid(members, embeddings)

	ordered := append([]int(nil), members...)
	sort.Ints(ordered)

	best := ordered[0]
	bestSim := -2.0
	for _, idx := range ordered {
		if sim := CosineSimilarity(embeddings[idx], centroid); sim > bestSim {
			bestSim = sim
			best = idx
		}
	}
	return best
}
