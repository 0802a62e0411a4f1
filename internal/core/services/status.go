package services

import (
	"context"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
)

var _ driving.StatusService = (*StatusReporter)(nil)

// StatusReporter gathers corpus statistics from the metadata stores and
// the vector index.
type StatusReporter struct {
	docs     driven.DocumentStore
	patterns driven.PatternStore
	families driven.FamilyStore
	vector   driven.VectorIndex
}

// NewStatusReporter creates a status reporter.
func NewStatusReporter(
	docs driven.DocumentStore,
	patterns driven.PatternStore,
	families driven.FamilyStore,
	vector driven.VectorIndex,
) *StatusReporter {
	return &StatusReporter{
		docs:     docs,
		patterns: patterns,
		families: families,
		vector:   vector,
	}
}

// Status gathers counts. A vector index that has never been built counts
// as zero vectors rather than an error.
func (s *StatusReporter) Status(ctx context.Context) (*driving.StatusReport, error) {
	report := &driving.StatusReport{
		Patterns: make(map[domain.PatternType]int, len(domain.PatternTypes)),
		Families: make(map[domain.PatternType]int, len(domain.PatternTypes)),
	}

	var err error
	if report.Documents, err = s.docs.CountDocuments(ctx); err != nil {
		return nil, err
	}
	if report.Chunks, err = s.docs.CountChunks(ctx); err != nil {
		return nil, err
	}

	if s.vector != nil {
		if n, err := s.vector.Count(ctx); err == nil {
			report.Vectors = n
		}
	}

	for _, t := range domain.PatternTypes {
		n, err := s.patterns.CountPatterns(ctx, t)
		if err != nil {
			return nil, err
		}
		report.Patterns[t] = n

		f, err := s.families.CountFamilies(ctx, t)
		if err != nil {
			return nil, err
		}
		report.Families[t] = f
	}

	return report, nil
}
