package domain

import (
	"fmt"
	"time"
)

// PatternType classifies an extracted semantic statement.
type PatternType string

// The closed set of pattern types.
const (
	PatternRequirement PatternType = "requirement"
	PatternSuccess     PatternType = "success_point"
	PatternFailure     PatternType = "failure_point"
	PatternRisk        PatternType = "risk"
	PatternConstraint  PatternType = "constraint"
)

// PatternTypes lists all valid pattern types in priority order.
// The order is load-bearing: question classification ties resolve to the
// earlier type.
var PatternTypes = []PatternType{
	PatternRequirement,
	PatternRisk,
	PatternConstraint,
	PatternSuccess,
	PatternFailure,
}

// ParsePatternType validates a pattern type string.
func ParsePatternType(s string) (PatternType, error) {
	for _, t := range PatternTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown pattern type %q", ErrDataIntegrity, s)
}

// Pattern is a typed semantic statement extracted from a chunk.
// Patterns are immutable after creation.
type Pattern struct {
	// ID is the unique identifier for the pattern.
	ID string

	// ChunkID links to the owning Chunk.
	ChunkID string

	// Type classifies the pattern.
	Type PatternType

	// Text is the extracted statement as it appears in the source.
	Text string

	// NormText is the normalized form used as a clustering key.
	// It is never shown to end users.
	NormText string

	// Category is an optional type-specific categorization.
	Category string

	// Severity applies to risks and failures ("high", "medium", "low").
	Severity string

	// Modality applies to requirements ("must", "should", "may").
	Modality string

	// Topic is an optional topical classification.
	Topic string

	// Entities lists named standards, technologies or terms.
	Entities []string

	// Confidence is the extraction confidence in [0, 1].
	Confidence float64

	// Metadata contains extractor-specific key-value pairs.
	Metadata map[string]any

	// ExtractedAt is when the pattern was extracted.
	ExtractedAt time.Time
}

// Validate checks pattern invariants.
func (p *Pattern) Validate() error {
	if _, err := ParsePatternType(string(p.Type)); err != nil {
		return err
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f outside [0,1]", ErrDataIntegrity, p.Confidence)
	}
	if p.Text == "" {
		return fmt.Errorf("%w: empty pattern text", ErrInvalidInput)
	}
	return nil
}

// Family is a cluster of semantically equivalent patterns of one type.
// Families are rebuilt wholesale by re-running aggregation, never mutated
// individually.
type Family struct {
	// ID is the unique identifier for the family.
	ID string

	// Type is the pattern type shared by all members.
	Type PatternType

	// CanonicalText is the representative member's raw text.
	CanonicalText string

	// MemberCount is the number of member patterns.
	MemberCount int

	// DocCount is the number of distinct source documents.
	// Invariant: DocCount <= MemberCount.
	DocCount int

	// AvgConfidence is the mean member confidence.
	AvgConfidence float64

	// CreatedAt is when the aggregation pass created the family.
	CreatedAt time.Time
}

// FamilyMember links a pattern to its family. A pattern belongs to at
// most one family per aggregation run.
type FamilyMember struct {
	// FamilyID links to the owning Family.
	FamilyID string

	// PatternID references the member Pattern by id only.
	PatternID string

	// Similarity is the member's cosine similarity to the family
	// centroid.
	Similarity float64
}
