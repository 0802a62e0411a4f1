package memory

import (
	"context"
	"sync"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
)

// Ensure PatternStore implements the interface.
var _ driven.PatternStore = (*PatternStore)(nil)

// PatternStore is an in-memory implementation of driven.PatternStore.
type PatternStore struct {
	mu       sync.RWMutex
	patterns []domain.Pattern
	byID     map[string]int
}

// NewPatternStore creates a new in-memory pattern store.
func NewPatternStore() *PatternStore {
	return &PatternStore{
		byID: make(map[string]int),
	}
}

// SavePattern stores a pattern, preserving insertion order.
func (s *PatternStore) SavePattern(_ context.Context, p *domain.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.byID[p.ID]; ok {
		s.patterns[pos] = *p
		return nil
	}
	s.byID[p.ID] = len(s.patterns)
	s.patterns = append(s.patterns, *p)
	return nil
}

// GetPatternsByType returns all patterns of the given type in insertion order.
func (s *PatternStore) GetPatternsByType(_ context.Context, t domain.PatternType) ([]domain.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Pattern
	for _, p := range s.patterns {
		if p.Type == t {
			result = append(result, p)
		}
	}
	return result, nil
}

// CountPatterns returns the number of patterns of the given type.
func (s *PatternStore) CountPatterns(_ context.Context, t domain.PatternType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.patterns {
		if p.Type == t {
			count++
		}
	}
	return count, nil
}
