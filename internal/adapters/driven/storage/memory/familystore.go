package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
)

// Ensure FamilyStore implements the interface.
var _ driven.FamilyStore = (*FamilyStore)(nil)

// FamilyStore is an in-memory implementation of driven.FamilyStore.
type FamilyStore struct {
	mu       sync.RWMutex
	families map[domain.PatternType][]domain.Family
	members  map[domain.PatternType][]domain.FamilyMember
}

// NewFamilyStore creates a new in-memory family store.
func NewFamilyStore() *FamilyStore {
	return &FamilyStore{
		families: make(map[domain.PatternType][]domain.Family),
		members:  make(map[domain.PatternType][]domain.FamilyMember),
	}
}

// ReplaceFamilies replaces all families of the given pattern type.
func (s *FamilyStore) ReplaceFamilies(_ context.Context, t domain.PatternType,
	families []domain.Family, members []domain.FamilyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[t] = append([]domain.Family(nil), families...)
	s.members[t] = append([]domain.FamilyMember(nil), members...)
	return nil
}

// TopFamilies returns up to limit families of the given type, ordered by
// document count then member count, descending.
func (s *FamilyStore) TopFamilies(_ context.Context, t domain.PatternType, limit int) ([]domain.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	families := append([]domain.Family(nil), s.families[t]...)
	sort.SliceStable(families, func(i, j int) bool {
		if families[i].DocCount != families[j].DocCount {
			return families[i].DocCount > families[j].DocCount
		}
		if families[i].MemberCount != families[j].MemberCount {
			return families[i].MemberCount > families[j].MemberCount
		}
		return families[i].ID < families[j].ID
	})
	if limit > 0 && len(families) > limit {
		families = families[:limit]
	}
	return families, nil
}

// CountFamilies returns the number of families of the given type.
func (s *FamilyStore) CountFamilies(_ context.Context, t domain.PatternType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.families[t]), nil
}

// Members returns the stored members for a pattern type. Test helper.
func (s *FamilyStore) Members(t domain.PatternType) []domain.FamilyMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.FamilyMember(nil), s.members[t]...)
}
