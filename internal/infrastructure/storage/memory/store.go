package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nutrisnap/backend/internal/domain"
)

// Store is a thread-safe in-memory tracker repository
type Store struct {
	mu      sync.RWMutex
	entries map[string][]domain.TrackerEntry // keyed by owner
}

var _ domain.TrackerRepository = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{entries: make(map[string][]domain.TrackerEntry)}
}

// Insert stores a copy of entry
func (s *Store) Insert(ctx context.Context, entry *domain.TrackerEntry) error {
	if entry == nil || entry.ID == "" || entry.Owner == "" {
		return domain.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entries[entry.Owner] {
		if existing.ID == entry.ID {
			return domain.ErrInvalidRequest
		}
	}
	s.entries[entry.Owner] = append(s.entries[entry.Owner], cloneEntry(*entry))
	return nil
}

// Find returns owner's entries matching filter, newest first
func (s *Store) Find(ctx context.Context, owner string, filter domain.EntryFilter) ([]domain.TrackerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.TrackerEntry, 0)
	for _, entry := range s.entries[owner] {
		if filter.Matches(entry) {
			result = append(result, cloneEntry(entry))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Delete removes one of owner's entries
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries[owner]
	for i, entry := range entries {
		if entry.ID == id {
			s.entries[owner] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrEntryNotFound
}

func cloneEntry(e domain.TrackerEntry) domain.TrackerEntry {
	nutrients := make(map[string]domain.NutrientValue, len(e.Nutrients))
	for k, v := range e.Nutrients {
		nutrients[k] = v
	}
	e.Nutrients = nutrients
	return e
}
