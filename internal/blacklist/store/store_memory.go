package store

import (
	"context"
	"sort"
	"sync"

	"medboard/internal/blacklist/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
)

// Filter narrows blacklist listings.
type Filter struct {
	Reason models.Reason
	Active *bool
}

// InMemoryStore keeps blacklist entries in a map for tests and single-node
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.BlacklistEntryID]*models.Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.BlacklistEntryID]*models.Entry)}
}

func (s *InMemoryStore) Save(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *entry
	s.entries[entry.ID] = &clone
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.ID]; !exists {
		return sentinel.ErrNotFound
	}
	clone := *entry
	s.entries[entry.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, entryID id.BlacklistEntryID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Entry
	for _, entry := range s.entries {
		if filter.Reason != "" && entry.Reason != filter.Reason {
			continue
		}
		if filter.Active != nil && entry.IsActive != *filter.Active {
			continue
		}
		clone := *entry
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BlacklistedAt.After(result[j].BlacklistedAt)
	})
	return result, nil
}

func (s *InMemoryStore) Search(_ context.Context, term string) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Entry
	for _, entry := range s.entries {
		if entry.Matches(term) {
			clone := *entry
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BlacklistedAt.After(result[j].BlacklistedAt)
	})
	return result, nil
}

func (s *InMemoryStore) Delete(_ context.Context, entryID id.BlacklistEntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entryID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.entries, entryID)
	return nil
}

// ExistsFingerprint reports whether any active entry covers one of the given
// fingerprints.
func (s *InMemoryStore) ExistsFingerprint(_ context.Context, fingerprints []string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lookup := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		lookup[fp] = struct{}{}
	}
	for _, entry := range s.entries {
		if !entry.IsActive {
			continue
		}
		for _, fp := range entry.Fingerprints {
			if _, ok := lookup[fp]; ok {
				return true, nil
			}
		}
	}
	return false, nil
}

// ActiveFingerprints returns every fingerprint covered by an active entry,
// used to warm the deny-set index.
func (s *InMemoryStore) ActiveFingerprints(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var fingerprints []string
	for _, entry := range s.entries {
		if !entry.IsActive {
			continue
		}
		for _, fp := range entry.Fingerprints {
			if _, ok := seen[fp]; ok {
				continue
			}
			seen[fp] = struct{}{}
			fingerprints = append(fingerprints, fp)
		}
	}
	return fingerprints, nil
}
