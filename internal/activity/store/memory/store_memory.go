package memory

import (
	"context"
	"sync"

	"medboard/internal/activity"
)

// Store is an in-memory activity sink for tests and single-node development.
type Store struct {
	mu      sync.RWMutex
	entries []activity.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) List(_ context.Context, filter activity.Filter) ([]activity.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first.
	result := make([]activity.Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		result = append(result, entry)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}
