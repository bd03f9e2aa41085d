package suspension

import (
	"context"
	"sort"
	"sync"

	"medboard/internal/doctor/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
)

// InMemoryStore keeps the suspension ledger in memory for tests and
// single-node development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.SuspensionID]*models.SuspensionRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.SuspensionID]*models.SuspensionRecord)}
}

func (s *InMemoryStore) Append(_ context.Context, record *models.SuspensionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, suspensionID id.SuspensionID) (*models.SuspensionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[suspensionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *InMemoryStore) ListByDoctor(_ context.Context, doctorID id.DoctorID) ([]*models.SuspensionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.SuspensionRecord
	for _, record := range s.records {
		if record.DoctorID != doctorID {
			continue
		}
		clone := *record
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// CountActive returns the number of non-revoked records for the doctor.
// Revoked records do not count toward the strike limit; everything else does,
// including records from suspensions that were later lifted.
func (s *InMemoryStore) CountActive(_ context.Context, doctorID id.DoctorID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.records {
		if record.DoctorID == doctorID && !record.Revoked {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) MarkRevoked(_ context.Context, suspensionID id.SuspensionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[suspensionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if record.Revoked {
		return sentinel.ErrInvalidState
	}
	record.Revoked = true
	return nil
}

// DeleteByDoctor drops the whole ledger for a doctor. Used when the doctor
// record itself is removed.
func (s *InMemoryStore) DeleteByDoctor(_ context.Context, doctorID id.DoctorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for recordID, record := range s.records {
		if record.DoctorID == doctorID {
			delete(s.records, recordID)
		}
	}
	return nil
}
