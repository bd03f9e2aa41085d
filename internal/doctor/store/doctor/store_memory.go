package doctor

import (
	"context"
	"sort"
	"strings"
	"sync"

	"medboard/internal/doctor/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
)

// Filter narrows doctor listings.
type Filter struct {
	Status models.Status
	Search string
	Limit  int
	Offset int
}

// InMemoryStore keeps doctors in a map for tests and single-node development.
type InMemoryStore struct {
	mu      sync.RWMutex
	doctors map[id.DoctorID]*models.Doctor
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{doctors: make(map[id.DoctorID]*models.Doctor)}
}

func (s *InMemoryStore) Save(_ context.Context, doctor *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doctors[doctor.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.doctors {
		if strings.EqualFold(existing.Email, doctor.Email) {
			return sentinel.ErrConflict
		}
	}
	clone := *doctor
	s.doctors[doctor.ID] = &clone
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, doctor *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doctors[doctor.ID]; !exists {
		return sentinel.ErrNotFound
	}
	for otherID, existing := range s.doctors {
		if otherID != doctor.ID && strings.EqualFold(existing.Email, doctor.Email) {
			return sentinel.ErrConflict
		}
	}
	clone := *doctor
	s.doctors[doctor.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, doctorID id.DoctorID) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doctor, ok := s.doctors[doctorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *doctor
	return &clone, nil
}

// FindByIDForUpdate matches the Postgres row-lock read. The in-memory store
// relies on the sharded transaction lock instead, so a plain read suffices.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error) {
	return s.FindByID(ctx, doctorID)
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doctor := range s.doctors {
		if strings.EqualFold(doctor.Email, email) {
			clone := *doctor
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var result []*models.Doctor
	for _, doctor := range s.doctors {
		if filter.Status != "" && doctor.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(doctor.Name), search) &&
			!strings.Contains(strings.ToLower(doctor.Email), search) {
			continue
		}
		clone := *doctor
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *InMemoryStore) Delete(_ context.Context, doctorID id.DoctorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.doctors[doctorID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.doctors, doctorID)
	return nil
}
