package store

import (
	"context"
	"strings"
	"sync"

	"medboard/internal/admin/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
)

// InMemoryStore keeps admin accounts in a map for tests and single-node
// development. Email uniqueness is case-insensitive, matching the postgres
// index.
type InMemoryStore struct {
	mu     sync.RWMutex
	admins map[id.AdminID]*models.Admin
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{admins: make(map[id.AdminID]*models.Admin)}
}

func (s *InMemoryStore) Save(_ context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.admins[admin.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.admins {
		if strings.EqualFold(existing.Email, admin.Email) {
			return sentinel.ErrConflict
		}
	}
	clone := *admin
	s.admins[admin.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, adminID id.AdminID) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admin, ok := s.admins[adminID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *admin
	return &clone, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, admin := range s.admins {
		if strings.EqualFold(admin.Email, email) {
			clone := *admin
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins), nil
}
