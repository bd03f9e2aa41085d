package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"medboard/internal/candidate/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/sentinel"
)

// Filter narrows candidate listings.
type Filter struct {
	Status models.Status
	Limit  int
}

// InMemoryStore keeps candidates in a map for tests and single-node
// development.
type InMemoryStore struct {
	mu         sync.RWMutex
	candidates map[id.CandidateID]*models.Candidate
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{candidates: make(map[id.CandidateID]*models.Candidate)}
}

func (s *InMemoryStore) Save(_ context.Context, candidate *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.candidates[candidate.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *candidate
	s.candidates[candidate.ID] = &clone
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, candidate *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.candidates[candidate.ID]; !exists {
		return sentinel.ErrNotFound
	}
	clone := *candidate
	s.candidates[candidate.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidate, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *candidate
	return &clone, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Candidate
	for _, candidate := range s.candidates {
		if filter.Status != "" && candidate.Status != filter.Status {
			continue
		}
		clone := *candidate
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *InMemoryStore) Delete(_ context.Context, candidateID id.CandidateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.candidates[candidateID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.candidates, candidateID)
	return nil
}

// CountRejectedMatching counts retained rejected candidates sharing the
// email or any license with the given contact. Used for the repeat-rejection
// blacklist rule.
func (s *InMemoryStore) CountRejectedMatching(_ context.Context, email string, licenses []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	licenseSet := make(map[string]struct{}, len(licenses))
	for _, license := range licenses {
		licenseSet[strings.ToLower(strings.TrimSpace(license))] = struct{}{}
	}

	count := 0
	for _, candidate := range s.candidates {
		if candidate.Status != models.StatusRejected {
			continue
		}
		if strings.EqualFold(candidate.Email, email) {
			count++
			continue
		}
		for _, license := range candidate.Licenses {
			if _, ok := licenseSet[strings.ToLower(license)]; ok {
				count++
				break
			}
		}
	}
	return count, nil
}
