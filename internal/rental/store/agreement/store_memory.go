package agreement

import (
	"context"
	"sort"
	"sync"

	"briq/internal/rental/models"
	"briq/pkg/platform/sentinel"
)

// InMemoryStore is the registry used by tests and single-process deployments.
//
// Invariant: at most one agreement per property is in a holding state
// (pending or active).
type InMemoryStore struct {
	mu      sync.RWMutex
	byHash  map[string]*models.Agreement
	holding map[string]string // property id -> agreement hash
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byHash:  make(map[string]*models.Agreement),
		holding: make(map[string]string),
	}
}

// Reserve inserts a new agreement. It fails with sentinel.ErrAlreadyUsed when
// the hash is already registered or the property is held by another agreement.
func (s *InMemoryStore) Reserve(_ context.Context, a *models.Agreement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[a.Hash]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if a.Status.Holds() {
		if _, held := s.holding[a.PropertyID]; held {
			return sentinel.ErrAlreadyUsed
		}
		s.holding[a.PropertyID] = a.Hash
	}
	cp := *a
	s.byHash[a.Hash] = &cp
	return nil
}

// Update replaces a stored agreement, keeping the holding index in step with
// its status.
func (s *InMemoryStore) Update(_ context.Context, a *models.Agreement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[a.Hash]; !ok {
		return sentinel.ErrNotFound
	}
	holder, held := s.holding[a.PropertyID]
	switch {
	case a.Status.Holds() && held && holder != a.Hash:
		return sentinel.ErrAlreadyUsed
	case a.Status.Holds():
		s.holding[a.PropertyID] = a.Hash
	case held && holder == a.Hash:
		delete(s.holding, a.PropertyID)
	}
	cp := *a
	s.byHash[a.Hash] = &cp
	return nil
}

func (s *InMemoryStore) FindByHash(_ context.Context, hash string) (*models.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byHash[hash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// FindHolding returns the pending or active agreement for a property.
func (s *InMemoryStore) FindHolding(_ context.Context, propertyID string) (*models.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.holding[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byHash[hash]
	return &cp, nil
}

// ListPending returns pending agreements, oldest first.
func (s *InMemoryStore) ListPending(_ context.Context) ([]*models.Agreement, error) {
	return s.list(func(a *models.Agreement) bool { return a.Status == models.StatusPending }), nil
}

// ListByLandlord returns every agreement the landlord is party to, oldest first.
func (s *InMemoryStore) ListByLandlord(_ context.Context, landlord string) ([]*models.Agreement, error) {
	return s.list(func(a *models.Agreement) bool { return a.Landlord == landlord }), nil
}

func (s *InMemoryStore) list(keep func(*models.Agreement) bool) []*models.Agreement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Agreement, 0)
	for _, a := range s.byHash {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Hash < out[j].Hash
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
